package models

import "time"

// ApplicationStatus tracks a job application. Any status may follow any other.
type ApplicationStatus string

const (
	ApplicationApplied      ApplicationStatus = "applied"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationRejected     ApplicationStatus = "rejected"
	ApplicationAccepted     ApplicationStatus = "accepted"
)

// Application is a job application tracked by its owner.
type Application struct {
	ID              string            `db:"id" json:"id"`
	UserID          string            `db:"user_id" json:"user_id"`
	Company         string            `db:"company" json:"company"`
	Position        string            `db:"position" json:"position"`
	Status          ApplicationStatus `db:"status" json:"status"`
	JobDescription  *string           `db:"job_description" json:"job_description,omitempty"`
	ApplicationDate time.Time         `db:"application_date" json:"application_date"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// CreateApplicationRequest records a new job application.
type CreateApplicationRequest struct {
	Company         string            `json:"company" validate:"required,min=1,max=255"`
	Position        string            `json:"position" validate:"required,min=1,max=255"`
	Status          ApplicationStatus `json:"status" validate:"omitempty,oneof=applied interviewing rejected accepted"`
	JobDescription  *string           `json:"job_description" validate:"omitempty,max=5000"`
	ApplicationDate *time.Time        `json:"application_date"`
	Notes           *string           `json:"notes" validate:"omitempty,max=5000"`
}

// UpdateApplicationRequest patches an application.
type UpdateApplicationRequest struct {
	Company         *string            `json:"company" validate:"omitempty,min=1,max=255"`
	Position        *string            `json:"position" validate:"omitempty,min=1,max=255"`
	Status          *ApplicationStatus `json:"status" validate:"omitempty,oneof=applied interviewing rejected accepted"`
	JobDescription  *string            `json:"job_description" validate:"omitempty,max=5000"`
	ApplicationDate *time.Time         `json:"application_date"`
	Notes           *string            `json:"notes" validate:"omitempty,max=5000"`
}

// ApplicationFilter narrows the owner's application list.
type ApplicationFilter struct {
	Status   *ApplicationStatus
	Page     int
	PageSize int
}

// ApplicationStats summarises applications by status.
type ApplicationStats struct {
	Total        int `db:"total" json:"total"`
	Applied      int `db:"applied" json:"applied"`
	Interviewing int `db:"interviewing" json:"interviewing"`
	Rejected     int `db:"rejected" json:"rejected"`
	Accepted     int `db:"accepted" json:"accepted"`
}
