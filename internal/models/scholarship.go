package models

import "time"

// ScholarshipStatus controls whether a scholarship accepts applications.
type ScholarshipStatus string

const (
	ScholarshipActive ScholarshipStatus = "active"
	ScholarshipClosed ScholarshipStatus = "closed"
	ScholarshipDraft  ScholarshipStatus = "draft"
)

// ScholarshipApplicationStatus is the review state of an application.
type ScholarshipApplicationStatus string

const (
	ScholarshipAppPending     ScholarshipApplicationStatus = "pending"
	ScholarshipAppUnderReview ScholarshipApplicationStatus = "under_review"
	ScholarshipAppApproved    ScholarshipApplicationStatus = "approved"
	ScholarshipAppRejected    ScholarshipApplicationStatus = "rejected"
)

// Final reports whether no further review is allowed.
func (s ScholarshipApplicationStatus) Final() bool {
	return s == ScholarshipAppApproved || s == ScholarshipAppRejected
}

// Scholarship is offered by an alumni creator.
type Scholarship struct {
	ID                  string            `db:"id" json:"id"`
	CreatorID           string            `db:"creator_id" json:"creator_id"`
	Title               string            `db:"title" json:"title"`
	Description         string            `db:"description" json:"description"`
	Amount              float64           `db:"amount" json:"amount"`
	Category            string            `db:"category" json:"category"`
	EligibilityCriteria *string           `db:"eligibility_criteria" json:"eligibility_criteria,omitempty"`
	ApplicationDeadline time.Time         `db:"application_deadline" json:"application_deadline"`
	MaxApplications     int               `db:"max_applications" json:"max_applications"`
	CurrentApplications int               `db:"current_applications" json:"current_applications"`
	Status              ScholarshipStatus `db:"status" json:"status"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// ScholarshipApplication links an applicant to a scholarship.
type ScholarshipApplication struct {
	ID                     string                       `db:"id" json:"id"`
	ScholarshipID          string                       `db:"scholarship_id" json:"scholarship_id"`
	ApplicantID            string                       `db:"applicant_id" json:"applicant_id"`
	PersonalStatement      string                       `db:"personal_statement" json:"personal_statement"`
	AcademicAchievements   *string                      `db:"academic_achievements" json:"academic_achievements,omitempty"`
	FinancialNeedStatement *string                      `db:"financial_need_statement" json:"financial_need_statement,omitempty"`
	Status                 ScholarshipApplicationStatus `db:"status" json:"status"`
	ReviewedBy             *string                      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt             *time.Time                   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes            *string                      `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt              time.Time                    `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time                    `db:"updated_at" json:"updated_at"`
}

// CreateScholarshipRequest is submitted by alumni.
type CreateScholarshipRequest struct {
	Title               string             `json:"title" validate:"required,min=1,max=255"`
	Description         string             `json:"description" validate:"required,min=10"`
	Amount              float64            `json:"amount" validate:"required,gt=0"`
	Category            string             `json:"category" validate:"required,oneof=merit-based need-based research achievement"`
	EligibilityCriteria *string            `json:"eligibility_criteria" validate:"omitempty,max=5000"`
	ApplicationDeadline time.Time          `json:"application_deadline" validate:"required"`
	MaxApplications     *int               `json:"max_applications" validate:"omitempty,min=1"`
	Status              *ScholarshipStatus `json:"status" validate:"omitempty,oneof=active closed draft"`
}

// UpdateScholarshipRequest patches a scholarship.
type UpdateScholarshipRequest struct {
	Title               *string            `json:"title" validate:"omitempty,min=1,max=255"`
	Description         *string            `json:"description" validate:"omitempty,min=10"`
	Amount              *float64           `json:"amount" validate:"omitempty,gt=0"`
	Category            *string            `json:"category" validate:"omitempty,oneof=merit-based need-based research achievement"`
	EligibilityCriteria *string            `json:"eligibility_criteria" validate:"omitempty,max=5000"`
	ApplicationDeadline *time.Time         `json:"application_deadline"`
	MaxApplications     *int               `json:"max_applications" validate:"omitempty,min=1"`
	Status              *ScholarshipStatus `json:"status" validate:"omitempty,oneof=active closed draft"`
}

// ScholarshipFilter narrows the public listing.
type ScholarshipFilter struct {
	Status   ScholarshipStatus
	Category string
	Page     int
	PageSize int
}

// ApplyScholarshipRequest is a student's application.
type ApplyScholarshipRequest struct {
	PersonalStatement      string  `json:"personal_statement" validate:"required,min=50,max=2000"`
	AcademicAchievements   *string `json:"academic_achievements" validate:"omitempty,max=5000"`
	FinancialNeedStatement *string `json:"financial_need_statement" validate:"omitempty,max=5000"`
}

// ReviewScholarshipApplicationRequest is the creator's decision.
type ReviewScholarshipApplicationRequest struct {
	Status      ScholarshipApplicationStatus `json:"status" validate:"required,oneof=under_review approved rejected"`
	ReviewNotes *string                      `json:"review_notes" validate:"omitempty,max=5000"`
}
