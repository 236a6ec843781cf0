package models

import "time"

// AvailabilityStatus describes whether an alumnus takes on new requests.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityBusy        AvailabilityStatus = "busy"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// AlumniExpertise is the single expertise record of an alumni user.
type AlumniExpertise struct {
	ID                 string             `db:"id" json:"id"`
	UserID             string             `db:"user_id" json:"user_id"`
	ExpertiseArea      string             `db:"expertise_area" json:"expertise_area"`
	YearsExperience    int                `db:"years_experience" json:"years_experience"`
	CurrentPosition    *string            `db:"current_position" json:"current_position,omitempty"`
	Company            *string            `db:"company" json:"company,omitempty"`
	Skills             StringList         `db:"skills" json:"skills"`
	AvailabilityStatus AvailabilityStatus `db:"availability_status" json:"availability_status"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// ExpertiseRequest sets the caller's expertise. Posting twice updates in place.
type ExpertiseRequest struct {
	ExpertiseArea      string             `json:"expertise_area" validate:"required,min=1,max=255"`
	YearsExperience    int                `json:"years_experience" validate:"gte=0,lte=80"`
	CurrentPosition    *string            `json:"current_position" validate:"omitempty,max=255"`
	Company            *string            `json:"company" validate:"omitempty,max=255"`
	Skills             []string           `json:"skills" validate:"omitempty,max=50,dive,min=1,max=100"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status" validate:"omitempty,oneof=available busy unavailable"`
}

// ExpertiseFilter narrows the expertise directory.
type ExpertiseFilter struct {
	Availability  AvailabilityStatus
	ExpertiseArea string
	Page          int
	PageSize      int
}
