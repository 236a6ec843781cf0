package models

import "time"

// CollaborationStatus is the lifecycle of a research collaboration.
type CollaborationStatus string

const (
	CollaborationOpen       CollaborationStatus = "open"
	CollaborationInProgress CollaborationStatus = "in_progress"
	CollaborationCompleted  CollaborationStatus = "completed"
	CollaborationCancelled  CollaborationStatus = "cancelled"
)

// CollaborationApplicationStatus is the review state of an application.
type CollaborationApplicationStatus string

const (
	CollabAppPending     CollaborationApplicationStatus = "pending"
	CollabAppUnderReview CollaborationApplicationStatus = "under_review"
	CollabAppAccepted    CollaborationApplicationStatus = "accepted"
	CollabAppRejected    CollaborationApplicationStatus = "rejected"
)

// Final reports whether no further review is allowed.
func (s CollaborationApplicationStatus) Final() bool {
	return s == CollabAppAccepted || s == CollabAppRejected
}

const (
	MinCollaborators       = 5
	MaxCollaborators       = 10
	DefaultParticipantRole = "researcher"
)

// ResearchCollaboration is led by an alumni lead researcher.
type ResearchCollaboration struct {
	ID                   string              `db:"id" json:"id"`
	LeadResearcherID     string              `db:"lead_researcher_id" json:"lead_researcher_id"`
	Title                string              `db:"title" json:"title"`
	Description          string              `db:"description" json:"description"`
	ResearchArea         string              `db:"research_area" json:"research_area"`
	Objectives           string              `db:"objectives" json:"objectives"`
	Methodology          *string             `db:"methodology" json:"methodology,omitempty"`
	ExpectedOutcomes     *string             `db:"expected_outcomes" json:"expected_outcomes,omitempty"`
	Timeline             *string             `db:"timeline" json:"timeline,omitempty"`
	MaxCollaborators     int                 `db:"max_collaborators" json:"max_collaborators"`
	CurrentCollaborators int                 `db:"current_collaborators" json:"current_collaborators"`
	Budget               *float64            `db:"budget" json:"budget,omitempty"`
	Requirements         *string             `db:"requirements" json:"requirements,omitempty"`
	Deliverables         *string             `db:"deliverables" json:"deliverables,omitempty"`
	Status               CollaborationStatus `db:"status" json:"status"`
	CreatedAt            time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at" json:"updated_at"`
}

// Full reports whether no more participants fit.
func (c *ResearchCollaboration) Full() bool {
	return c.CurrentCollaborators >= c.MaxCollaborators
}

// CollaborationApplication links an applicant to a collaboration.
type CollaborationApplication struct {
	ID                   string                         `db:"id" json:"id"`
	CollaborationID      string                         `db:"collaboration_id" json:"collaboration_id"`
	ApplicantID          string                         `db:"applicant_id" json:"applicant_id"`
	ApplicationLetter    string                         `db:"application_letter" json:"application_letter"`
	ResearchExperience   *string                        `db:"research_experience" json:"research_experience,omitempty"`
	RelevantSkills       StringList                     `db:"relevant_skills" json:"relevant_skills"`
	AvailabilityHours    int                            `db:"availability_hours" json:"availability_hours"`
	ProposedContribution *string                        `db:"proposed_contribution" json:"proposed_contribution,omitempty"`
	Status               CollaborationApplicationStatus `db:"status" json:"status"`
	ReviewedBy           *string                        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time                     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes          *string                        `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt            time.Time                      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time                      `db:"updated_at" json:"updated_at"`
}

// CollaborationParticipant is a member of a collaboration.
type CollaborationParticipant struct {
	ID              string    `db:"id" json:"id"`
	CollaborationID string    `db:"collaboration_id" json:"collaboration_id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Role            string    `db:"role" json:"role"`
	Status          string    `db:"status" json:"status"`
	JoinedAt        time.Time `db:"joined_at" json:"joined_at"`
}

// ResearchUpdate is a progress post inside a collaboration.
type ResearchUpdate struct {
	ID              string    `db:"id" json:"id"`
	CollaborationID string    `db:"collaboration_id" json:"collaboration_id"`
	AuthorID        string    `db:"author_id" json:"author_id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	UpdateType      string    `db:"update_type" json:"update_type"`
	IsPublic        bool      `db:"is_public" json:"is_public"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCollaborationRequest is submitted by alumni.
type CreateCollaborationRequest struct {
	Title            string   `json:"title" validate:"required,min=1,max=255"`
	Description      string   `json:"description" validate:"required,min=10,max=5000"`
	ResearchArea     string   `json:"research_area" validate:"required,min=1,max=255"`
	Objectives       string   `json:"objectives" validate:"required,min=10,max=5000"`
	Methodology      *string  `json:"methodology" validate:"omitempty,max=5000"`
	ExpectedOutcomes *string  `json:"expected_outcomes" validate:"omitempty,max=5000"`
	Timeline         *string  `json:"timeline" validate:"omitempty,max=255"`
	MaxCollaborators *int     `json:"max_collaborators" validate:"omitempty,min=5,max=10"`
	Budget           *float64 `json:"budget" validate:"omitempty,gte=0"`
	Requirements     *string  `json:"requirements" validate:"omitempty,max=5000"`
	Deliverables     *string  `json:"deliverables" validate:"omitempty,max=5000"`
}

// CollaborationFilter narrows the public listing.
type CollaborationFilter struct {
	Status       CollaborationStatus
	ResearchArea string
	Page         int
	PageSize     int
}

// UpdateCollaborationStatusRequest is issued by the lead researcher.
type UpdateCollaborationStatusRequest struct {
	Status CollaborationStatus `json:"status" validate:"required,oneof=open in_progress completed cancelled"`
}

// ApplyCollaborationRequest is a researcher's application.
type ApplyCollaborationRequest struct {
	ApplicationLetter    string   `json:"application_letter" validate:"required,min=50,max=5000"`
	ResearchExperience   *string  `json:"research_experience" validate:"omitempty,max=5000"`
	RelevantSkills       []string `json:"relevant_skills" validate:"omitempty,max=30,dive,min=1,max=100"`
	AvailabilityHours    *int     `json:"availability_hours" validate:"omitempty,min=1,max=80"`
	ProposedContribution *string  `json:"proposed_contribution" validate:"omitempty,max=5000"`
}

// ReviewCollaborationApplicationRequest is the lead's decision.
type ReviewCollaborationApplicationRequest struct {
	Status      CollaborationApplicationStatus `json:"status" validate:"required,oneof=under_review accepted rejected"`
	ReviewNotes *string                        `json:"review_notes" validate:"omitempty,max=5000"`
}

// AddParticipantRequest lets the lead add a member directly.
type AddParticipantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"omitempty,min=1,max=50"`
}

// CreateResearchUpdateRequest posts an update.
type CreateResearchUpdateRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=255"`
	Content    string `json:"content" validate:"required,min=1,max=10000"`
	UpdateType string `json:"update_type" validate:"omitempty,oneof=progress milestone issue solution"`
	IsPublic   *bool  `json:"is_public"`
}

// ReviewOutcome is returned after reviewing a collaboration application.
type ReviewOutcome struct {
	Application *CollaborationApplication `json:"application"`
	Participant *CollaborationParticipant `json:"participant,omitempty"`
}

// ResearchStats summarises collaborations.
type ResearchStats struct {
	TotalCollaborations  int `db:"total_collaborations" json:"total_collaborations"`
	OpenCollaborations   int `db:"open_collaborations" json:"open_collaborations"`
	ActiveCollaborations int `db:"active_collaborations" json:"active_collaborations"`
	TotalParticipants    int `db:"total_participants" json:"total_participants"`
	TotalApplications    int `db:"total_applications" json:"total_applications"`
}

// AreaPopularity ranks research areas.
type AreaPopularity struct {
	ResearchArea       string `db:"research_area" json:"research_area"`
	CollaborationCount int    `db:"collaboration_count" json:"collaboration_count"`
	ParticipantCount   int    `db:"participant_count" json:"participant_count"`
}
