package models

import "time"

// ProjectStatus is the funding lifecycle of a student project.
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectFunded     ProjectStatus = "funded"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectRejected   ProjectStatus = "rejected"
)

// AcceptsSupport reports whether supporters may still join.
func (s ProjectStatus) AcceptsSupport() bool {
	return s == ProjectPending || s == ProjectInProgress
}

// Terminal reports whether the project can no longer change status.
func (s ProjectStatus) Terminal() bool {
	return s == ProjectCompleted || s == ProjectRejected
}

// SupportType classifies what an alumni supporter offers.
type SupportType string

const (
	SupportFinancial  SupportType = "financial"
	SupportMentorship SupportType = "mentorship"
	SupportTechnical  SupportType = "technical"
	SupportResources  SupportType = "resources"
	SupportNetworking SupportType = "networking"
)

// Project is a student initiative seeking support.
type Project struct {
	ID               string        `db:"id" json:"id"`
	OwnerID          string        `db:"owner_id" json:"owner_id"`
	Title            string        `db:"title" json:"title"`
	Description      string        `db:"description" json:"description"`
	Category         string        `db:"category" json:"category"`
	FundingGoal      float64       `db:"funding_goal" json:"funding_goal"`
	CurrentFunding   float64       `db:"current_funding" json:"current_funding"`
	FundingType      string        `db:"funding_type" json:"funding_type"`
	Timeline         *string       `db:"timeline" json:"timeline,omitempty"`
	ExpectedOutcomes string        `db:"expected_outcomes" json:"expected_outcomes"`
	TeamMembers      StringList    `db:"team_members" json:"team_members"`
	Status           ProjectStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// Funded reports whether the goal has been met.
func (p *Project) Funded() bool {
	return p.CurrentFunding >= p.FundingGoal
}

// ProjectSupport records one supporter's contribution.
type ProjectSupport struct {
	ID                 string      `db:"id" json:"id"`
	ProjectID          string      `db:"project_id" json:"project_id"`
	SupporterID        string      `db:"supporter_id" json:"supporter_id"`
	SupportType        SupportType `db:"support_type" json:"support_type"`
	SupportAmount      float64     `db:"support_amount" json:"support_amount"`
	SupportDescription string      `db:"support_description" json:"support_description"`
	Status             string      `db:"status" json:"status"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// CountsTowardFunding reports whether the support increments current_funding.
func (s *ProjectSupport) CountsTowardFunding() bool {
	return s.SupportType == SupportFinancial && s.SupportAmount > 0
}

// ProjectSupportView is a support joined with the supporter's display name.
type ProjectSupportView struct {
	ProjectSupport
	SupporterName string `db:"supporter_name" json:"supporter_name"`
}

// CreateProjectRequest is submitted by students.
type CreateProjectRequest struct {
	Title            string   `json:"title" validate:"required,min=1,max=255"`
	Description      string   `json:"description" validate:"required,min=10,max=1000"`
	Category         string   `json:"category" validate:"required,oneof=technology research social-impact healthcare education environment business arts-culture"`
	FundingGoal      float64  `json:"funding_goal" validate:"required,gt=0"`
	FundingType      string   `json:"funding_type" validate:"required,oneof=financial mentorship technical resources networking all"`
	Timeline         *string  `json:"timeline" validate:"omitempty,max=255"`
	ExpectedOutcomes string   `json:"expected_outcomes" validate:"required,min=10,max=500"`
	TeamMembers      []string `json:"team_members" validate:"omitempty,max=20,dive,min=1,max=100"`
}

// UpdateProjectRequest patches a project.
type UpdateProjectRequest struct {
	Title            *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description      *string        `json:"description" validate:"omitempty,min=10,max=1000"`
	Category         *string        `json:"category" validate:"omitempty,oneof=technology research social-impact healthcare education environment business arts-culture"`
	FundingGoal      *float64       `json:"funding_goal" validate:"omitempty,gt=0"`
	FundingType      *string        `json:"funding_type" validate:"omitempty,oneof=financial mentorship technical resources networking all"`
	Timeline         *string        `json:"timeline" validate:"omitempty,max=255"`
	ExpectedOutcomes *string        `json:"expected_outcomes" validate:"omitempty,min=10,max=500"`
	TeamMembers      *[]string      `json:"team_members" validate:"omitempty,max=20,dive,min=1,max=100"`
	Status           *ProjectStatus `json:"status" validate:"omitempty,oneof=pending funded in_progress completed rejected"`
}

// ProjectFilter narrows the public listing.
type ProjectFilter struct {
	Status      ProjectStatus
	Category    string
	FundingType string
	Page        int
	PageSize    int
}

// SupportProjectRequest is an alumni contribution.
type SupportProjectRequest struct {
	SupportType        SupportType `json:"support_type" validate:"required,oneof=financial mentorship technical resources networking"`
	SupportAmount      float64     `json:"support_amount" validate:"gte=0"`
	SupportDescription string      `json:"support_description" validate:"required,min=10,max=500"`
}

// SupportResult bundles the new support with the project state after the write.
type SupportResult struct {
	Support      *ProjectSupport `json:"support"`
	Project      *Project        `json:"project"`
	BecameFunded bool            `json:"became_funded"`
}
