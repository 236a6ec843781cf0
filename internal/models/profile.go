package models

import "time"

// Profile holds the optional public details attached to a user.
type Profile struct {
	UserID         string     `db:"user_id" json:"user_id"`
	Bio            *string    `db:"bio" json:"bio,omitempty"`
	Skills         StringList `db:"skills" json:"skills"`
	Interests      StringList `db:"interests" json:"interests"`
	Location       *string    `db:"location" json:"location,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	LinkedInURL    *string    `db:"linkedin_url" json:"linkedin_url,omitempty"`
	GithubURL      *string    `db:"github_url" json:"github_url,omitempty"`
	PortfolioURL   *string    `db:"portfolio_url" json:"portfolio_url,omitempty"`
	GraduationYear *int       `db:"graduation_year" json:"graduation_year,omitempty"`
	Company        *string    `db:"company" json:"company,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ProfileRequest is used for both create and update; nil fields are left untouched on update.
type ProfileRequest struct {
	Bio            *string   `json:"bio" validate:"omitempty,max=2000"`
	Skills         *[]string `json:"skills" validate:"omitempty,max=50,dive,min=1,max=100"`
	Interests      *[]string `json:"interests" validate:"omitempty,max=50,dive,min=1,max=100"`
	Location       *string   `json:"location" validate:"omitempty,max=255"`
	Phone          *string   `json:"phone" validate:"omitempty,max=32"`
	LinkedInURL    *string   `json:"linkedin_url" validate:"omitempty,url"`
	GithubURL      *string   `json:"github_url" validate:"omitempty,url"`
	PortfolioURL   *string   `json:"portfolio_url" validate:"omitempty,url"`
	GraduationYear *int      `json:"graduation_year" validate:"omitempty,min=1950,max=2100"`
	Company        *string   `json:"company" validate:"omitempty,max=255"`
}

// Apply copies the non-nil request fields onto p.
func (r ProfileRequest) Apply(p *Profile) {
	if r.Bio != nil {
		p.Bio = r.Bio
	}
	if r.Skills != nil {
		p.Skills = StringList(*r.Skills)
	}
	if r.Interests != nil {
		p.Interests = StringList(*r.Interests)
	}
	if r.Location != nil {
		p.Location = r.Location
	}
	if r.Phone != nil {
		p.Phone = r.Phone
	}
	if r.LinkedInURL != nil {
		p.LinkedInURL = r.LinkedInURL
	}
	if r.GithubURL != nil {
		p.GithubURL = r.GithubURL
	}
	if r.PortfolioURL != nil {
		p.PortfolioURL = r.PortfolioURL
	}
	if r.GraduationYear != nil {
		p.GraduationYear = r.GraduationYear
	}
	if r.Company != nil {
		p.Company = r.Company
	}
}
