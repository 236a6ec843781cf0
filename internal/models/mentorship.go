package models

import "time"

// MentorshipStatus is the lifecycle state of a mentorship request.
type MentorshipStatus string

const (
	MentorshipPending  MentorshipStatus = "pending"
	MentorshipAccepted MentorshipStatus = "accepted"
	MentorshipRejected MentorshipStatus = "rejected"
)

// Mentorship is a directed request from a mentee to a mentor.
type Mentorship struct {
	ID        string           `db:"id" json:"id"`
	MentorID  string           `db:"mentor_id" json:"mentor_id"`
	MenteeID  string           `db:"mentee_id" json:"mentee_id"`
	Status    MentorshipStatus `db:"status" json:"status"`
	Message   *string          `db:"message" json:"message,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// CreateMentorshipRequest asks mentor_id to mentor the caller.
type CreateMentorshipRequest struct {
	MentorID string  `json:"mentor_id" validate:"required,uuid"`
	Message  *string `json:"message" validate:"omitempty,max=2000"`
}

// UpdateMentorshipRequest is the mentor's answer to a request.
type UpdateMentorshipRequest struct {
	Status  MentorshipStatus `json:"status" validate:"required,oneof=accepted rejected"`
	Message *string          `json:"message" validate:"omitempty,max=2000"`
}
