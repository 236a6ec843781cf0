package models

import "time"

// NotificationType groups notifications by originating feature.
type NotificationType string

const (
	NotificationScholarship NotificationType = "scholarship"
	NotificationProject     NotificationType = "project"
	NotificationMentorship  NotificationType = "mentorship"
	NotificationSystem      NotificationType = "system"
)

// NotificationPriority orders notifications for display.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is delivered to a single user.
type Notification struct {
	ID        string               `db:"id" json:"id"`
	UserID    string               `db:"user_id" json:"user_id"`
	Title     string               `db:"title" json:"title"`
	Message   string               `db:"message" json:"message"`
	Type      NotificationType     `db:"type" json:"type"`
	Priority  NotificationPriority `db:"priority" json:"priority"`
	IsRead    bool                 `db:"is_read" json:"is_read"`
	Data      JSONMap              `db:"data" json:"data"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// CreateNotificationRequest creates a notification for UserID. Handlers force UserID to the caller.
type CreateNotificationRequest struct {
	UserID   string                 `json:"-" validate:"required"`
	Title    string                 `json:"title" validate:"required,min=1,max=255"`
	Message  string                 `json:"message" validate:"required,min=1,max=2000"`
	Type     NotificationType       `json:"type" validate:"required,oneof=scholarship project mentorship system"`
	Priority NotificationPriority   `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Data     map[string]interface{} `json:"data"`
}

// UpdateNotificationRequest toggles the read flag.
type UpdateNotificationRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

// NotificationFilter narrows the caller's inbox.
type NotificationFilter struct {
	UnreadOnly bool
	Type       NotificationType
	Page       int
	PageSize   int
}

// NotificationStats summarises the caller's inbox.
type NotificationStats struct {
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
	ByType map[string]int `json:"by_type"`
}

// NotificationEvent is the payload published to the event bus.
type NotificationEvent struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Type      NotificationType     `json:"type"`
	Priority  NotificationPriority `json:"priority"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Data      JSONMap              `json:"data,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
