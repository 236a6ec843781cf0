package service

import (
	"fmt"

	"github.com/noah-isme/nextstep-api/internal/models"
)

// Notification actions understood by the template helpers.
const (
	ActionCreated   = "created"
	ActionApplied   = "applied"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionDeadline  = "deadline"
	ActionSupported = "supported"
	ActionFunded    = "funded"
	ActionRequested = "requested"
	ActionAccepted  = "accepted"
	ActionReceived  = "application"
)

var scholarshipMessages = map[string]string{
	ActionCreated:  "New scholarship opportunity: %s",
	ActionApplied:  "A new application was submitted for %s",
	ActionApproved: "Congratulations! Your application for %s has been approved",
	ActionRejected: "Your application for %s has been rejected",
	ActionDeadline: "Reminder: %s application deadline is approaching",
}

var projectMessages = map[string]string{
	ActionSupported: "Your project %s has received support",
	ActionFunded:    "Congratulations! Your project %s has been fully funded",
}

var mentorshipMessages = map[string]string{
	ActionRequested: "%s has requested mentorship",
	ActionAccepted:  "%s has accepted your mentorship request",
	ActionRejected:  "%s has declined your mentorship request",
}

var researchMessages = map[string]string{
	ActionReceived: "A new application was submitted for %s",
	ActionAccepted: "You have joined the research collaboration %s",
	ActionRejected: "Your application to %s was not accepted",
}

// ScholarshipNotice builds a scholarship notification for userID.
func ScholarshipNotice(userID, title, action string, data map[string]interface{}) models.CreateNotificationRequest {
	priority := models.PriorityNormal
	if action == ActionDeadline {
		priority = models.PriorityHigh
	}
	return notice(userID, "Scholarship Update", models.NotificationScholarship, priority, scholarshipMessages, "Scholarship update: %s", title, action, data)
}

// ProjectNotice builds a project notification for userID.
func ProjectNotice(userID, title, action string, data map[string]interface{}) models.CreateNotificationRequest {
	priority := models.PriorityNormal
	if action == ActionFunded {
		priority = models.PriorityHigh
	}
	return notice(userID, "Project Update", models.NotificationProject, priority, projectMessages, "Project update: %s", title, action, data)
}

// MentorshipNotice builds a mentorship notification; name is the other party.
func MentorshipNotice(userID, name, action string, data map[string]interface{}) models.CreateNotificationRequest {
	return notice(userID, "Mentorship Update", models.NotificationMentorship, models.PriorityNormal, mentorshipMessages, "Mentorship update with %s", name, action, data)
}

// ResearchNotice builds a research collaboration notification. The type enum
// has no research member, so these are delivered as system notifications.
func ResearchNotice(userID, title, action string, data map[string]interface{}) models.CreateNotificationRequest {
	return notice(userID, "Research Collaboration Update", models.NotificationSystem, models.PriorityNormal, researchMessages, "Research update: %s", title, action, data)
}

func notice(userID, heading string, kind models.NotificationType, priority models.NotificationPriority, messages map[string]string, fallback, subject, action string, data map[string]interface{}) models.CreateNotificationRequest {
	format, ok := messages[action]
	if !ok {
		format = fallback
	}
	payload := map[string]interface{}{"action": action}
	for k, v := range data {
		payload[k] = v
	}
	return models.CreateNotificationRequest{
		UserID:   userID,
		Title:    heading,
		Message:  fmt.Sprintf(format, subject),
		Type:     kind,
		Priority: priority,
		Data:     payload,
	}
}
