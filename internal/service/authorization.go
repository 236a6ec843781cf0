package service

import (
	"github.com/noah-isme/nextstep-api/internal/models"
	appErrors "github.com/noah-isme/nextstep-api/pkg/errors"
)

// Caller identifies the authenticated user on whose behalf a service acts.
type Caller struct {
	ID   string
	Role models.UserRole
}

// CallerFromClaims extracts the caller from validated token claims.
func CallerFromClaims(claims *models.JWTClaims) Caller {
	if claims == nil {
		return Caller{}
	}
	return Caller{ID: claims.UserID, Role: claims.Role}
}

// Self allows only the owner and reports Forbidden otherwise.
func Self(caller Caller, ownerID string) error {
	if caller.ID == "" || caller.ID != ownerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner may perform this action")
	}
	return nil
}

// SelfOrHidden allows only the owner and reports NotFound otherwise so the
// existence of the resource is not revealed.
func SelfOrHidden(caller Caller, ownerID, resource string) error {
	if caller.ID == "" || caller.ID != ownerID {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return nil
}

// RoleEquals requires the caller to hold role.
func RoleEquals(caller Caller, role models.UserRole) error {
	if caller.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, "requires "+string(role)+" role")
	}
	return nil
}

// Participant allows the lead researcher or an active participant.
func Participant(caller Caller, collaboration *models.ResearchCollaboration, isMember bool) error {
	if collaboration != nil && collaboration.LeadResearcherID == caller.ID {
		return nil
	}
	if isMember {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only collaboration participants may access updates")
}
