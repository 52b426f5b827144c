package suggestions

import (
	"fmt"
	"time"

	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// DenyReason names why a submission was rejected
type DenyReason string

const (
	DenyCooldown         DenyReason = "cooldown"
	DenyStaffOnly        DenyReason = "staffOnly"
	DenyLocked           DenyReason = "locked"
	DenyNotAllowed       DenyReason = "notAllowed"
	DenyBlocked          DenyReason = "blocked"
	DenyWrongChannelType DenyReason = "wrongChannelType"
)

// Denial describes a failed policy check. RetryAfter is only set for
// cooldown denials.
type Denial struct {
	Reason     DenyReason
	RetryAfter time.Duration
}

// Message renders the user-facing denial text
func (d *Denial) Message() string {
	switch d.Reason {
	case DenyCooldown:
		return fmt.Sprintf("You are on cooldown in this channel. Try again in %s.", d.RetryAfter.Round(time.Second))
	case DenyStaffOnly:
		return "Only staff members can submit to this channel."
	case DenyLocked:
		return "This suggestion channel is currently locked."
	case DenyNotAllowed:
		return "You do not have any of the roles required to submit here."
	case DenyBlocked:
		return "You are blocked from submitting suggestions to this channel."
	case DenyWrongChannelType:
		return "Suggestions cannot be submitted to this channel."
	default:
		return "You cannot submit a suggestion here."
	}
}

// Submitter describes the member attempting to submit
type Submitter struct {
	UserID  string
	RoleIDs []string
	IsAdmin bool
}

// IsStaff reports whether the submitter counts as staff: an admin, or a
// member of any configured staff role
func (s Submitter) IsStaff(cfg *models.GuildConfig) bool {
	if s.IsAdmin {
		return true
	}
	for _, id := range s.RoleIDs {
		if cfg.IsStaffRole(id) {
			return true
		}
	}
	return false
}

// CanSubmit evaluates whether a member may submit to a channel. It is a pure
// check; the caller decides whether to message the user or delete their
// input. Guild admins bypass the cooldown, staff-only, locked, allowed-role
// and blocked-role checks, but the channel-type gate is a structural
// constraint that applies to everyone.
func CanSubmit(sub Submitter, rt *ChannelRuntime, cfg *models.GuildConfig) *Denial {
	if !sub.IsAdmin {
		if remaining := rt.CooldownRemaining(sub.UserID); remaining > 0 {
			return &Denial{Reason: DenyCooldown, RetryAfter: remaining}
		}

		if rt.Kind() == models.ChannelKindStaff && !sub.IsStaff(cfg) {
			return &Denial{Reason: DenyStaffOnly}
		}

		if rt.Locked() {
			return &Denial{Reason: DenyLocked}
		}

		if rt.HasAllowedRoles() && !rt.MemberAllowed(sub.RoleIDs) {
			return &Denial{Reason: DenyNotAllowed}
		}

		if rt.MemberBlocked(sub.RoleIDs) {
			return &Denial{Reason: DenyBlocked}
		}
	}

	if !rt.Kind().AcceptsSuggestions() {
		return &Denial{Reason: DenyWrongChannelType}
	}

	return nil
}
