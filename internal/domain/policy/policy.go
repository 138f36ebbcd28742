// Package policy holds the fixed authorization rules for each entity kind.
// Every function is pure: the decision depends only on the caller identity,
// the operation and the entity snapshot.
package policy

import (
	"fmt"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// Kind is the entity type a rule applies to.
type Kind string

const (
	KindProfile Kind = "profile"
	KindEvent   Kind = "event"
	KindRSVP    Kind = "rsvp"
	KindReview  Kind = "review"
)

// Operation is a row-level action.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Decision is the evaluator's verdict.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// CanPerform decides whether id may apply op to the snapshot of kind.
// A snapshot of the wrong type is denied.
func CanPerform(id entities.Identity, kind Kind, op Operation, snapshot any) Decision {
	switch kind {
	case KindProfile:
		p, ok := snapshot.(*entities.Profile)
		return Decision(ok && p != nil && profileRule(id, op, p))
	case KindEvent:
		e, ok := snapshot.(*entities.Event)
		return Decision(ok && e != nil && eventRule(id, op, e))
	case KindRSVP:
		r, ok := snapshot.(*entities.RSVP)
		return Decision(ok && r != nil && ownedRule(id, op, r.UserID))
	case KindReview:
		r, ok := snapshot.(*entities.Review)
		return Decision(ok && r != nil && ownedRule(id, op, r.UserID))
	}
	return Deny
}

// Authorize is CanPerform returning an Unauthorized error on denial.
func Authorize(id entities.Identity, kind Kind, op Operation, snapshot any) error {
	if CanPerform(id, kind, op, snapshot) == Allow {
		return nil
	}
	return apperrors.NewUnauthorizedError(fmt.Sprintf("not allowed to %s this %s", op, kind))
}

// Profiles are readable by anyone and written only by their owner. There is
// no direct delete; profiles go away with the account.
func profileRule(id entities.Identity, op Operation, p *entities.Profile) bool {
	switch op {
	case OpSelect:
		return true
	case OpInsert, OpUpdate:
		return id.Is(p.ID)
	}
	return false
}

// Events are readable when public or by their organizer; only the organizer
// creates (as themselves), updates and deletes.
func eventRule(id entities.Identity, op Operation, e *entities.Event) bool {
	switch op {
	case OpSelect:
		return e.VisibleTo(id)
	case OpInsert, OpUpdate, OpDelete:
		return id.Is(e.OrganizerID)
	}
	return false
}

// RSVPs and reviews are public reads; only the authoring user writes them.
func ownedRule(id entities.Identity, op Operation, userID string) bool {
	switch op {
	case OpSelect:
		return true
	case OpInsert, OpUpdate, OpDelete:
		return id.Is(userID)
	}
	return false
}
