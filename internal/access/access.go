// Package access resolves what a user may do with a contact. Every read or
// write of a contact goes through Resolve so that owner, share and expiry
// rules are applied in one place.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// Level is the relationship between a user and a contact.
type Level int

// Access levels, weakest first.
const (
	LevelNone Level = iota
	LevelShared
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelOwner:
		return "OWNER"
	case LevelShared:
		return "SHARED"
	default:
		return "NONE"
	}
}

// Capability is an action on a contact.
type Capability int

// Capabilities checked by the services.
const (
	CapRead Capability = iota
	CapAddMeeting
	CapEdit
	CapDelete
	CapShare
)

func (c Capability) String() string {
	switch c {
	case CapRead:
		return "read"
	case CapAddMeeting:
		return "add meeting"
	case CapEdit:
		return "edit"
	case CapDelete:
		return "delete"
	case CapShare:
		return "share"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Access is the resolved relationship. Contact is always set; Share is set
// only for LevelShared.
type Access struct {
	Level      Level
	Permission string
	Contact    *types.Contact
	Share      *types.Share
}

// Can reports whether the access grants capability c. Owners can do
// anything. VIEW reads; VIEW_ADD reads and logs meetings.
func (a Access) Can(c Capability) bool {
	switch a.Level {
	case LevelOwner:
		return true
	case LevelShared:
		switch c {
		case CapRead:
			return true
		case CapAddMeeting:
			return a.Permission == types.PermissionViewAdd
		}
	}
	return false
}

func (a Access) CanRead() bool       { return a.Can(CapRead) }
func (a Access) CanAddMeeting() bool { return a.Can(CapAddMeeting) }
func (a Access) CanEdit() bool       { return a.Can(CapEdit) }
func (a Access) CanDelete() bool     { return a.Can(CapDelete) }
func (a Access) CanShare() bool      { return a.Can(CapShare) }

// IsOwner reports whether the access is LevelOwner.
func (a Access) IsOwner() bool {
	return a.Level == LevelOwner
}

// Require returns ErrForbidden when the access lacks capability c.
func (a Access) Require(c Capability) error {
	if a.Can(c) {
		return nil
	}
	return fmt.Errorf("%s: %w", c, types.ErrForbidden)
}

// Resolve determines the access userID has to contactID inside tx at now.
//
//   - contact missing: ErrNotFound
//   - owner: LevelOwner
//   - no share for (contact, user): ErrAccessDenied
//   - share expired at now: ErrShareExpired
//   - otherwise LevelShared with the share's permission
func Resolve(ctx context.Context, tx types.Tx, userID, contactID string, now time.Time) (Access, error) {
	contact, err := tx.Contacts().Get(ctx, contactID)
	if err != nil {
		if errors.Is(err, types.ErrInvalidID) {
			return Access{}, types.ErrNotFound
		}
		return Access{}, err
	}
	if contact.OwnerID == userID {
		return Access{Level: LevelOwner, Contact: contact}, nil
	}

	share, err := tx.Shares().GetByContactAndRecipient(ctx, contactID, userID)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		return Access{}, types.ErrAccessDenied
	}
	if err != nil {
		return Access{}, err
	}
	if share.IsExpired(now) {
		return Access{}, types.ErrShareExpired
	}
	return Access{
		Level:      LevelShared,
		Permission: share.Permission,
		Contact:    contact,
		Share:      share,
	}, nil
}

// Authorize resolves access and requires capability c. Resolution errors
// are returned unchanged; a resolved user lacking c gets ErrForbidden.
func Authorize(ctx context.Context, tx types.Tx, userID, contactID string, now time.Time, c Capability) (Access, error) {
	a, err := Resolve(ctx, tx, userID, contactID, now)
	if err != nil {
		return Access{}, err
	}
	if err := a.Require(c); err != nil {
		return Access{}, err
	}
	return a, nil
}

// Evaluator resolves access in its own read-only transaction.
type Evaluator struct {
	store types.Store
	clock types.Clock
}

// NewEvaluator creates an Evaluator. A nil clock uses time.Now.
func NewEvaluator(store types.Store, clock types.Clock) *Evaluator {
	return &Evaluator{store: store, clock: clock}
}

// Resolve reads the clock once and resolves userID's access to contactID.
func (e *Evaluator) Resolve(ctx context.Context, userID, contactID string) (Access, error) {
	now := e.clock.Now()
	var a Access
	err := e.store.View(ctx, func(tx types.Tx) error {
		var err error
		a, err = Resolve(ctx, tx, userID, contactID, now)
		return err
	})
	return a, err
}
