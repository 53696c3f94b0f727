// Package repos contains the repository interfaces the calendar is built against
// It exists to prevent circular dependencies between the service layer and the repo implementations
package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bebevio27-prog/calendar/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is read, updated or deleted does not exist
	ErrEntityNotExisting = fmt.Errorf("cannot update: Entity does not exist")
)

// EventRepo defines a repository that handles storing and querying calendar events
type EventRepo interface {
	// Create creates a new event
	Create(ev *models.Event) error
	// Update updates the given event
	Update(ev *models.Event) error
	// Delete removes the given event - dependent overrides are NOT removed here,
	// the caller is responsible for cascading
	Delete(id uint) error
	// GetByID returns the event with the given ID
	GetByID(id uint) (*models.Event, error)
	// ListByOwner returns all events belonging to the given user, ordered by name
	ListByOwner(ownerID uint) ([]models.Event, error)
}

// OverrideRepo defines a repository that handles the per-date exceptions of recurring events
type OverrideRepo interface {
	// Upsert inserts the override or, when one already exists for the same
	// (eventId, originalDate, ownerId) triple, updates that one in place
	Upsert(o *models.EventOverride) error
	// Delete removes the override with the given ID
	Delete(id uint) error
	// GetByID returns the override with the given ID
	GetByID(id uint) (*models.EventOverride, error)
	// ListByOwner returns all overrides belonging to the given user
	ListByOwner(ownerID uint) ([]models.EventOverride, error)
	// DeleteByEvent removes all overrides referencing the given event - used for
	// the cascade when an event is deleted
	DeleteByEvent(eventID uint) error
}

// UserRepo defines a repository that is able to store, query and authenticate users
type UserRepo interface {
	// Create creates a new user
	Create(u *models.User) error
	// Update updates an existing user
	Update(u *models.User) error
	// Delete removes an existing user from the user storage
	Delete(id uint) error
	// GetByID returns the user with the given ID
	GetByID(id uint) (*models.User, error)
	// GetByEmail returns the user registered under the given e-mail address
	GetByEmail(email string) (*models.User, error)
	// GetByCredentials returns the user which has the given e-mail address and password - this is used for login
	GetByCredentials(email string, password string) (*models.User, error)
}

// SessionRepo stores information about active API sessions
type SessionRepo interface {
	// CreateFor creates a new session for the given user ID
	CreateFor(userID uint) (*models.Session, error)
	// GetByID returns the session associated with the given session ID and extends it's expiry if requested
	GetByID(sessionID string, extend bool) (*models.Session, error)
	// Delete removes a session from the session storage
	Delete(sessionID string) error
}

// -- Helpers for SQLX repos -------------------------------------------------------------------------------------------

// DoRollback rolls back a transaction and catches any error resulting from it while appending the original error
func DoRollback(tx *sqlx.Tx, originalError error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("doRollback: Transaction rollback failed: %v; Recent error: %v", err, originalError)
	}
	return originalError
}
