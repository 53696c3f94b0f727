// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bebevio27-prog/calendar/internal/log"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	"github.com/jmoiron/sqlx"
)

const (
	eventFields = `name, description, color, ownerId, isRecurring, date, startTime, endTime, schedule, createdAt, updatedAt`
)

// EventRepo is a repository that stores calendar events inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new event
func (r *EventRepo) Create(ev *models.Event) error {
	r.logger.WithField("name", ev.Name).Debug("Adding new event")
	query := fmt.Sprintf(
		"INSERT INTO Events(%s) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))",
		eventFields,
	)
	res, err := r.db.Exec(query,
		ev.Name, ev.Description, ev.Color, ev.OwnerID, ev.IsRecurring, ev.Date, ev.StartTime, ev.EndTime, ev.Schedule,
	)
	if err != nil {
		return err
	}
	// Setting the dates like this should be enough for now
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		ev.ID = uint(id)
	}
	return err
}

// Update updates the given event
func (r *EventRepo) Update(ev *models.Event) error {
	r.logger.WithField(log.FldID, ev.ID).Debug("Updating event")
	query := `UPDATE Events SET name = ?, description = ?, color = ?, isRecurring = ?, date = ?, startTime = ?,
        endTime = ?, schedule = ?, updatedAt = datetime('now') WHERE id = ?`
	res, err := r.db.Exec(query,
		ev.Name, ev.Description, ev.Color, ev.IsRecurring, ev.Date, ev.StartTime, ev.EndTime, ev.Schedule, ev.ID,
	)
	if err != nil {
		return err
	}
	ev.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes the given event. Overrides referencing it stay untouched - the service layer cascades
func (r *EventRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting event")
	query := "DELETE FROM Events WHERE id = ?"
	res, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// GetByID returns the event with the given ID
func (r *EventRepo) GetByID(id uint) (*models.Event, error) {
	r.logger.WithField(log.FldID, id).Debug("Loading event")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE id = ?", eventFields)
	var ev models.Event
	err := r.db.Get(&ev, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &ev, nil
}

// ListByOwner returns all events belonging to the given user, ordered by name
func (r *EventRepo) ListByOwner(ownerID uint) ([]models.Event, error) {
	r.logger.WithField(log.FldOwner, ownerID).Debug("Listing events")
	query := fmt.Sprintf("SELECT id, %s FROM Events WHERE ownerId = ? ORDER BY name", eventFields)
	var ret []models.Event
	err := r.db.Select(&ret, query, ownerID)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
