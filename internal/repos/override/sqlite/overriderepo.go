// Package sqlite provides an override repository that stores its data inside a SQLite database
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
	overrideFields = `eventId, originalDate, newStartTime, newEndTime, cancelled, ownerId, createdAt, updatedAt`
)

// OverrideRepo is a repository that stores the per-date exceptions of recurring events inside a SQLite database
type OverrideRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new override repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *OverrideRepo {
	return &OverrideRepo{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the override or updates the one already existing for the same
// (eventId, originalDate, ownerId) triple. The lookup and the write run inside one
// transaction so that two racing upserts cannot create a duplicate
func (r *OverrideRepo) Upsert(o *models.EventOverride) error {
	r.logger.WithFields(logrus.Fields{
		log.FldEvent: o.EventID,
		log.FldDate:  o.OriginalDate,
	}).Debug("Upserting override")
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	query := `SELECT id, createdAt FROM EventOverrides WHERE eventId = ? AND originalDate = ? AND ownerId = ?`
	var existing struct {
		ID        uint      `db:"id"`
		CreatedAt time.Time `db:"createdAt"`
	}
	err = tx.Get(&existing, query, o.EventID, o.OriginalDate, o.OwnerID)
	if err != nil && err != sql.ErrNoRows {
		return repos.DoRollback(tx, err)
	}
	if err == sql.ErrNoRows {
		query = fmt.Sprintf(
			"INSERT INTO EventOverrides(%s) VALUES(?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))",
			overrideFields,
		)
		res, err := tx.Exec(query, o.EventID, o.OriginalDate, o.NewStartTime, o.NewEndTime, o.Cancelled, o.OwnerID)
		if err != nil {
			return repos.DoRollback(tx, err)
		}
		var id int64
		if id, err = res.LastInsertId(); err != nil {
			return repos.DoRollback(tx, err)
		}
		o.ID = uint(id)
		o.CreatedAt = time.Now()
	} else {
		query = `UPDATE EventOverrides SET newStartTime = ?, newEndTime = ?, cancelled = ?,
            updatedAt = datetime('now') WHERE id = ?`
		if _, err = tx.Exec(query, o.NewStartTime, o.NewEndTime, o.Cancelled, existing.ID); err != nil {
			return repos.DoRollback(tx, err)
		}
		// The row keeps its original creation date
		o.ID = existing.ID
		o.CreatedAt = existing.CreatedAt
	}
	o.UpdatedAt = time.Now()
	return tx.Commit()
}

// Delete removes the override with the given ID
func (r *OverrideRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting override")
	query := "DELETE FROM EventOverrides WHERE id = ?"
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

// GetByID returns the override with the given ID
func (r *OverrideRepo) GetByID(id uint) (*models.EventOverride, error) {
	query := fmt.Sprintf("SELECT id, %s FROM EventOverrides WHERE id = ?", overrideFields)
	var o models.EventOverride
	err := r.db.Get(&o, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &o, nil
}

// ListByOwner returns all overrides belonging to the given user
func (r *OverrideRepo) ListByOwner(ownerID uint) ([]models.EventOverride, error) {
	r.logger.WithField(log.FldOwner, ownerID).Debug("Listing overrides")
	query := fmt.Sprintf("SELECT id, %s FROM EventOverrides WHERE ownerId = ?", overrideFields)
	var ret []models.EventOverride
	err := r.db.Select(&ret, query, ownerID)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// DeleteByEvent removes all overrides referencing the given event
func (r *OverrideRepo) DeleteByEvent(eventID uint) error {
	r.logger.WithField(log.FldEvent, eventID).Debug("Deleting overrides of event")
	_, err := r.db.Exec("DELETE FROM EventOverrides WHERE eventId = ?", eventID)
	return err
}
