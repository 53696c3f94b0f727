// Package sqlite provides a user repository that stores its data inside a SQLite database
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
	userFields = `email, name, passwordHash, createdAt, updatedAt`
)

// UserRepo is a repository that stores the registered users inside a SQLite database
type UserRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new user repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepo) Create(u *models.User) error {
	r.logger.WithField("email", u.Email).Debug("Adding new user")
	query := fmt.Sprintf("INSERT INTO Users(%s) VALUES(?, ?, ?, datetime('now'), datetime('now'))", userFields)
	res, err := r.db.Exec(query, u.Email, u.Name, u.PasswordHash)
	if err != nil {
		return err
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	var id int64
	if id, err = res.LastInsertId(); err == nil {
		u.ID = uint(id)
	}
	return err
}

// Update updates an existing user
func (r *UserRepo) Update(u *models.User) error {
	r.logger.WithField(log.FldID, u.ID).Debug("Updating user")
	query := `UPDATE Users SET email = ?, name = ?, passwordHash = ?, updatedAt = datetime('now') WHERE id = ?`
	res, err := r.db.Exec(query, u.Email, u.Name, u.PasswordHash, u.ID)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	var num int64
	if num, err = res.RowsAffected(); err == nil {
		if num == 0 {
			return repos.ErrEntityNotExisting
		}
	}
	return err
}

// Delete removes an existing user from the user storage
func (r *UserRepo) Delete(id uint) error {
	r.logger.WithField(log.FldID, id).Debug("Deleting user")
	res, err := r.db.Exec("DELETE FROM Users WHERE id = ?", id)
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

// GetByID returns the user with the given ID
func (r *UserRepo) GetByID(id uint) (*models.User, error) {
	query := fmt.Sprintf("SELECT id, %s FROM Users WHERE id = ?", userFields)
	var u models.User
	err := r.db.Get(&u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user registered under the given e-mail address
func (r *UserRepo) GetByEmail(email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT id, %s FROM Users WHERE email = ?", userFields)
	var u models.User
	err := r.db.Get(&u, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	return &u, nil
}

// GetByCredentials returns the user which has the given e-mail address and password - this is used for login.
// A nil user without an error means that the credentials did not match
func (r *UserRepo) GetByCredentials(email string, password string) (*models.User, error) {
	u, err := r.GetByEmail(email)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, nil
		}
		return nil, err
	}
	if err := u.CheckPassword(password); err != nil {
		return nil, nil
	}
	return u, nil
}
