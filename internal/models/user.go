package models

import (
	"fmt"
	"time"

	"github.com/elithrar/simple-scrypt"
)

// User defines a registered user of the calendar. Events and overrides are scoped
// to the user that created them
type User struct {
	// Internal user ID
	ID uint `db:"id" json:"id"`
	// The e-mail address used to log-in - unique across all users
	Email string `db:"email" json:"email"`
	// The display name shown in the UI
	Name string `db:"name" json:"name"`
	// The hashed password for authentication
	PasswordHash string `db:"passwordHash" json:"-"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}

// SetPassword sets a new password creating a password hash from the incoming password and storing it in the user's
// PasswordHash property
func (u *User) SetPassword(pass string) error {
	hash, err := scrypt.GenerateFromPassword([]byte(pass), scrypt.DefaultParams)
	if err != nil {
		return fmt.Errorf("SetPassword: Error during password hashing: %v", err)
	}
	// The library already uses a string encoding here - so there is no need to encode further
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword checks if the given password corresponds to the hash stored in the user struct.
// It returns an error if the password does not match or an error occurs when loading the password hash from the user
func (u *User) CheckPassword(pass string) error {
	return scrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pass))
}
