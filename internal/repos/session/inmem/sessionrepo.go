// Package inmem provides a session repository that holds the session data in-memory.
// Sessions do not survive a restart - users simply log in again
package inmem

import (
	"math/rand"
	"time"

	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
)

const (
	// How long does a session last after the last update?
	expireMinutes = 60
	// Length of the generated session tokens
	tokenLength = 64
)

// request is a generic session request sent over one of the repo's channels to execute functions
// inside the control goroutine
type request struct {
	sessionID string
	userID    uint
	extend    bool
	answer    chan<- response
}

// response answers a session request
type response struct {
	session *models.Session
	err     error
}

// SessionRepo is a session repository that stores the session data in-memory.
// All access is serialized through a single control goroutine, so the repo is safe
// for concurrent use without locking
type SessionRepo struct {
	// create is a channel to trigger session creation
	create chan<- request
	// get is a channel to request a session by ID (and to extend it optionally)
	get chan<- request
	// del is a channel to request a session to be deleted
	del chan<- request
}

// New creates a new session repository instance
func New() *SessionRepo {
	repo := &SessionRepo{}
	// Spin up the control goroutine
	c := make(chan request)
	g := make(chan request)
	d := make(chan request)
	go repo.control(c, g, d)
	repo.create = c
	repo.get = g
	repo.del = d
	return repo
}

const tokenChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var randSrc = rand.New(rand.NewSource(time.Now().UnixNano()))

// newToken creates a random session token
func newToken() string {
	b := make([]byte, tokenLength)
	for i := range b {
		b[i] = tokenChars[randSrc.Intn(len(tokenChars))]
	}
	return string(b)
}

// control is the control goroutine that runs endlessly waiting for requests for managing sessions
func (r *SessionRepo) control(create <-chan request, get <-chan request, del <-chan request) {
	sessions := map[string]*models.Session{}
	// Purge all expired sessions about once a minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case req := <-create:
			sess := models.Session{
				ID:        newToken(),
				UserID:    req.userID,
				ExpiresAt: time.Now().Add(time.Minute * expireMinutes),
			}
			sessions[sess.ID] = &sess
			copy := sess
			req.answer <- response{session: &copy}
		case req := <-get:
			sess, ok := sessions[req.sessionID]
			if !ok {
				req.answer <- response{err: repos.ErrEntityNotExisting}
				continue
			}
			if sess.Expired() {
				delete(sessions, req.sessionID)
				req.answer <- response{err: repos.ErrEntityNotExisting}
				continue
			}
			if req.extend {
				sess.ExpiresAt = time.Now().Add(time.Minute * expireMinutes)
			}
			copy := *sess
			req.answer <- response{session: &copy}
		case req := <-del:
			delete(sessions, req.sessionID)
			req.answer <- response{}
		case <-ticker.C:
			var toPurge []string
			for key, sess := range sessions {
				if sess.Expired() {
					toPurge = append(toPurge, key)
				}
			}
			for _, key := range toPurge {
				delete(sessions, key)
			}
		}
	}
}

func send(sessionID string, userID uint, extend bool, channel chan<- request) response {
	answer := make(chan response)
	channel <- request{
		sessionID: sessionID,
		userID:    userID,
		extend:    extend,
		answer:    answer,
	}
	return <-answer
}

// CreateFor creates a new session for the given user ID
func (r *SessionRepo) CreateFor(userID uint) (*models.Session, error) {
	resp := send("", userID, false, r.create)
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.session, nil
}

// GetByID returns the session associated with the given session ID and extends it's expiry if requested
func (r *SessionRepo) GetByID(sessionID string, extend bool) (*models.Session, error) {
	resp := send(sessionID, 0, extend, r.get)
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.session, nil
}

// Delete removes a session from the session storage
func (r *SessionRepo) Delete(sessionID string) error {
	resp := send(sessionID, 0, false, r.del)
	return resp.err
}
