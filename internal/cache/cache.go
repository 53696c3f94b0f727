// Package cache holds the per-user in-memory working set of events and
// overrides. Each user's scope is loaded from the repositories once per session
// and afterwards kept in step by the service layer: every mutation first writes
// to the repository and only on success patches the snapshot, so a read that
// follows a completed mutation observes the mutated state.
//
// Two mutations overlapping in flight are not serialized against each other -
// the last local patch wins, matching whichever remote write the storage
// applied last. The deployment target is a handful of users editing their own
// calendars, where this window is acceptable.
package cache

import (
	"sync"

	"github.com/bebevio27-prog/calendar/internal/log"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// snapshot is the loaded working set of one user
type snapshot struct {
	events    []models.Event
	overrides []models.EventOverride
	loaded    bool
}

// Cache is the explicit state container the services work against. Its scopes
// run through the lifecycle empty -> loaded -> mutated* -> reset
type Cache struct {
	mu        sync.RWMutex
	events    repos.EventRepo
	overrides repos.OverrideRepo
	logger    *logrus.Entry
	scopes    map[uint]*snapshot
}

// New creates a new cache instance reading through to the given repositories
func New(events repos.EventRepo, overrides repos.OverrideRepo, logger *logrus.Entry) *Cache {
	return &Cache{
		events:    events,
		overrides: overrides,
		logger:    logger,
		scopes:    make(map[uint]*snapshot),
	}
}

// Load fetches the user's events and overrides unless the scope is already
// loaded. A failing fetch does not propagate: the scope is marked loaded with
// empty collections so that the caller renders an empty calendar instead of
// retrying forever - availability over correctness for the read path
func (c *Cache) Load(ctx context.Context, ownerID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.scopes[ownerID]; ok && s.loaded {
		return
	}
	s := &snapshot{loaded: true}
	events, err := c.events.ListByOwner(ownerID)
	if err == nil {
		s.events = events
		s.overrides, err = c.overrides.ListByOwner(ownerID)
	}
	if err != nil {
		c.logger.WithError(err).WithField(log.FldOwner, ownerID).Error("Failed to load calendar data - serving empty state")
		s.events = nil
		s.overrides = nil
	}
	c.scopes[ownerID] = s
}

// Loaded checks if the given user's scope has been loaded
func (c *Cache) Loaded(ownerID uint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scopes[ownerID]
	return ok && s.loaded
}

// Snapshot returns copies of the user's loaded events and overrides. The
// copies share nothing with the cached state, so callers may modify them
// freely. An unloaded scope yields empty collections
func (c *Cache) Snapshot(ownerID uint) ([]models.Event, []models.EventOverride) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scopes[ownerID]
	if !ok {
		return nil, nil
	}
	events := make([]models.Event, len(s.events))
	for i, ev := range s.events {
		if ev.Schedule != nil {
			schedule := make(models.SlotList, len(ev.Schedule))
			copy(schedule, ev.Schedule)
			ev.Schedule = schedule
		}
		events[i] = ev
	}
	overrides := make([]models.EventOverride, len(s.overrides))
	copy(overrides, s.overrides)
	return events, overrides
}

// AddEvent appends a freshly created event to the user's snapshot
func (c *Cache) AddEvent(ownerID uint, ev models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[ownerID]
	if !ok {
		// Nothing loaded yet - the event will arrive with the next Load
		return
	}
	s.events = append(s.events, ev)
}

// PatchEvent replaces the stored version of the given event
func (c *Cache) PatchEvent(ownerID uint, ev models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[ownerID]
	if !ok {
		return
	}
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			return
		}
	}
}

// RemoveEvent drops the event and all overrides referencing it from the user's
// snapshot - the in-memory side of the delete cascade
func (c *Cache) RemoveEvent(ownerID uint, eventID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[ownerID]
	if !ok {
		return
	}
	events := s.events[:0]
	for _, ev := range s.events {
		if ev.ID != eventID {
			events = append(events, ev)
		}
	}
	s.events = events
	overrides := s.overrides[:0]
	for _, o := range s.overrides {
		if o.EventID != eventID {
			overrides = append(overrides, o)
		}
	}
	s.overrides = overrides
}

// PutOverride upserts the override into the user's snapshot, keyed on the
// (eventId, originalDate) pair - mirroring the repository's upsert semantics
func (c *Cache) PutOverride(ownerID uint, o models.EventOverride) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[ownerID]
	if !ok {
		return
	}
	for i := range s.overrides {
		if s.overrides[i].EventID == o.EventID && s.overrides[i].OriginalDate == o.OriginalDate {
			s.overrides[i] = o
			return
		}
	}
	s.overrides = append(s.overrides, o)
}

// RemoveOverride drops the override with the given ID from the user's snapshot
func (c *Cache) RemoveOverride(ownerID uint, overrideID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[ownerID]
	if !ok {
		return
	}
	overrides := s.overrides[:0]
	for _, o := range s.overrides {
		if o.ID != overrideID {
			overrides = append(overrides, o)
		}
	}
	s.overrides = overrides
}

// Reset clears the user's scope back to its initial unloaded state - used on logout
func (c *Cache) Reset(ownerID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scopes, ownerID)
}
