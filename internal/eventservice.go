package internal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bebevio27-prog/calendar/internal/cache"
	"github.com/bebevio27-prog/calendar/internal/ctxhelper"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// EventService provides service functions for working with the logged-in user's
// calendar events and their per-date overrides. Every mutation writes to the
// repository first and patches the in-memory cache only after the write
// succeeded, so a failed mutation leaves the previous view intact
type EventService interface {
	List(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id uint) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, id uint, patch EventPatch) (*models.Event, error)
	Delete(ctx context.Context, id uint) error
	ListOverrides(ctx context.Context) ([]models.EventOverride, error)
	SetOverride(ctx context.Context, o *models.EventOverride) (*models.EventOverride, error)
	DeleteOverride(ctx context.Context, id uint) error
}

// -- EventService implementation --------------------------------------------------------------------------------------

type eventService struct {
	repo      repos.EventRepo
	overrides repos.OverrideRepo
	data      *cache.Cache
	logger    *logrus.Entry
}

// NewEventService creates a new event service instance
func NewEventService(repo repos.EventRepo, overrides repos.OverrideRepo, data *cache.Cache, logger *logrus.Entry) EventService {
	return &eventService{
		repo:      repo,
		overrides: overrides,
		data:      data,
		logger:    logger,
	}
}

// owner returns the ID of the logged-in user. The endpoints behind
// EnsureUserLoggedIn guarantee there is one
func owner(ctx context.Context) uint {
	if u := ctxhelper.User(ctx); u != nil {
		return u.ID
	}
	return 0
}

// List returns all events of the logged-in user, ordered by name
func (s *eventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.repo.ListByOwner(owner(ctx))
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while listing events",
			err,
		)
	}
	return events, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	ev, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving event #%d", id), err,
		)
	}
	if ev.OwnerID != owner(ctx) {
		// Not this user's event - do not leak its existence
		return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
			fmt.Sprintf("Event #%d does not exist", id),
		)
	}
	return ev, nil
}

// validateEventShape checks the fields that depend on the recurrence discriminator
func validateEventShape(ev *models.Event) error {
	if ev.IsRecurring {
		for _, slot := range ev.Schedule {
			if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
				return MakeErrorWithData(
					http.StatusBadRequest,
					ErrCodeIllegalValue,
					fmt.Sprintf("Illegal day of week %d", slot.DayOfWeek),
					map[string]string{"field": "schedule"},
				)
			}
		}
		return nil
	}
	if ev.Date == "" {
		return MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Single-dated events need a date",
			map[string]string{"field": "date"},
		)
	}
	return nil
}

// Create creates a new event for the logged-in user
func (s *eventService) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Event name missing",
			map[string]string{
				"field": "name",
			},
		)
	}
	if event.Color == "" {
		event.Color = models.RandomColor()
	} else if !models.IsValidColor(event.Color) {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeIllegalValue,
			fmt.Sprintf("'%s' is not part of the color palette", event.Color),
			map[string]string{"field": "color"},
		)
	}
	if err := validateEventShape(event); err != nil {
		return nil, err
	}
	event.OwnerID = owner(ctx)
	if err := s.repo.Create(event); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while creating event",
			err,
		)
	}
	s.data.AddEvent(event.OwnerID, *event)
	return event, nil
}

// applyPatch merges the set fields of the patch into the stored event
func applyPatch(ev *models.Event, patch EventPatch) {
	if patch.Name != nil {
		ev.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if patch.Color != nil {
		ev.Color = *patch.Color
	}
	if patch.IsRecurring != nil {
		ev.IsRecurring = *patch.IsRecurring
	}
	if patch.Date != nil {
		ev.Date = *patch.Date
	}
	if patch.StartTime != nil {
		ev.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		ev.EndTime = *patch.EndTime
	}
	if patch.Schedule != nil {
		ev.Schedule = *patch.Schedule
	}
}

// Update applies a partial update to an existing event: fields not set on the
// patch keep their stored values
func (s *eventService) Update(ctx context.Context, id uint, patch EventPatch) (*models.Event, error) {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPatch(ev, patch)
	if ev.Name == "" {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Event name missing",
			map[string]string{"field": "name"},
		)
	}
	if !models.IsValidColor(ev.Color) {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeIllegalValue,
			fmt.Sprintf("'%s' is not part of the color palette", ev.Color),
			map[string]string{"field": "color"},
		)
	}
	if err := validateEventShape(ev); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ev); err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(
				http.StatusNotFound,
				ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while updating event #%d", id),
			err,
		)
	}
	s.data.PatchEvent(ev.OwnerID, *ev)
	return ev, nil
}

// Delete removes an existing event and cascades to the overrides referencing it.
// The storage does not cascade on its own
func (s *eventService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(
				http.StatusNotFound,
				ErrCodeEventNotFound,
				fmt.Sprintf("Event #%d does not exist", id),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting event #%d", id),
			err,
		)
	}
	if err := s.overrides.DeleteByEvent(id); err != nil {
		// The event itself is gone - report the incomplete cascade
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting the overrides of event #%d", id),
			err,
		)
	}
	s.data.RemoveEvent(owner(ctx), id)
	return nil
}

// ListOverrides returns all overrides of the logged-in user
func (s *eventService) ListOverrides(ctx context.Context) ([]models.EventOverride, error) {
	overrides, err := s.overrides.ListByOwner(owner(ctx))
	if err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while listing overrides",
			err,
		)
	}
	return overrides, nil
}

// SetOverride upserts the override for the (event, originalDate) pair it names.
// Setting the same pair twice updates the existing record instead of creating a
// second one
func (s *eventService) SetOverride(ctx context.Context, o *models.EventOverride) (*models.EventOverride, error) {
	if o.OriginalDate == "" {
		return nil, MakeErrorWithData(
			http.StatusBadRequest,
			ErrCodeRequiredFieldMissing,
			"Override date missing",
			map[string]string{"field": "originalDate"},
		)
	}
	// The event must exist, belong to the user and recur
	ev, err := s.Get(ctx, o.EventID)
	if err != nil {
		return nil, err
	}
	if !ev.IsRecurring {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalValue,
			fmt.Sprintf("Event #%d is not recurring and cannot be overridden", ev.ID),
		)
	}
	o.OwnerID = owner(ctx)
	if err := s.overrides.Upsert(o); err != nil {
		return nil, MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			"Error while storing override",
			err,
		)
	}
	s.data.PutOverride(o.OwnerID, *o)
	return o, nil
}

// DeleteOverride removes the override with the given ID, restoring the
// occurrence it suppressed or shifted
func (s *eventService) DeleteOverride(ctx context.Context, id uint) error {
	o, err := s.overrides.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(
				http.StatusNotFound,
				ErrCodeOverrideNotFound,
				fmt.Sprintf("Override #%d does not exist", id),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving override #%d", id),
			err,
		)
	}
	if o.OwnerID != owner(ctx) {
		return MakeError(
			http.StatusNotFound,
			ErrCodeOverrideNotFound,
			fmt.Sprintf("Override #%d does not exist", id),
		)
	}
	if err := s.overrides.Delete(id); err != nil {
		if err == repos.ErrEntityNotExisting {
			return MakeError(
				http.StatusNotFound,
				ErrCodeOverrideNotFound,
				fmt.Sprintf("Override #%d does not exist", id),
			)
		}
		return MakeErrorWithData(
			http.StatusInternalServerError,
			ErrCodeRepoError,
			fmt.Sprintf("Error while deleting override #%d", id),
			err,
		)
	}
	s.data.RemoveOverride(o.OwnerID, id)
	return nil
}
