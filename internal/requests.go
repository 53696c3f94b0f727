package internal

import "github.com/bebevio27-prog/calendar/internal/models"

// -- Request data -----------------------------------------------------------------------------------------------------

// EventPatch carries a partial event update: only the fields that are set are
// applied to the stored event, everything else stays untouched
type EventPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Color       *string          `json:"color,omitempty"`
	IsRecurring *bool            `json:"isRecurring,omitempty"`
	Date        *string          `json:"date,omitempty"`
	StartTime   *string          `json:"startTime,omitempty"`
	EndTime     *string          `json:"endTime,omitempty"`
	Schedule    *models.SlotList `json:"schedule,omitempty"`
}

// ProfilePatch carries a partial update of the logged-in user's profile
type ProfilePatch struct {
	Name *string `json:"name,omitempty"`
}

// A request made when logging in
type loginRequest struct {
	Email string `json:"email"`
	Pass  string `json:"password"`
}

// A request made when registering a new account
type registerRequest struct {
	Email string `json:"email"`
	Pass  string `json:"password"`
	Name  string `json:"name"`
}

// eventUpdateRequest pairs the event ID from the path with the patch from the body
type eventUpdateRequest struct {
	ID    uint
	Patch EventPatch
}

// dateRequest carries the reference date of a timeline query
type dateRequest struct {
	Date string
}
