package models

import "time"

// EventOverride is a per-date exception to a recurring event's schedule. It either
// shifts the times of the occurrence on OriginalDate or cancels it entirely.
// At most one override may exist per (EventID, OriginalDate, OwnerID) - the
// override repository enforces this via upsert semantics, not the schema
type EventOverride struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// The recurring event this override belongs to
	EventID uint `db:"eventId" json:"eventId"`
	// The date ("YYYY-MM-DD") of the occurrence being overridden - the date the
	// event's schedule would naturally produce
	OriginalDate string `db:"originalDate" json:"originalDate"`
	// Replacement start time ("HH:mm") - nil keeps the schedule slot's start time
	NewStartTime *string `db:"newStartTime" json:"newStartTime,omitempty"`
	// Replacement end time ("HH:mm") - nil keeps the schedule slot's end time
	NewEndTime *string `db:"newEndTime" json:"newEndTime,omitempty"`
	// When true, the occurrence is suppressed for that date and the time fields
	// are ignored
	Cancelled bool `db:"cancelled" json:"cancelled"`
	// The ID of the user this override belongs to
	OwnerID uint `db:"ownerId" json:"ownerId"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}
