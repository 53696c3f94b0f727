package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleSlot is one weekly time slot of a recurring event. DayOfWeek uses the
// same numbering as time.Weekday (0 = Sunday). Multiple slots may share the same
// weekday for events with several sessions on one day.
type ScheduleSlot struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SlotList is the weekly schedule of a recurring event. It is persisted as a JSON
// text column.
type SlotList []ScheduleSlot

// Value implements driver.Valuer by serializing the slot list to JSON
func (l SlotList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner by reading the slot list back from its JSON column
func (l *SlotList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	}
	return fmt.Errorf("cannot scan schedule from %T", src)
}

// Event describes a calendar event owned by a user
// An event is either single-dated (Date plus one start/end time pair) or recurring
// (a weekly Schedule of slots) - IsRecurring discriminates between the two shapes
type Event struct {
	// Internal ID
	ID uint `db:"id" json:"id"`
	// Display name of the event
	Name string `db:"name" json:"name"`
	// An optional description
	Description string `db:"description" json:"description,omitempty"`
	// Color token from the fixed palette - used for visual grouping only
	Color string `db:"color" json:"color"`
	// The ID of the user this event belongs to
	OwnerID uint `db:"ownerId" json:"ownerId"`
	// Discriminator between single-dated and recurring events
	IsRecurring bool `db:"isRecurring" json:"isRecurring"`
	// Calendar date ("YYYY-MM-DD") - single-dated events only
	Date string `db:"date" json:"date,omitempty"`
	// Local start time ("HH:mm") - single-dated events only
	StartTime string `db:"startTime" json:"startTime,omitempty"`
	// Local end time ("HH:mm") - single-dated events only
	EndTime string `db:"endTime" json:"endTime,omitempty"`
	// Weekly schedule - recurring events only
	Schedule SlotList `db:"schedule" json:"schedule,omitempty"`
	// Creation date of this entry
	CreatedAt time.Time `db:"createdAt" json:"createdAt"`
	// Date of the last update of this entry
	UpdatedAt time.Time `db:"updatedAt" json:"updatedAt"`
}
