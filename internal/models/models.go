package models

import "time"

// Game lifecycle status values as stored by the backend.
const (
	GameStatusScheduled = "scheduled"
	GameStatusActive    = "active"
	GameStatusFinished  = "finished"
	GameStatusCancelled = "cancelled"
)

// Group is a poker group; the worker only needs its display name for
// message templates.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GroupSettings holds a group's scheduling configuration, one record per group.
type GroupSettings struct {
	ID                             string `json:"id"`
	GroupID                        string `json:"groupId"`
	AutoOpenRegistrationEnabled    bool   `json:"autoOpenRegistrationEnabled"`
	AutoOpenRegistrationDay        string `json:"autoOpenRegistrationDay"`  // full weekday name, e.g. "monday"
	AutoOpenRegistrationTime       string `json:"autoOpenRegistrationTime"` // "HH:MM" in the league timezone
	SendReminderOnRegistrationOpen bool   `json:"sendReminderOnRegistrationOpen"`
	DayOfGamePushEnabled           bool   `json:"dayOfGamePushEnabled"`
	DayOfGamePushOffsetMinutes     int    `json:"dayOfGamePushOffsetMinutes"`
}

// Seat is one claimed seat at a game.
type Seat struct {
	UserID string `json:"userId"`
}

// Game is a single scheduled game night. The three boolean flags are
// monotonic: the worker flips each one false→true at most once and never
// resets them. Flags absent in the backend payload decode as false.
type Game struct {
	ID                           string    `json:"id"`
	GroupID                      string    `json:"groupId"`
	Status                       string    `json:"status"`
	StartAt                      time.Time `json:"startAt"`
	RegistrationOpen             bool      `json:"registrationOpen"`
	RegistrationNotificationSent bool      `json:"registrationNotificationSent"`
	ReminderSent                 bool      `json:"reminderSent"`
	Seats                        []Seat    `json:"seats"`
}

// GroupMember is a user's membership in a group. Phone and display name here
// are fallbacks; the canonical values live on the User record.
type GroupMember struct {
	ID          string `json:"id"`
	GroupID     string `json:"groupId"`
	UserID      string `json:"userId"`
	IsActive    bool   `json:"isActive"`
	Phone       string `json:"phone"`
	DisplayName string `json:"displayName"`
}

// User is the canonical contact record.
type User struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	DisplayName string `json:"displayName"`
}
