package models

import "time"

// SessionRecord is written once at logout and never mutated. Login time is
// supplied by the caller; a crash between login and logout leaves no record.
type SessionRecord struct {
	ID              string
	SubjectID       string
	DisplayID       string
	Name            string
	Department      string
	LoginTime       time.Time
	LogoutTime      time.Time
	DurationSeconds int64
	Date            string
}
