package models

import (
	"fmt"
	"time"
)

// ContextEntry is one agenda/outcome item attached to a session. The two
// chambers publish different shapes: the Senate exposes topic, considered
// aspects and agreements; the Chamber of Deputies exposes citation and result.
// Absent fields are left empty and omitted from serialization.
type ContextEntry struct {
	Topic      string `json:"topic,omitempty"`
	Aspects    string `json:"aspects,omitempty"`
	Agreements string `json:"agreements,omitempty"`
	Citation   string `json:"citation,omitempty"`
	Result     string `json:"result,omitempty"`
}

// AttendanceRecord is one attendee row in the Chamber of Deputies shape.
type AttendanceRecord struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Attendance carries the chamber-specific attendee structure: the Senate
// publishes member and guest name lists, the Chamber of Deputies publishes
// per-attendee name/status records.
type Attendance struct {
	Members []string           `json:"members,omitempty"`
	Guests  []string           `json:"guests,omitempty"`
	Records []AttendanceRecord `json:"records,omitempty"`
}

// Session is one committee sitting. It is created by the crawler without a
// transcript and mutated once by the media resolver to attach the transcript
// and source video URL; after that it is persisted and never touched again.
// A session is uniquely identified by (CommissionID, ID).
type Session struct {
	Key          string         `badgerhold:"key" json:"key"` // "{commission_id}-{session_id}"
	ID           int            `json:"id"`
	CommissionID string         `badgerholdIndex:"CommissionID" json:"commission_id"`
	Start        time.Time      `json:"start"`
	Finish       time.Time      `json:"finish"`
	Context      []ContextEntry `json:"context,omitempty"`
	Attendance   Attendance     `json:"attendance"`
	Transcript   string         `json:"transcript,omitempty"`
	VideoURL     string         `json:"video_url,omitempty"`
}

// SessionKey builds the storage key for a (commission, session) pair.
func SessionKey(commissionID string, sessionID int) string {
	return fmt.Sprintf("%s-%d", commissionID, sessionID)
}

// EnsureKey populates the storage key from the identifying pair.
func (s *Session) EnsureKey() {
	if s.Key == "" {
		s.Key = SessionKey(s.CommissionID, s.ID)
	}
}

// Validate checks session invariants.
func (s *Session) Validate() error {
	if s.CommissionID == "" {
		return fmt.Errorf("session commission ID is required")
	}
	if s.Finish.Before(s.Start) {
		return fmt.Errorf("session %d: start %s is after finish %s", s.ID, s.Start, s.Finish)
	}
	return nil
}

// HasTranscript reports whether the media resolver attached a transcript.
func (s *Session) HasTranscript() bool {
	return s.Transcript != ""
}

// MorningSession reports whether the session started before noon in the
// legislature's local timezone. Both chambers' video platforms disambiguate
// morning and afternoon broadcasts, so this drives candidate selection in the
// media resolver. Session instants are stored in UTC, hence the location.
func (s *Session) MorningSession(loc *time.Location) bool {
	return s.Start.In(loc).Hour() < 12
}
