// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

import (
    "time"

    "github.com/iliyamo/parking-reservation/internal/model"
)

// SessionClosedEvent is published when a parking session is settled.
// It carries enough for downstream consumers to log or bill without
// querying the primary database.
type SessionClosedEvent struct {
    SessionID          uint64  `json:"session_id"`
    UserID             uint64  `json:"user_id"`
    FacilityID         *uint64 `json:"facility_id,omitempty"`
    SpotID             *uint64 `json:"spot_id,omitempty"`
    EntryTime          string  `json:"entry_time"`
    ExitTime           string  `json:"exit_time"`
    BilledHours        uint32  `json:"billed_hours"`
    ChargedAmountCents uint32  `json:"charged_amount_cents"`
}

// NewSessionClosedEvent builds the event payload for a settled session.
// The session must be closed; open sessions produce a zeroed exit part.
func NewSessionClosedEvent(s *model.Session) SessionClosedEvent {
    ev := SessionClosedEvent{
        SessionID:  s.ID,
        UserID:     s.UserID,
        FacilityID: s.FacilityID,
        SpotID:     s.SpotID,
        EntryTime:  s.EntryTime.UTC().Format(time.RFC3339),
    }
    if s.ExitTime != nil {
        ev.ExitTime = s.ExitTime.UTC().Format(time.RFC3339)
    }
    if s.BilledHours != nil {
        ev.BilledHours = *s.BilledHours
    }
    if s.ChargedAmountCents != nil {
        ev.ChargedAmountCents = *s.ChargedAmountCents
    }
    return ev
}
