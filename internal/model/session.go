package model

import "time"

// Session records one check-in-to-check-out interval for a user on a
// parking resource.  Exactly one of FacilityID and SpotID is set,
// selecting the counter or the flag capacity model.  A session is
// open while ExitTime is nil; settlement sets ExitTime, BilledHours
// and ChargedAmountCents exactly once, after which the row is
// immutable.  Sessions are never deleted so that entry and exit
// reports remain a complete audit trail.
//
// Fields:
//  ID                 – primary key identifier.
//  UserID             – user who opened the session.
//  FacilityID         – facility being parked at (nullable).
//  SpotID             – spot being parked at (nullable).
//  EntryTime          – when the session was opened (immutable).
//  ExitTime           – when the session was settled (null while open).
//  BilledHours        – whole hours billed, rounded up (null while open).
//  ChargedAmountCents – amount charged in cents (null while open).
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Session struct {
    ID                 uint64     // sessions.id
    UserID             uint64     // sessions.user_id
    FacilityID         *uint64    // sessions.facility_id (nullable)
    SpotID             *uint64    // sessions.spot_id (nullable)
    EntryTime          time.Time  // sessions.entry_time
    ExitTime           *time.Time // sessions.exit_time (nullable)
    BilledHours        *uint32    // sessions.billed_hours (nullable)
    ChargedAmountCents *uint32    // sessions.charged_amount_cents (nullable)
    CreatedAt          time.Time  // sessions.created_at
    UpdatedAt          time.Time  // sessions.updated_at
}

// Open reports whether the session has not been settled yet.
func (s *Session) Open() bool { return s.ExitTime == nil }
