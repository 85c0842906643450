package model

import "time"

// Spot represents a single discrete parking spot whose capacity is
// tracked as an occupied flag rather than a counter.  The flag is
// flipped atomically by the session allocator and settlement paths
// only; it is never written by the administrative CRUD handlers.
//
// Fields:
//  ID              – primary key identifier.
//  SpotNumber      – unique human readable spot label (e.g. "A12").
//  FeePerHourCents – hourly parking fee in cents.
//  IsOccupied      – whether the spot currently has an open session.
//  SingleSession   – whether a user may hold only one open session.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Spot struct {
    ID              uint64    // spots.id
    SpotNumber      string    // spots.spot_number
    FeePerHourCents uint32    // spots.fee_per_hour_cents
    IsOccupied      bool      // spots.is_occupied
    SingleSession   bool      // spots.single_session
    CreatedAt       time.Time // spots.created_at
    UpdatedAt       time.Time // spots.updated_at
}
