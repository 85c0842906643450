package model

import "time"

// Facility represents a parking location that tracks its capacity as
// a single counter of free spaces.  Capacity is consumed when a
// session is opened against the facility and restored when the
// session is settled; the counter is never mutated by any other code
// path.  TotalSpaces is stored alongside FreeSpaces so that the free
// count can never drift above the configured capacity even after an
// administrative edit.
//
// Fields:
//  ID              – primary key identifier.
//  Code            – unique short code for the facility (e.g. "P1").
//  Name            – human readable facility name.
//  Location        – free-form address or description.
//  TotalSpaces     – configured number of spaces.
//  FreeSpaces      – current number of unoccupied spaces.
//  FeePerHourCents – hourly parking fee in cents.
//  SingleSession   – whether a user may hold only one open session here.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Facility struct {
    ID              uint64    // facilities.id
    Code            string    // facilities.code
    Name            string    // facilities.name
    Location        string    // facilities.location
    TotalSpaces     uint32    // facilities.total_spaces
    FreeSpaces      uint32    // facilities.free_spaces
    FeePerHourCents uint32    // facilities.fee_per_hour_cents
    SingleSession   bool      // facilities.single_session
    CreatedAt       time.Time // facilities.created_at
    UpdatedAt       time.Time // facilities.updated_at
}
