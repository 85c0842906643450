package repository

import (
    "context"
    "database/sql"
)

// CapacityStore abstracts the two capacity models behind one
// reserve/release contract: FacilityRepo backs it with a free-space
// counter, SpotRepo with an occupied flag per spot.  Both methods must
// be called inside the same transaction as the session write so the
// capacity change and the ledger change commit or roll back together.
//
// TryReserveTx consumes one unit of capacity.  It returns
// ErrUnavailable when no unit is free and the store's not-found
// sentinel when the resource does not exist.  ReleaseTx restores one
// unit; releasing a resource that is already at full capacity is a
// no-op rather than an error, which keeps settlement safe against a
// capacity total that was shrunk by an administrator while the
// session was open.
//
// InfoTx re-reads the billing rate and the single-session flag inside
// the transaction so the allocator and settlement never act on stale
// values.
type CapacityStore interface {
    TryReserveTx(ctx context.Context, tx *sql.Tx, id uint64) error
    ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error
    InfoTx(ctx context.Context, tx *sql.Tx, id uint64) (feePerHourCents uint32, singleSession bool, err error)
}

// Both backings satisfy the contract.
var (
    _ CapacityStore = (*FacilityRepo)(nil)
    _ CapacityStore = (*SpotRepo)(nil)
)
