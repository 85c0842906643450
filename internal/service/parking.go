// Package service implements the occupancy core: the allocator that
// opens sessions and consumes capacity, and the settlement that bills
// and closes them.  Handlers translate the sentinel errors returned
// here into HTTP responses; nothing in this package retries or logs.
package service

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/parking-reservation/internal/model"
    "github.com/iliyamo/parking-reservation/internal/repository"
)

// Role names carried in the JWT role claim.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// CapacityStore is the reserve/release contract implemented by the
// facility (counter) and spot (flag) repositories.
type CapacityStore interface {
    TryReserveTx(ctx context.Context, tx *sql.Tx, id uint64) error
    ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error
    InfoTx(ctx context.Context, tx *sql.Tx, id uint64) (feePerHourCents uint32, singleSession bool, err error)
}

// SessionStore is the slice of the session repository the core needs.
type SessionStore interface {
    CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, facilityID, spotID *uint64, entry time.Time) (*model.Session, error)
    HasOpenTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error)
    GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Session, error)
    CloseTx(ctx context.Context, tx *sql.Tx, id uint64, exit time.Time, billedHours, amountCents uint32) error
}

// TxRunner executes fn inside a transaction that commits only when fn
// returns nil.  Production wiring passes database.WithinTx bound to
// the pool; tests substitute a runner that hands fn a nil transaction.
type TxRunner func(ctx context.Context, fn func(tx *sql.Tx) error) error

// Parking is the occupancy/session core.  It owns no state beyond its
// collaborators; every operation re-reads current rows inside its own
// transaction.
type Parking struct {
    run        TxRunner
    facilities CapacityStore
    spots      CapacityStore
    sessions   SessionStore
    now        func() time.Time
}

// NewParking constructs the core.  All dependencies must be non-nil.
func NewParking(run TxRunner, facilities, spots CapacityStore, sessions SessionStore) *Parking {
    if run == nil || facilities == nil || spots == nil || sessions == nil {
        panic("nil dependency passed to NewParking")
    }
    return &Parking{
        run:        run,
        facilities: facilities,
        spots:      spots,
        sessions:   sessions,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// WithClock overrides the time source.  Used by tests to bill
// deterministic durations.
func (p *Parking) WithClock(now func() time.Time) *Parking {
    p.now = now
    return p
}

// store resolves which capacity backing a session or check-in request
// refers to.  Exactly one of facilityID/spotID must be set; callers
// validate that before reaching the core.
func (p *Parking) store(facilityID, spotID *uint64) (CapacityStore, uint64) {
    if facilityID != nil {
        return p.facilities, *facilityID
    }
    return p.spots, *spotID
}

// CheckIn opens a session for the user on the referenced facility or
// spot.  The availability check, the single-open-session check, the
// session insert and the capacity decrement all happen in one
// transaction; on any precondition failure the transaction rolls
// back and no partial state is observable.  Returned errors:
// repository.ErrFacilityNotFound / ErrSpotNotFound, ErrUnavailable,
// ErrConflict (user already has an open session where the resource
// enforces that).
func (p *Parking) CheckIn(ctx context.Context, userID uint64, facilityID, spotID *uint64) (*model.Session, error) {
    store, resourceID := p.store(facilityID, spotID)
    var created *model.Session
    err := p.run(ctx, func(tx *sql.Tx) error {
        _, singleSession, err := store.InfoTx(ctx, tx, resourceID)
        if err != nil {
            return err
        }
        if singleSession {
            open, err := p.sessions.HasOpenTx(ctx, tx, userID)
            if err != nil {
                return err
            }
            if open {
                return repository.ErrConflict
            }
        }
        if err := store.TryReserveTx(ctx, tx, resourceID); err != nil {
            return err
        }
        created, err = p.sessions.CreateTx(ctx, tx, userID, facilityID, spotID, p.now())
        return err
    })
    if err != nil {
        return nil, err
    }
    return created, nil
}

// CheckOut settles a session: it locks the session row, authorizes
// the caller, computes the charge from the elapsed time and the
// resource's current rate, writes the exit, and releases capacity,
// all in one transaction.  Returned errors:
// repository.ErrSessionNotFound, ErrSessionClosed (double checkout),
// ErrForbidden (caller is neither owner nor admin).
func (p *Parking) CheckOut(ctx context.Context, sessionID, callerID uint64, callerRole string) (*model.Session, error) {
    var closed *model.Session
    err := p.run(ctx, func(tx *sql.Tx) error {
        s, err := p.sessions.GetForUpdateTx(ctx, tx, sessionID)
        if err != nil {
            return err
        }
        if !s.Open() {
            return repository.ErrSessionClosed
        }
        if callerRole != RoleAdmin && s.UserID != callerID {
            return repository.ErrForbidden
        }
        store, resourceID := p.store(s.FacilityID, s.SpotID)
        fee, _, err := store.InfoTx(ctx, tx, resourceID)
        if err != nil {
            return err
        }
        exit := p.now()
        hours := BilledHours(s.EntryTime, exit)
        amount := hours * fee
        if err := p.sessions.CloseTx(ctx, tx, s.ID, exit, hours, amount); err != nil {
            return err
        }
        if err := store.ReleaseTx(ctx, tx, resourceID); err != nil {
            return err
        }
        s.ExitTime = &exit
        s.BilledHours = &hours
        s.ChargedAmountCents = &amount
        closed = s
        return nil
    })
    if err != nil {
        return nil, err
    }
    return closed, nil
}

// BilledHours converts a session duration into whole billed hours.
// Partial hours are rounded up and every session bills at least one
// hour, so a zero-duration session still pays the minimum.
func BilledHours(entry, exit time.Time) uint32 {
    d := exit.Sub(entry)
    if d <= 0 {
        return 1
    }
    hours := d / time.Hour
    if d%time.Hour != 0 {
        hours++
    }
    if hours < 1 {
        hours = 1
    }
    return uint32(hours)
}
