package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/parking-reservation/internal/model"
)

// FacilityRepo provides CRUD operations for parking facilities and
// implements the counter-backed CapacityStore.  The free-space
// counter is mutated only by TryReserveTx and ReleaseTx; the
// administrative Update path adjusts total and free together so the
// invariant 0 <= free_spaces <= total_spaces always holds.
type FacilityRepo struct {
    db *sql.DB
}

// NewFacilityRepo returns a new FacilityRepo bound to the given database.
func NewFacilityRepo(db *sql.DB) *FacilityRepo { return &FacilityRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *FacilityRepo) DB() *sql.DB { return r.db }

// Create inserts a new facility.  New facilities start with all
// spaces free.  It populates the generated ID on the provided model.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
    const q = `INSERT INTO facilities (code, name, location, total_spaces, free_spaces, fee_per_hour_cents, single_session)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, f.Code, f.Name, f.Location, f.TotalSpaces, f.TotalSpaces, f.FeePerHourCents, f.SingleSession)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    f.FreeSpaces = f.TotalSpaces
    return nil
}

// GetByID returns a single facility or ErrFacilityNotFound.
func (r *FacilityRepo) GetByID(ctx context.Context, id uint64) (*model.Facility, error) {
    const q = `SELECT id, code, name, location, total_spaces, free_spaces, fee_per_hour_cents, single_session, created_at, updated_at
               FROM facilities WHERE id = ?`
    var f model.Facility
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &f.ID, &f.Code, &f.Name, &f.Location, &f.TotalSpaces, &f.FreeSpaces,
        &f.FeePerHourCents, &f.SingleSession, &f.CreatedAt, &f.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrFacilityNotFound
    }
    if err != nil {
        return nil, err
    }
    return &f, nil
}

// List returns a page of facilities ordered by name together with the
// total row count for pagination metadata.  When onlyAvailable is
// true, facilities with zero free spaces are filtered out.
func (r *FacilityRepo) List(ctx context.Context, onlyAvailable bool, offset, limit int) ([]model.Facility, int, error) {
    where := ""
    if onlyAvailable {
        where = " WHERE free_spaces > 0"
    }
    var total int
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM facilities"+where).Scan(&total); err != nil {
        return nil, 0, err
    }
    q := `SELECT id, code, name, location, total_spaces, free_spaces, fee_per_hour_cents, single_session, created_at, updated_at
          FROM facilities` + where + ` ORDER BY name ASC LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, limit, offset)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    items := make([]model.Facility, 0)
    for rows.Next() {
        var f model.Facility
        if err := rows.Scan(
            &f.ID, &f.Code, &f.Name, &f.Location, &f.TotalSpaces, &f.FreeSpaces,
            &f.FeePerHourCents, &f.SingleSession, &f.CreatedAt, &f.UpdatedAt,
        ); err != nil {
            return nil, 0, err
        }
        items = append(items, f)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return items, total, nil
}

// Update edits the descriptive fields, rate and capacity of a
// facility.  Capacity changes shift total and free by the same delta
// in a single statement so concurrent reservations cannot observe a
// window where free exceeds total; free is floored at zero when the
// total shrinks below the number of open sessions.  It returns
// ErrFacilityNotFound when no row matches.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
    const q = `UPDATE facilities
               SET code = ?, name = ?, location = ?, fee_per_hour_cents = ?, single_session = ?,
                   free_spaces = GREATEST(0, LEAST(CAST(free_spaces AS SIGNED) + (? - CAST(total_spaces AS SIGNED)), ?)),
                   total_spaces = ?
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q,
        f.Code, f.Name, f.Location, f.FeePerHourCents, f.SingleSession,
        f.TotalSpaces, f.TotalSpaces, f.TotalSpaces, f.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // MySQL reports zero affected rows for no-op updates too, so
        // distinguish missing from unchanged.
        if _, err := r.GetByID(ctx, f.ID); err != nil {
            return err
        }
    }
    return nil
}

// Delete removes a facility.  It refuses with ErrConflict while any
// session still references the facility so the ledger keeps its
// audit trail intact.
func (r *FacilityRepo) Delete(ctx context.Context, id uint64) error {
    var n int
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM sessions WHERE facility_id = ?`, id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrFacilityNotFound
    }
    return nil
}

// TryReserveTx atomically consumes one free space within the given
// transaction.  The conditional UPDATE is the serialization point: of
// two concurrent check-ins racing for the last space, only one
// statement matches the free_spaces > 0 predicate.
func (r *FacilityRepo) TryReserveTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE facilities SET free_spaces = free_spaces - 1 WHERE id = ? AND free_spaces > 0`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    // Zero rows: either the facility is full or it does not exist.
    var exists bool
    if err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM facilities WHERE id = ?)`, id).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrFacilityNotFound
    }
    return ErrUnavailable
}

// ReleaseTx atomically restores one free space within the given
// transaction.  The free_spaces < total_spaces guard makes the call
// safe when the facility is already at full capacity: the counter is
// left clamped at the total instead of overshooting it.
func (r *FacilityRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE facilities SET free_spaces = free_spaces + 1 WHERE id = ? AND free_spaces < total_spaces`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    var exists bool
    if err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM facilities WHERE id = ?)`, id).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrFacilityNotFound
    }
    return nil
}

// InfoTx re-reads the hourly rate and single-session flag within the
// transaction so billing never uses a rate read outside it.
func (r *FacilityRepo) InfoTx(ctx context.Context, tx *sql.Tx, id uint64) (uint32, bool, error) {
    var fee uint32
    var single bool
    err := tx.QueryRowContext(ctx,
        `SELECT fee_per_hour_cents, single_session FROM facilities WHERE id = ?`, id).Scan(&fee, &single)
    if err == sql.ErrNoRows {
        return 0, false, ErrFacilityNotFound
    }
    if err != nil {
        return 0, false, err
    }
    return fee, single, nil
}

// IsDuplicate reports whether err is the MySQL duplicate-key error, used
// by handlers to map unique code/name violations to HTTP 409.
func IsDuplicate(err error) bool {
    return err != nil && strings.Contains(err.Error(), "1062")
}
