package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/parking-reservation/internal/model"
)

// SpotRepo provides CRUD operations for discrete parking spots and
// implements the flag-backed CapacityStore.  A spot's occupied flag
// is flipped only by TryReserveTx/ReleaseTx, never by the
// administrative handlers, so the flag always mirrors the session
// ledger.
type SpotRepo struct {
    db *sql.DB
}

// NewSpotRepo returns a new SpotRepo bound to the given database.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SpotRepo) DB() *sql.DB { return r.db }

// Create inserts a new free spot and populates its generated ID.
func (r *SpotRepo) Create(ctx context.Context, s *model.Spot) error {
    const q = `INSERT INTO spots (spot_number, fee_per_hour_cents, single_session) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, s.SpotNumber, s.FeePerHourCents, s.SingleSession)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// GenerateBulk creates count spots labelled prefix1..prefixN with the
// given hourly rate.  Labels that already exist are skipped rather
// than failing the whole batch, matching how operators re-run the
// generation after adding capacity.  It returns the spots actually
// created.
func (r *SpotRepo) GenerateBulk(ctx context.Context, prefix string, count int, feeCents uint32) ([]model.Spot, error) {
    created := make([]model.Spot, 0, count)
    for i := 1; i <= count; i++ {
        s := model.Spot{
            SpotNumber:      fmt.Sprintf("%s%d", prefix, i),
            FeePerHourCents: feeCents,
            SingleSession:   true,
        }
        if err := r.Create(ctx, &s); err != nil {
            if IsDuplicate(err) {
                continue
            }
            return created, err
        }
        created = append(created, s)
    }
    return created, nil
}

// GetByID returns a single spot or ErrSpotNotFound.
func (r *SpotRepo) GetByID(ctx context.Context, id uint64) (*model.Spot, error) {
    const q = `SELECT id, spot_number, fee_per_hour_cents, is_occupied, single_session, created_at, updated_at
               FROM spots WHERE id = ?`
    var s model.Spot
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.SpotNumber, &s.FeePerHourCents, &s.IsOccupied, &s.SingleSession, &s.CreatedAt, &s.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrSpotNotFound
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// List returns a page of spots ordered by label plus the total row
// count.  When onlyAvailable is true, occupied spots are excluded.
func (r *SpotRepo) List(ctx context.Context, onlyAvailable bool, offset, limit int) ([]model.Spot, int, error) {
    where := ""
    if onlyAvailable {
        where = " WHERE is_occupied = 0"
    }
    var total int
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spots"+where).Scan(&total); err != nil {
        return nil, 0, err
    }
    q := `SELECT id, spot_number, fee_per_hour_cents, is_occupied, single_session, created_at, updated_at
          FROM spots` + where + ` ORDER BY spot_number ASC LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, limit, offset)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    items := make([]model.Spot, 0)
    for rows.Next() {
        var s model.Spot
        if err := rows.Scan(&s.ID, &s.SpotNumber, &s.FeePerHourCents, &s.IsOccupied, &s.SingleSession, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, 0, err
        }
        items = append(items, s)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return items, total, nil
}

// Delete removes a spot unless it is currently occupied or has ever
// been parked on; sessions keep their history, so spots referenced by
// the ledger return ErrConflict instead of being deleted.
func (r *SpotRepo) Delete(ctx context.Context, id uint64) error {
    s, err := r.GetByID(ctx, id)
    if err != nil {
        return err
    }
    if s.IsOccupied {
        return ErrConflict
    }
    var n int
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM sessions WHERE spot_id = ?`, id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    _, err = r.db.ExecContext(ctx, `DELETE FROM spots WHERE id = ?`, id)
    return err
}

// TryReserveTx atomically marks the spot occupied within the given
// transaction.  The is_occupied = 0 predicate is the serialization
// point; a concurrent check-in for the same spot matches zero rows.
func (r *SpotRepo) TryReserveTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE spots SET is_occupied = 1 WHERE id = ? AND is_occupied = 0`, id)
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
        `SELECT EXISTS(SELECT 1 FROM spots WHERE id = ?)`, id).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrSpotNotFound
    }
    return ErrUnavailable
}

// ReleaseTx atomically marks the spot free within the given
// transaction.  Releasing an already free spot is a no-op.
func (r *SpotRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE spots SET is_occupied = 0 WHERE id = ? AND is_occupied = 1`, id)
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
        `SELECT EXISTS(SELECT 1 FROM spots WHERE id = ?)`, id).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrSpotNotFound
    }
    return nil
}

// InfoTx re-reads the hourly rate and single-session flag within the
// transaction.
func (r *SpotRepo) InfoTx(ctx context.Context, tx *sql.Tx, id uint64) (uint32, bool, error) {
    var fee uint32
    var single bool
    err := tx.QueryRowContext(ctx,
        `SELECT fee_per_hour_cents, single_session FROM spots WHERE id = ?`, id).Scan(&fee, &single)
    if err == sql.ErrNoRows {
        return 0, false, ErrSpotNotFound
    }
    if err != nil {
        return 0, false, err
    }
    return fee, single, nil
}
