package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/parking-reservation/internal/model"
)

// SessionRepo provides access to the session ledger.  Sessions are
// created by check-in, mutated exactly once by checkout and never
// deleted.  All write methods take a *sql.Tx because session writes
// must commit atomically with the capacity mutation they belong to.
// All timestamp fields are stored in UTC.
type SessionRepo struct {
    db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *SessionRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new open session within the scope of an existing
// transaction and populates the generated ID.  Exactly one of
// facilityID and spotID must be non-nil; the schema enforces the same
// with a CHECK constraint.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, facilityID, spotID *uint64, entry time.Time) (*model.Session, error) {
    const q = `INSERT INTO sessions (user_id, facility_id, spot_id, entry_time) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, userID, facilityID, spotID, entry)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    s := &model.Session{
        ID:         uint64(id),
        UserID:     userID,
        FacilityID: facilityID,
        SpotID:     spotID,
        EntryTime:  entry,
    }
    return s, nil
}

// HasOpenTx reports whether the user currently has an open session.
// The row is locked so a concurrent check-in by the same user blocks
// until this transaction decides; without the lock two parallel
// check-ins could both observe "no open session" and both insert.
func (r *SessionRepo) HasOpenTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
    const q = `SELECT id FROM sessions WHERE user_id = ? AND exit_time IS NULL LIMIT 1 FOR UPDATE`
    var id uint64
    err := tx.QueryRowContext(ctx, q, userID).Scan(&id)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// GetForUpdateTx loads a session and locks its row for the duration
// of the transaction.  Settlement relies on this lock: of two
// concurrent checkouts, the second blocks and then observes the exit
// time written by the first.  Returns ErrSessionNotFound when the ID
// does not exist.
func (r *SessionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Session, error) {
    const q = `SELECT id, user_id, facility_id, spot_id, entry_time, exit_time, billed_hours, charged_amount_cents
               FROM sessions WHERE id = ? FOR UPDATE`
    var s model.Session
    var facilityID, spotID sql.NullInt64
    var exit sql.NullTime
    var hours, amount sql.NullInt64
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.UserID, &facilityID, &spotID, &s.EntryTime, &exit, &hours, &amount,
    )
    if err == sql.ErrNoRows {
        return nil, ErrSessionNotFound
    }
    if err != nil {
        return nil, err
    }
    if facilityID.Valid {
        v := uint64(facilityID.Int64)
        s.FacilityID = &v
    }
    if spotID.Valid {
        v := uint64(spotID.Int64)
        s.SpotID = &v
    }
    if exit.Valid {
        t := exit.Time
        s.ExitTime = &t
    }
    if hours.Valid {
        h := uint32(hours.Int64)
        s.BilledHours = &h
    }
    if amount.Valid {
        a := uint32(amount.Int64)
        s.ChargedAmountCents = &a
    }
    return &s, nil
}

// CloseTx writes the exit time and charge within the transaction.
// The exit_time IS NULL predicate guards against double settlement:
// if another transaction closed the session first, zero rows match
// and ErrSessionClosed is returned so the caller rolls back without
// touching capacity.
func (r *SessionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, exit time.Time, billedHours, amountCents uint32) error {
    const q = `UPDATE sessions SET exit_time = ?, billed_hours = ?, charged_amount_cents = ?
               WHERE id = ? AND exit_time IS NULL`
    res, err := tx.ExecContext(ctx, q, exit, billedHours, amountCents, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrSessionClosed
    }
    return nil
}

// SessionDetail is the read model returned by GetDetail and List.  It
// joins the owning user and the facility or spot the session refers
// to so listings do not need follow-up queries.
type SessionDetail struct {
    ID                 uint64  `json:"id"`
    UserID             uint64  `json:"user_id"`
    UserEmail          string  `json:"user_email"`
    VehiclePlate       *string `json:"vehicle_plate,omitempty"`
    ResourceKind       string  `json:"resource_kind"` // "facility" or "spot"
    ResourceID         uint64  `json:"resource_id"`
    ResourceLabel      string  `json:"resource_label"`
    EntryTime          string  `json:"entry_time"`
    ExitTime           *string `json:"exit_time,omitempty"`
    BilledHours        *uint32 `json:"billed_hours,omitempty"`
    ChargedAmountCents *uint32 `json:"charged_amount_cents,omitempty"`
    Status             string  `json:"status"` // "open" or "closed"
}

const detailColumns = `s.id, s.user_id, u.email, u.vehicle_plate,
                       s.facility_id, f.code, s.spot_id, sp.spot_number,
                       s.entry_time, s.exit_time, s.billed_hours, s.charged_amount_cents`

const detailJoins = ` FROM sessions s
                      JOIN users u ON u.id = s.user_id
                      LEFT JOIN facilities f ON f.id = s.facility_id
                      LEFT JOIN spots sp ON sp.id = s.spot_id`

func scanDetail(scan func(dest ...any) error) (*SessionDetail, error) {
    var d SessionDetail
    var plate sql.NullString
    var facilityID, spotID sql.NullInt64
    var facilityCode, spotNumber sql.NullString
    var entry time.Time
    var exit sql.NullTime
    var hours, amount sql.NullInt64
    if err := scan(
        &d.ID, &d.UserID, &d.UserEmail, &plate,
        &facilityID, &facilityCode, &spotID, &spotNumber,
        &entry, &exit, &hours, &amount,
    ); err != nil {
        return nil, err
    }
    if plate.Valid {
        p := plate.String
        d.VehiclePlate = &p
    }
    if facilityID.Valid {
        d.ResourceKind = "facility"
        d.ResourceID = uint64(facilityID.Int64)
        d.ResourceLabel = facilityCode.String
    } else if spotID.Valid {
        d.ResourceKind = "spot"
        d.ResourceID = uint64(spotID.Int64)
        d.ResourceLabel = spotNumber.String
    }
    d.EntryTime = entry.UTC().Format(time.RFC3339)
    d.Status = "open"
    if exit.Valid {
        iso := exit.Time.UTC().Format(time.RFC3339)
        d.ExitTime = &iso
        d.Status = "closed"
    }
    if hours.Valid {
        h := uint32(hours.Int64)
        d.BilledHours = &h
    }
    if amount.Valid {
        a := uint32(amount.Int64)
        d.ChargedAmountCents = &a
    }
    return &d, nil
}

// GetDetail returns a single session with user and resource details,
// or ErrSessionNotFound.
func (r *SessionRepo) GetDetail(ctx context.Context, id uint64) (*SessionDetail, error) {
    q := `SELECT ` + detailColumns + detailJoins + ` WHERE s.id = ?`
    d, err := scanDetail(r.db.QueryRowContext(ctx, q, id).Scan)
    if err == sql.ErrNoRows {
        return nil, ErrSessionNotFound
    }
    if err != nil {
        return nil, err
    }
    return d, nil
}

// SessionFilter narrows List results.  Zero values mean "no filter".
// Time ranges apply to the column named by TimeField: "entry" filters
// on entry_time, "exit" on exit_time and implies closed sessions only
// (an open session has no exit to report).
type SessionFilter struct {
    UserID    uint64     // only sessions owned by this user
    Status    string     // "", "open" or "closed"
    TimeField string     // "", "entry" or "exit"
    From      *time.Time // inclusive range start
    To        *time.Time // inclusive range end
}

// List returns a page of sessions newest-first together with the
// total count matching the filter.  Results are ordered by the
// filtered time column so entry reports come back by entry time and
// exit reports by exit time.
func (r *SessionRepo) List(ctx context.Context, filter SessionFilter, offset, limit int) ([]SessionDetail, int, error) {
    where := " WHERE 1=1"
    args := make([]any, 0, 6)
    if filter.UserID != 0 {
        where += " AND s.user_id = ?"
        args = append(args, filter.UserID)
    }
    switch filter.Status {
    case "open":
        where += " AND s.exit_time IS NULL"
    case "closed":
        where += " AND s.exit_time IS NOT NULL"
    }
    timeCol := "s.entry_time"
    if filter.TimeField == "exit" {
        timeCol = "s.exit_time"
        where += " AND s.exit_time IS NOT NULL"
    }
    if filter.From != nil {
        where += " AND " + timeCol + " >= ?"
        args = append(args, *filter.From)
    }
    if filter.To != nil {
        where += " AND " + timeCol + " <= ?"
        args = append(args, *filter.To)
    }

    var total int
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions s"+where, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    q := `SELECT ` + detailColumns + detailJoins + where + ` ORDER BY ` + timeCol + ` DESC LIMIT ? OFFSET ?`
    args = append(args, limit, offset)
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    items := make([]SessionDetail, 0)
    for rows.Next() {
        d, err := scanDetail(rows.Scan)
        if err != nil {
            return nil, 0, err
        }
        items = append(items, *d)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return items, total, nil
}
