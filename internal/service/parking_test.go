package service

import (
    "context"
    "database/sql"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-reservation/internal/model"
    "github.com/iliyamo/parking-reservation/internal/repository"
)

// passthroughRunner hands fn a nil transaction; the stub stores below
// never touch it.
func passthroughRunner(ctx context.Context, fn func(tx *sql.Tx) error) error {
    return fn(nil)
}

// stubCapacity simulates a capacity backing with a plain counter.
type stubCapacity struct {
    mu            sync.Mutex
    free          int
    total         int
    fee           uint32
    singleSession bool
    infoErr       error
    reserves      int
    releases      int
}

func (s *stubCapacity) TryReserveTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.infoErr != nil {
        return s.infoErr
    }
    if s.free <= 0 {
        return repository.ErrUnavailable
    }
    s.free--
    s.reserves++
    return nil
}

func (s *stubCapacity) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.free < s.total {
        s.free++
    }
    s.releases++
    return nil
}

func (s *stubCapacity) InfoTx(ctx context.Context, tx *sql.Tx, id uint64) (uint32, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.infoErr != nil {
        return 0, false, s.infoErr
    }
    return s.fee, s.singleSession, nil
}

// stubSessions keeps sessions in a map keyed by ID.
type stubSessions struct {
    mu      sync.Mutex
    nextID  uint64
    byID    map[uint64]*model.Session
    openFor map[uint64]bool
}

func newStubSessions() *stubSessions {
    return &stubSessions{nextID: 1, byID: map[uint64]*model.Session{}, openFor: map[uint64]bool{}}
}

func (s *stubSessions) CreateTx(ctx context.Context, tx *sql.Tx, userID uint64, facilityID, spotID *uint64, entry time.Time) (*model.Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess := &model.Session{ID: s.nextID, UserID: userID, FacilityID: facilityID, SpotID: spotID, EntryTime: entry}
    s.byID[s.nextID] = sess
    s.openFor[userID] = true
    s.nextID++
    return sess, nil
}

func (s *stubSessions) HasOpenTx(ctx context.Context, tx *sql.Tx, userID uint64) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.openFor[userID], nil
}

func (s *stubSessions) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess, ok := s.byID[id]
    if !ok {
        return nil, repository.ErrSessionNotFound
    }
    cp := *sess
    return &cp, nil
}

func (s *stubSessions) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, exit time.Time, billedHours, amountCents uint32) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    sess, ok := s.byID[id]
    if !ok {
        return repository.ErrSessionNotFound
    }
    if sess.ExitTime != nil {
        return repository.ErrSessionClosed
    }
    e := exit
    sess.ExitTime = &e
    sess.BilledHours = &billedHours
    sess.ChargedAmountCents = &amountCents
    s.openFor[sess.UserID] = false
    return nil
}

func newTestParking(fac, spot *stubCapacity, sess *stubSessions) *Parking {
    return NewParking(passthroughRunner, fac, spot, sess)
}

func uptr(v uint64) *uint64 { return &v }

func TestBilledHours(t *testing.T) {
    base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
    tests := []struct {
        name string
        exit time.Time
        want uint32
    }{
        {"zero duration bills minimum", base, 1},
        {"one minute bills one hour", base.Add(time.Minute), 1},
        {"exactly one hour", base.Add(time.Hour), 1},
        {"61 minutes rounds up", base.Add(61 * time.Minute), 2},
        {"exactly two hours", base.Add(2 * time.Hour), 2},
        {"two hours one second", base.Add(2*time.Hour + time.Second), 3},
        {"exit before entry bills minimum", base.Add(-time.Hour), 1},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.Equal(t, tt.want, BilledHours(base, tt.exit))
        })
    }
}

func TestCheckIn_ConsumesCapacity(t *testing.T) {
    fac := &stubCapacity{free: 2, total: 2, fee: 200, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    s, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)
    require.NotNil(t, s.FacilityID)
    assert.Equal(t, uint64(1), *s.FacilityID)
    assert.Nil(t, s.SpotID)
    assert.True(t, s.Open())
    assert.Equal(t, 1, fac.free)
}

func TestCheckIn_NoCapacity(t *testing.T) {
    fac := &stubCapacity{free: 0, total: 1, fee: 200}
    p := newTestParking(fac, &stubCapacity{}, newStubSessions())

    _, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.ErrorIs(t, err, repository.ErrUnavailable)
    assert.Equal(t, 0, fac.reserves)
}

func TestCheckIn_SecondOpenSessionRejected(t *testing.T) {
    fac := &stubCapacity{free: 5, total: 5, fee: 200, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    _, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)

    _, err = p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.ErrorIs(t, err, repository.ErrConflict)
    assert.Equal(t, 4, fac.free, "rejected check-in must not consume capacity")
}

func TestCheckIn_MultipleSessionsAllowedWhenDisabled(t *testing.T) {
    fac := &stubCapacity{free: 5, total: 5, fee: 200, singleSession: false}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    _, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)
    _, err = p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)
    assert.Equal(t, 3, fac.free)
}

func TestCheckIn_UnknownResource(t *testing.T) {
    fac := &stubCapacity{infoErr: repository.ErrFacilityNotFound}
    p := newTestParking(fac, &stubCapacity{}, newStubSessions())

    _, err := p.CheckIn(context.Background(), 7, uptr(99), nil)
    require.ErrorIs(t, err, repository.ErrFacilityNotFound)
}

func TestCheckIn_SpotUsesFlagStore(t *testing.T) {
    spot := &stubCapacity{free: 1, total: 1, fee: 350}
    sess := newStubSessions()
    p := newTestParking(&stubCapacity{}, spot, sess)

    s, err := p.CheckIn(context.Background(), 3, nil, uptr(42))
    require.NoError(t, err)
    require.NotNil(t, s.SpotID)
    assert.Equal(t, uint64(42), *s.SpotID)
    assert.Equal(t, 0, spot.free)

    _, err = p.CheckIn(context.Background(), 4, nil, uptr(42))
    require.ErrorIs(t, err, repository.ErrUnavailable)
}

func TestCheckOut_BillsCeilingHours(t *testing.T) {
    fac := &stubCapacity{free: 1, total: 1, fee: 200, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    entry := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
    p.WithClock(func() time.Time { return entry })
    s, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)

    // 61 minutes elapsed: 2 billed hours at 200 cents each.
    p.WithClock(func() time.Time { return entry.Add(61 * time.Minute) })
    closed, err := p.CheckOut(context.Background(), s.ID, 7, RoleUser)
    require.NoError(t, err)
    require.NotNil(t, closed.BilledHours)
    assert.Equal(t, uint32(2), *closed.BilledHours)
    assert.Equal(t, uint32(400), *closed.ChargedAmountCents)
    assert.False(t, closed.Open())
    assert.Equal(t, 1, fac.free, "capacity must be released")
}

func TestCheckOut_MinimumOneHour(t *testing.T) {
    fac := &stubCapacity{free: 1, total: 1, fee: 150, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    entry := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
    p.WithClock(func() time.Time { return entry })
    s, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)

    p.WithClock(func() time.Time { return entry.Add(5 * time.Minute) })
    closed, err := p.CheckOut(context.Background(), s.ID, 7, RoleUser)
    require.NoError(t, err)
    assert.Equal(t, uint32(1), *closed.BilledHours)
    assert.Equal(t, uint32(150), *closed.ChargedAmountCents)
}

func TestCheckOut_DoubleCheckoutRejected(t *testing.T) {
    fac := &stubCapacity{free: 1, total: 1, fee: 200, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    s, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)

    _, err = p.CheckOut(context.Background(), s.ID, 7, RoleUser)
    require.NoError(t, err)

    _, err = p.CheckOut(context.Background(), s.ID, 7, RoleUser)
    require.ErrorIs(t, err, repository.ErrSessionClosed)
    assert.Equal(t, 1, fac.releases, "capacity must be released exactly once")
}

func TestCheckOut_ForbiddenForOtherUser(t *testing.T) {
    fac := &stubCapacity{free: 1, total: 1, fee: 200, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    s, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)

    _, err = p.CheckOut(context.Background(), s.ID, 8, RoleUser)
    require.ErrorIs(t, err, repository.ErrForbidden)

    // The session stays open and billable.
    got, gerr := sess.GetForUpdateTx(context.Background(), nil, s.ID)
    require.NoError(t, gerr)
    assert.True(t, got.Open())
}

func TestCheckOut_AdminMayCloseAnySession(t *testing.T) {
    fac := &stubCapacity{free: 1, total: 1, fee: 200, singleSession: true}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    s, err := p.CheckIn(context.Background(), 7, uptr(1), nil)
    require.NoError(t, err)

    closed, err := p.CheckOut(context.Background(), s.ID, 999, RoleAdmin)
    require.NoError(t, err)
    assert.False(t, closed.Open())
}

func TestCheckOut_UnknownSession(t *testing.T) {
    p := newTestParking(&stubCapacity{free: 1, total: 1}, &stubCapacity{}, newStubSessions())

    _, err := p.CheckOut(context.Background(), 12345, 7, RoleUser)
    require.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestCheckIn_ConcurrentLastSlot(t *testing.T) {
    const workers = 16
    fac := &stubCapacity{free: 1, total: 1, fee: 200}
    sess := newStubSessions()
    p := newTestParking(fac, &stubCapacity{}, sess)

    var wg sync.WaitGroup
    results := make(chan error, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(user uint64) {
            defer wg.Done()
            _, err := p.CheckIn(context.Background(), user, uptr(1), nil)
            results <- err
        }(uint64(i + 1))
    }
    wg.Wait()
    close(results)

    ok, unavailable := 0, 0
    for err := range results {
        switch {
        case err == nil:
            ok++
        case err == repository.ErrUnavailable:
            unavailable++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    assert.Equal(t, 1, ok, "exactly one check-in may win the last slot")
    assert.Equal(t, workers-1, unavailable)
    assert.Equal(t, 0, fac.free)
}
