package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-reservation/internal/model"
    "github.com/iliyamo/parking-reservation/internal/queue"
    "github.com/iliyamo/parking-reservation/internal/repository"
)

type stubCore struct {
    checkInSession  *model.Session
    checkInErr      error
    checkOutSession *model.Session
    checkOutErr     error

    gotUserID     uint64
    gotSessionID  uint64
    gotCallerRole string
}

func (s *stubCore) CheckIn(ctx context.Context, userID uint64, facilityID, spotID *uint64) (*model.Session, error) {
    s.gotUserID = userID
    return s.checkInSession, s.checkInErr
}

func (s *stubCore) CheckOut(ctx context.Context, sessionID, callerID uint64, callerRole string) (*model.Session, error) {
    s.gotSessionID = sessionID
    s.gotUserID = callerID
    s.gotCallerRole = callerRole
    return s.checkOutSession, s.checkOutErr
}

type stubReader struct {
    detail    *repository.SessionDetail
    detailErr error
    items     []repository.SessionDetail
    total     int
    listErr   error
    gotFilter repository.SessionFilter
}

func (s *stubReader) GetDetail(ctx context.Context, id uint64) (*repository.SessionDetail, error) {
    return s.detail, s.detailErr
}

func (s *stubReader) List(ctx context.Context, filter repository.SessionFilter, offset, limit int) ([]repository.SessionDetail, int, error) {
    s.gotFilter = filter
    return s.items, s.total, s.listErr
}

func newSessionCtx(t *testing.T, method, target, body string, userID float64, role string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", userID)
    c.Set("role", role)
    return c, rec
}

func openSession(id, userID uint64, facilityID *uint64, spotID *uint64) *model.Session {
    return &model.Session{
        ID:         id,
        UserID:     userID,
        FacilityID: facilityID,
        SpotID:     spotID,
        EntryTime:  time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
    }
}

func TestCheckIn_Created(t *testing.T) {
    fid := uint64(3)
    core := &stubCore{checkInSession: openSession(11, 7, &fid, nil)}
    h := NewSessionHandler(core, &stubReader{}, nil)

    c, rec := newSessionCtx(t, http.MethodPost, "/v1/sessions/check-in", `{"facility_id":3}`, 7, "USER")
    require.NoError(t, h.CheckIn(c))

    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, uint64(7), core.gotUserID)

    var got map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
    assert.Equal(t, float64(11), got["id"])
    assert.Equal(t, float64(3), got["facility_id"])
    assert.Equal(t, "open", got["status"])
}

func TestCheckIn_RequiresExactlyOneResource(t *testing.T) {
    h := NewSessionHandler(&stubCore{}, &stubReader{}, nil)

    for _, body := range []string{`{}`, `{"facility_id":1,"spot_id":2}`} {
        c, rec := newSessionCtx(t, http.MethodPost, "/v1/sessions/check-in", body, 7, "USER")
        require.NoError(t, h.CheckIn(c))
        assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
    }
}

func TestCheckIn_ErrorMapping(t *testing.T) {
    tests := []struct {
        name     string
        err      error
        wantCode int
    }{
        {"unknown facility", repository.ErrFacilityNotFound, http.StatusNotFound},
        {"unknown spot", repository.ErrSpotNotFound, http.StatusNotFound},
        {"no capacity", repository.ErrUnavailable, http.StatusBadRequest},
        {"open session exists", repository.ErrConflict, http.StatusConflict},
        {"storage failure", assert.AnError, http.StatusInternalServerError},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            h := NewSessionHandler(&stubCore{checkInErr: tt.err}, &stubReader{}, nil)
            c, rec := newSessionCtx(t, http.MethodPost, "/v1/sessions/check-in", `{"facility_id":3}`, 7, "USER")
            require.NoError(t, h.CheckIn(c))
            assert.Equal(t, tt.wantCode, rec.Code)
        })
    }
}

func TestCheckOut_ClosesAndPublishes(t *testing.T) {
    fid := uint64(3)
    s := openSession(11, 7, &fid, nil)
    exit := s.EntryTime.Add(2 * time.Hour)
    hours, cents := uint32(2), uint32(400)
    s.ExitTime, s.BilledHours, s.ChargedAmountCents = &exit, &hours, &cents

    core := &stubCore{checkOutSession: s}
    var published *queue.SessionClosedEvent
    h := NewSessionHandler(core, &stubReader{}, func(ctx context.Context, ev queue.SessionClosedEvent) error {
        published = &ev
        return nil
    })

    c, rec := newSessionCtx(t, http.MethodPost, "/v1/sessions/11/checkout", "", 7, "USER")
    c.SetParamNames("id")
    c.SetParamValues("11")
    require.NoError(t, h.CheckOut(c))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, uint64(11), core.gotSessionID)
    assert.Equal(t, "USER", core.gotCallerRole)

    require.NotNil(t, published, "settlement must emit a session.closed event")
    assert.Equal(t, uint64(11), published.SessionID)
    assert.Equal(t, uint32(400), published.ChargedAmountCents)

    var got map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
    assert.Equal(t, "closed", got["status"])
    assert.Equal(t, float64(2), got["billed_hours"])
    assert.Equal(t, float64(400), got["charged_amount_cents"])
}

func TestCheckOut_PublishFailureDoesNotFailRequest(t *testing.T) {
    fid := uint64(3)
    s := openSession(11, 7, &fid, nil)
    exit := s.EntryTime.Add(time.Hour)
    hours, cents := uint32(1), uint32(200)
    s.ExitTime, s.BilledHours, s.ChargedAmountCents = &exit, &hours, &cents

    h := NewSessionHandler(&stubCore{checkOutSession: s}, &stubReader{}, func(ctx context.Context, ev queue.SessionClosedEvent) error {
        return assert.AnError
    })

    c, rec := newSessionCtx(t, http.MethodPost, "/v1/sessions/11/checkout", "", 7, "USER")
    c.SetParamNames("id")
    c.SetParamValues("11")
    require.NoError(t, h.CheckOut(c))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckOut_ErrorMapping(t *testing.T) {
    tests := []struct {
        name     string
        err      error
        wantCode int
    }{
        {"unknown session", repository.ErrSessionNotFound, http.StatusNotFound},
        {"already closed", repository.ErrSessionClosed, http.StatusConflict},
        {"not the owner", repository.ErrForbidden, http.StatusForbidden},
        {"storage failure", assert.AnError, http.StatusInternalServerError},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            h := NewSessionHandler(&stubCore{checkOutErr: tt.err}, &stubReader{}, nil)
            c, rec := newSessionCtx(t, http.MethodPost, "/v1/sessions/11/checkout", "", 7, "USER")
            c.SetParamNames("id")
            c.SetParamValues("11")
            require.NoError(t, h.CheckOut(c))
            assert.Equal(t, tt.wantCode, rec.Code)
        })
    }
}

func TestListSessions_UserScopedToOwnSessions(t *testing.T) {
    reader := &stubReader{items: []repository.SessionDetail{}, total: 0}
    h := NewSessionHandler(&stubCore{}, reader, nil)

    c, rec := newSessionCtx(t, http.MethodGet, "/v1/sessions?status=open", "", 7, "USER")
    require.NoError(t, h.ListSessions(c))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, uint64(7), reader.gotFilter.UserID)
    assert.Equal(t, "open", reader.gotFilter.Status)
}

func TestListSessions_AdminSeesAll(t *testing.T) {
    reader := &stubReader{}
    h := NewSessionHandler(&stubCore{}, reader, nil)

    c, rec := newSessionCtx(t, http.MethodGet, "/v1/sessions", "", 1, "ADMIN")
    require.NoError(t, h.ListSessions(c))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, uint64(0), reader.gotFilter.UserID, "admin listing must not be user-scoped")
}

func TestListSessions_RejectsUnknownStatus(t *testing.T) {
    h := NewSessionHandler(&stubCore{}, &stubReader{}, nil)

    c, rec := newSessionCtx(t, http.MethodGet, "/v1/sessions?status=parked", "", 7, "USER")
    require.NoError(t, h.ListSessions(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession_HidesOtherUsersSessions(t *testing.T) {
    detail := &repository.SessionDetail{ID: 11, UserID: 8, Status: "open"}
    h := NewSessionHandler(&stubCore{}, &stubReader{detail: detail}, nil)

    c, rec := newSessionCtx(t, http.MethodGet, "/v1/sessions/11", "", 7, "USER")
    c.SetParamNames("id")
    c.SetParamValues("11")
    require.NoError(t, h.GetSession(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)

    // The admin sees the same session.
    c2, rec2 := newSessionCtx(t, http.MethodGet, "/v1/sessions/11", "", 1, "ADMIN")
    c2.SetParamNames("id")
    c2.SetParamValues("11")
    require.NoError(t, h.GetSession(c2))
    assert.Equal(t, http.StatusOK, rec2.Code)
}
