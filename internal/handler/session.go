package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-reservation/internal/model"
    "github.com/iliyamo/parking-reservation/internal/queue"
    "github.com/iliyamo/parking-reservation/internal/repository"
    "github.com/iliyamo/parking-reservation/internal/utils"
)

// ParkingCore is the slice of the service layer the session handlers
// call.  It is an interface so handler tests can substitute a stub.
type ParkingCore interface {
    CheckIn(ctx context.Context, userID uint64, facilityID, spotID *uint64) (*model.Session, error)
    CheckOut(ctx context.Context, sessionID, callerID uint64, callerRole string) (*model.Session, error)
}

// SessionReader is the read-only ledger access used for listings.
type SessionReader interface {
    GetDetail(ctx context.Context, id uint64) (*repository.SessionDetail, error)
    List(ctx context.Context, filter repository.SessionFilter, offset, limit int) ([]repository.SessionDetail, int, error)
}

// SessionHandler wires the occupancy core and the ledger reads to
// HTTP.  All methods assume JWT authentication and role validation
// have already run; they may still return 401 when the user ID cannot
// be extracted from the context.
type SessionHandler struct {
    Core    ParkingCore
    Reader  SessionReader
    Publish func(ctx context.Context, ev queue.SessionClosedEvent) error // nil disables events
}

// NewSessionHandler constructs a SessionHandler.  Publish may be nil
// when no broker is configured.
func NewSessionHandler(core ParkingCore, reader SessionReader, publish func(ctx context.Context, ev queue.SessionClosedEvent) error) *SessionHandler {
    if core == nil || reader == nil {
        panic("nil dependency passed to NewSessionHandler")
    }
    return &SessionHandler{Core: core, Reader: reader, Publish: publish}
}

type checkInReq struct {
    FacilityID *uint64 `json:"facility_id"`
    SpotID     *uint64 `json:"spot_id"`
}

// sessionJSON renders a model.Session for check-in/checkout replies.
func sessionJSON(s *model.Session) echo.Map {
    m := echo.Map{
        "id":         s.ID,
        "user_id":    s.UserID,
        "entry_time": s.EntryTime.UTC().Format(time.RFC3339),
        "status":     "open",
    }
    if s.FacilityID != nil {
        m["facility_id"] = *s.FacilityID
    }
    if s.SpotID != nil {
        m["spot_id"] = *s.SpotID
    }
    if s.ExitTime != nil {
        m["exit_time"] = s.ExitTime.UTC().Format(time.RFC3339)
        m["status"] = "closed"
    }
    if s.BilledHours != nil {
        m["billed_hours"] = *s.BilledHours
    }
    if s.ChargedAmountCents != nil {
        m["charged_amount_cents"] = *s.ChargedAmountCents
    }
    return m
}

// CheckIn handles POST /v1/sessions/check-in.  The body names exactly
// one of facility_id or spot_id.  On success the session is open and
// one unit of capacity is consumed; on any failure neither happened.
func (h *SessionHandler) CheckIn(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body checkInReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if (body.FacilityID == nil) == (body.SpotID == nil) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "exactly one of facility_id or spot_id is required"})
    }
    if (body.FacilityID != nil && *body.FacilityID == 0) || (body.SpotID != nil && *body.SpotID == 0) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
    }

    s, err := h.Core.CheckIn(c.Request().Context(), userID, body.FacilityID, body.SpotID)
    if err != nil {
        switch err {
        case repository.ErrFacilityNotFound, repository.ErrSpotNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
        case repository.ErrUnavailable:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "no capacity available"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "an open session already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
    }
    return c.JSON(http.StatusCreated, sessionJSON(s))
}

// CheckOut handles POST /v1/sessions/:id/checkout.  The caller must
// own the session or hold the ADMIN role.  A closed session is
// immutable: a second checkout returns 409 and changes nothing.
func (h *SessionHandler) CheckOut(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || sessionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }

    s, err := h.Core.CheckOut(c.Request().Context(), sessionID, userID, getRole(c))
    if err != nil {
        switch err {
        case repository.ErrSessionNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        case repository.ErrSessionClosed:
            return c.JSON(http.StatusConflict, echo.Map{"error": "session already closed"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
    }

    if h.Publish != nil {
        // Settlement already committed; a publish failure is logged by
        // the publisher and must not fail the checkout.
        _ = h.Publish(c.Request().Context(), queue.NewSessionClosedEvent(s))
    }
    return c.JSON(http.StatusOK, sessionJSON(s))
}

// ListSessions handles GET /v1/sessions.  USER callers see their own
// sessions; ADMIN callers see everyone's.  The optional status query
// parameter filters open or closed sessions.
func (h *SessionHandler) ListSessions(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    filter := repository.SessionFilter{}
    if !isAdmin(c) {
        filter.UserID = userID
    }
    switch status := c.QueryParam("status"); status {
    case "", "open", "closed":
        filter.Status = status
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be open or closed"})
    }
    meta := pageMeta(c)
    items, total, err := h.Reader.List(c.Request().Context(), filter, meta.Offset(), meta.Limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sessions"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": items,
        "meta":  utils.Paginate(meta.Page, meta.Limit, total),
    })
}

// GetSession handles GET /v1/sessions/:id.  Non-admin callers can
// only read their own sessions; other sessions return 404 rather
// than disclosing that the ID exists.
func (h *SessionHandler) GetSession(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    d, err := h.Reader.GetDetail(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrSessionNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load session"})
    }
    if !isAdmin(c) && d.UserID != userID {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": d})
}
