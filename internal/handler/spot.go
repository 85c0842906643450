package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-reservation/internal/model"
    "github.com/iliyamo/parking-reservation/internal/repository"
    "github.com/iliyamo/parking-reservation/internal/utils"
)

// SpotHandler exposes the administrative CRUD surface for flag-model
// parking spots.  Like facilities, the occupied flag is read-only
// here; only check-in and checkout flip it.
type SpotHandler struct {
    Spots *repository.SpotRepo
}

// NewSpotHandler constructs a SpotHandler.
func NewSpotHandler(spots *repository.SpotRepo) *SpotHandler {
    if spots == nil {
        panic("nil repository passed to NewSpotHandler")
    }
    return &SpotHandler{Spots: spots}
}

type spotResp struct {
    ID              uint64 `json:"id"`
    SpotNumber      string `json:"spot_number"`
    FeePerHourCents uint32 `json:"fee_per_hour_cents"`
    IsOccupied      bool   `json:"is_occupied"`
    SingleSession   bool   `json:"single_session"`
}

func toSpotResp(s *model.Spot) spotResp {
    return spotResp{
        ID: s.ID, SpotNumber: s.SpotNumber, FeePerHourCents: s.FeePerHourCents,
        IsOccupied: s.IsOccupied, SingleSession: s.SingleSession,
    }
}

// CreateSpot handles POST /v1/spots (ADMIN).
func (h *SpotHandler) CreateSpot(c echo.Context) error {
    var body struct {
        SpotNumber      string `json:"spot_number"`
        FeePerHourCents uint32 `json:"fee_per_hour_cents"`
        SingleSession   *bool  `json:"single_session"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    number := strings.ToUpper(strings.TrimSpace(body.SpotNumber))
    if number == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "spot_number is required"})
    }
    if body.FeePerHourCents == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "fee_per_hour_cents must be positive"})
    }
    single := true
    if body.SingleSession != nil {
        single = *body.SingleSession
    }
    s := &model.Spot{SpotNumber: number, FeePerHourCents: body.FeePerHourCents, SingleSession: single}
    if err := h.Spots.Create(c.Request().Context(), s); err != nil {
        if repository.IsDuplicate(err) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "spot number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create spot"})
    }
    return c.JSON(http.StatusCreated, toSpotResp(s))
}

// GenerateSpots handles POST /v1/spots/generate (ADMIN).  It creates
// prefix1..prefixN in one call, skipping labels that already exist so
// the operation can be re-run after adding capacity.
func (h *SpotHandler) GenerateSpots(c echo.Context) error {
    var body struct {
        Prefix          string `json:"prefix"`
        Count           int    `json:"count"`
        FeePerHourCents uint32 `json:"fee_per_hour_cents"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    prefix := strings.ToUpper(strings.TrimSpace(body.Prefix))
    if prefix == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "prefix is required"})
    }
    if body.Count < 1 || body.Count > 1000 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be between 1 and 1000"})
    }
    if body.FeePerHourCents == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "fee_per_hour_cents must be positive"})
    }
    created, err := h.Spots.GenerateBulk(c.Request().Context(), prefix, body.Count, body.FeePerHourCents)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate spots"})
    }
    resp := make([]spotResp, 0, len(created))
    for i := range created {
        resp = append(resp, toSpotResp(&created[i]))
    }
    return c.JSON(http.StatusCreated, echo.Map{"created": resp})
}

// DeleteSpot handles DELETE /v1/spots/:id (ADMIN).  Occupied spots and
// spots referenced by the session ledger cannot be deleted.
func (h *SpotHandler) DeleteSpot(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Spots.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrSpotNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
        }
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "spot is occupied or has sessions"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// GetSpot handles GET /v1/spots/:id.
func (h *SpotHandler) GetSpot(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    s, err := h.Spots.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrSpotNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": toSpotResp(s)})
}

// ListSpots handles GET /v1/spots.
func (h *SpotHandler) ListSpots(c echo.Context) error {
    return h.list(c, false)
}

// ListAvailableSpots handles GET /v1/spots/available.
func (h *SpotHandler) ListAvailableSpots(c echo.Context) error {
    return h.list(c, true)
}

func (h *SpotHandler) list(c echo.Context, onlyAvailable bool) error {
    meta := pageMeta(c)
    items, total, err := h.Spots.List(c.Request().Context(), onlyAvailable, meta.Offset(), meta.Limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    resp := make([]spotResp, 0, len(items))
    for i := range items {
        resp = append(resp, toSpotResp(&items[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": resp,
        "meta":  utils.Paginate(meta.Page, meta.Limit, total),
    })
}
