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

// FacilityHandler exposes the administrative CRUD surface for
// counter-model parking facilities plus the listings drivers browse
// before checking in.  The free-space counter itself is never written
// here; only the allocator and settlement touch it.
type FacilityHandler struct {
    Facilities *repository.FacilityRepo
}

// NewFacilityHandler constructs a FacilityHandler.
func NewFacilityHandler(facilities *repository.FacilityRepo) *FacilityHandler {
    if facilities == nil {
        panic("nil repository passed to NewFacilityHandler")
    }
    return &FacilityHandler{Facilities: facilities}
}

type facilityReq struct {
    Code            string `json:"code"`
    Name            string `json:"name"`
    Location        string `json:"location"`
    TotalSpaces     uint32 `json:"total_spaces"`
    FeePerHourCents uint32 `json:"fee_per_hour_cents"`
    SingleSession   *bool  `json:"single_session"` // defaults to true
}

type facilityResp struct {
    ID              uint64 `json:"id"`
    Code            string `json:"code"`
    Name            string `json:"name"`
    Location        string `json:"location"`
    TotalSpaces     uint32 `json:"total_spaces"`
    FreeSpaces      uint32 `json:"free_spaces"`
    FeePerHourCents uint32 `json:"fee_per_hour_cents"`
    SingleSession   bool   `json:"single_session"`
}

func toFacilityResp(f *model.Facility) facilityResp {
    return facilityResp{
        ID: f.ID, Code: f.Code, Name: f.Name, Location: f.Location,
        TotalSpaces: f.TotalSpaces, FreeSpaces: f.FreeSpaces,
        FeePerHourCents: f.FeePerHourCents, SingleSession: f.SingleSession,
    }
}

func (h *FacilityHandler) bindFacility(c echo.Context) (*model.Facility, error) {
    var body facilityReq
    if err := c.Bind(&body); err != nil {
        return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
    }
    code := strings.ToUpper(strings.TrimSpace(body.Code))
    name := strings.TrimSpace(body.Name)
    if code == "" || name == "" {
        return nil, echo.NewHTTPError(http.StatusBadRequest, "code and name are required")
    }
    if body.TotalSpaces == 0 {
        return nil, echo.NewHTTPError(http.StatusBadRequest, "total_spaces must be positive")
    }
    if body.FeePerHourCents == 0 {
        return nil, echo.NewHTTPError(http.StatusBadRequest, "fee_per_hour_cents must be positive")
    }
    single := true
    if body.SingleSession != nil {
        single = *body.SingleSession
    }
    return &model.Facility{
        Code:            code,
        Name:            name,
        Location:        strings.TrimSpace(body.Location),
        TotalSpaces:     body.TotalSpaces,
        FeePerHourCents: body.FeePerHourCents,
        SingleSession:   single,
    }, nil
}

// CreateFacility handles POST /v1/facilities (ADMIN).
func (h *FacilityHandler) CreateFacility(c echo.Context) error {
    f, err := h.bindFacility(c)
    if err != nil {
        he := err.(*echo.HTTPError)
        return c.JSON(he.Code, echo.Map{"error": he.Message})
    }
    if err := h.Facilities.Create(c.Request().Context(), f); err != nil {
        if repository.IsDuplicate(err) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "facility code already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create facility"})
    }
    return c.JSON(http.StatusCreated, toFacilityResp(f))
}

// UpdateFacility handles PUT /v1/facilities/:id (ADMIN).  Capacity
// edits adjust the free counter by the same delta; edits race with
// concurrent check-ins only at the counter, never below zero or above
// the new total.
func (h *FacilityHandler) UpdateFacility(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    f, err := h.bindFacility(c)
    if err != nil {
        he := err.(*echo.HTTPError)
        return c.JSON(he.Code, echo.Map{"error": he.Message})
    }
    f.ID = id
    if err := h.Facilities.Update(c.Request().Context(), f); err != nil {
        if err == repository.ErrFacilityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
        }
        if repository.IsDuplicate(err) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "facility code already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    updated, err := h.Facilities.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, toFacilityResp(updated))
}

// DeleteFacility handles DELETE /v1/facilities/:id (ADMIN).  Deletion
// is refused while sessions reference the facility so the ledger's
// audit trail stays intact.
func (h *FacilityHandler) DeleteFacility(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Facilities.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrFacilityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
        }
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "facility has sessions"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// GetFacility handles GET /v1/facilities/:id.
func (h *FacilityHandler) GetFacility(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    f, err := h.Facilities.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrFacilityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": toFacilityResp(f)})
}

// ListFacilities handles GET /v1/facilities and
// GET /v1/facilities/available; the latter hides full facilities.
func (h *FacilityHandler) ListFacilities(c echo.Context) error {
    return h.list(c, false)
}

// ListAvailableFacilities lists only facilities with free spaces.
func (h *FacilityHandler) ListAvailableFacilities(c echo.Context) error {
    return h.list(c, true)
}

func (h *FacilityHandler) list(c echo.Context, onlyAvailable bool) error {
    meta := pageMeta(c)
    items, total, err := h.Facilities.List(c.Request().Context(), onlyAvailable, meta.Offset(), meta.Limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    resp := make([]facilityResp, 0, len(items))
    for i := range items {
        resp = append(resp, toFacilityResp(&items[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": resp,
        "meta":  utils.Paginate(meta.Page, meta.Limit, total),
    })
}
