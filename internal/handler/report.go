package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-reservation/internal/repository"
    "github.com/iliyamo/parking-reservation/internal/utils"
)

// ReportHandler serves the admin entry/exit reports.  Routes using it
// must be guarded by RequireRole("ADMIN").
type ReportHandler struct {
    Reader SessionReader
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reader SessionReader) *ReportHandler {
    if reader == nil {
        panic("nil reader passed to NewReportHandler")
    }
    return &ReportHandler{Reader: reader}
}

// parseTimeRange reads optional from/to query parameters in RFC 3339.
func parseTimeRange(c echo.Context) (from, to *time.Time, err error) {
    if raw := c.QueryParam("from"); raw != "" {
        t, perr := time.Parse(time.RFC3339, raw)
        if perr != nil {
            return nil, nil, perr
        }
        from = &t
    }
    if raw := c.QueryParam("to"); raw != "" {
        t, perr := time.Parse(time.RFC3339, raw)
        if perr != nil {
            return nil, nil, perr
        }
        to = &t
    }
    return from, to, nil
}

func (h *ReportHandler) report(c echo.Context, timeField, status string) error {
    from, to, err := parseTimeRange(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be RFC 3339 timestamps"})
    }
    filter := repository.SessionFilter{
        Status:    status,
        TimeField: timeField,
        From:      from,
        To:        to,
    }
    meta := pageMeta(c)
    items, total, err := h.Reader.List(c.Request().Context(), filter, meta.Offset(), meta.Limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build report"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items": items,
        "meta":  utils.Paginate(meta.Page, meta.Limit, total),
    })
}

// Entries handles GET /v1/reports/entries: every session whose entry
// time falls inside the requested window, open or closed.
func (h *ReportHandler) Entries(c echo.Context) error {
    return h.report(c, "entry", "")
}

// Exits handles GET /v1/reports/exits: closed sessions whose exit
// time falls inside the requested window, including what was billed.
func (h *ReportHandler) Exits(c echo.Context) error {
    return h.report(c, "exit", "closed")
}
