package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-reservation/internal/handler"
    "github.com/iliyamo/parking-reservation/internal/middleware"
)

// ParkingHandlers bundles the handlers the parking routes dispatch to.
type ParkingHandlers struct {
    Facilities *handler.FacilityHandler
    Spots      *handler.SpotHandler
    Sessions   *handler.SessionHandler
    Reports    *handler.ReportHandler
}

// RegisterParking registers the parking endpoints under /v1.  Driver-facing
// routes require a valid JWT with the USER or ADMIN role; management and
// reporting routes require ADMIN.  cacheMW, when non-nil, is applied to the
// read-heavy availability listings only, so capacity mutations are never
// served stale.
func RegisterParking(e *echo.Echo, h ParkingHandlers, jwtSecret string, cacheMW echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("USER", "ADMIN"),
    )

    // ---- Availability ----
    if cacheMW != nil {
        g.GET("/facilities/available", h.Facilities.ListAvailableFacilities, cacheMW)
        g.GET("/spots/available", h.Spots.ListAvailableSpots, cacheMW)
    } else {
        g.GET("/facilities/available", h.Facilities.ListAvailableFacilities)
        g.GET("/spots/available", h.Spots.ListAvailableSpots)
    }
    g.GET("/facilities", h.Facilities.ListFacilities)
    g.GET("/facilities/:id", h.Facilities.GetFacility)
    g.GET("/spots", h.Spots.ListSpots)
    g.GET("/spots/:id", h.Spots.GetSpot)

    // ---- Sessions ----
    g.POST("/sessions/check-in", h.Sessions.CheckIn)
    g.POST("/sessions/:id/checkout", h.Sessions.CheckOut)
    g.GET("/sessions", h.Sessions.ListSessions)
    g.GET("/sessions/:id", h.Sessions.GetSession)

    admin := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )

    // ---- Facilities ----
    admin.POST("/facilities", h.Facilities.CreateFacility)
    admin.PUT("/facilities/:id", h.Facilities.UpdateFacility)
    admin.PATCH("/facilities/:id", h.Facilities.UpdateFacility)
    admin.DELETE("/facilities/:id", h.Facilities.DeleteFacility)

    // ---- Spots ----
    admin.POST("/spots", h.Spots.CreateSpot)
    admin.POST("/spots/generate", h.Spots.GenerateSpots)
    admin.DELETE("/spots/:id", h.Spots.DeleteSpot)

    // ---- Reports ----
    admin.GET("/reports/entries", h.Reports.Entries)
    admin.GET("/reports/exits", h.Reports.Exits)
}
