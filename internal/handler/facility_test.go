package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-reservation/internal/repository"
)

func bindCtx(t *testing.T, body string) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/facilities", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    return e.NewContext(req, httptest.NewRecorder())
}

func TestBindFacility(t *testing.T) {
    h := NewFacilityHandler(repository.NewFacilityRepo(nil))

    t.Run("valid payload", func(t *testing.T) {
        f, err := h.bindFacility(bindCtx(t, `{"code":"p-01","name":"Central Garage","location":"Main St","total_spaces":120,"fee_per_hour_cents":200}`))
        require.NoError(t, err)
        assert.Equal(t, "P-01", f.Code, "codes are upper-cased")
        assert.Equal(t, uint32(120), f.TotalSpaces)
        assert.True(t, f.SingleSession, "single_session defaults to true")
    })

    t.Run("single_session can be disabled", func(t *testing.T) {
        f, err := h.bindFacility(bindCtx(t, `{"code":"P2","name":"Lot","total_spaces":5,"fee_per_hour_cents":100,"single_session":false}`))
        require.NoError(t, err)
        assert.False(t, f.SingleSession)
    })

    rejected := []struct {
        name string
        body string
    }{
        {"missing code", `{"name":"Lot","total_spaces":5,"fee_per_hour_cents":100}`},
        {"blank name", `{"code":"P1","name":"  ","total_spaces":5,"fee_per_hour_cents":100}`},
        {"zero capacity", `{"code":"P1","name":"Lot","total_spaces":0,"fee_per_hour_cents":100}`},
        {"zero fee", `{"code":"P1","name":"Lot","total_spaces":5,"fee_per_hour_cents":0}`},
        {"malformed json", `{"code":`},
    }
    for _, tt := range rejected {
        t.Run(tt.name, func(t *testing.T) {
            _, err := h.bindFacility(bindCtx(t, tt.body))
            require.Error(t, err)
            he, ok := err.(*echo.HTTPError)
            require.True(t, ok)
            assert.Equal(t, http.StatusBadRequest, he.Code)
        })
    }
}
