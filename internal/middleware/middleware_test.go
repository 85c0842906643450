package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-reservation/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, bool) {
    t.Helper()
    e := echo.New()
    nextCalled := false
    h := mw(func(c echo.Context) error {
        nextCalled = true
        return c.NoContent(http.StatusOK)
    })

    req := httptest.NewRequest(http.MethodGet, "/protected", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    require.NoError(t, h(c))
    return rec, nextCalled
}

func TestJWTAuth_ValidToken(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, 42, "USER", 5)
    require.NoError(t, err)

    e := echo.New()
    var gotRole interface{}
    var gotSub interface{}
    h := JWTAuth(testSecret)(func(c echo.Context) error {
        gotSub = c.Get("user_id")
        gotRole = c.Get("role")
        return c.NoContent(http.StatusOK)
    })

    req := httptest.NewRequest(http.MethodGet, "/protected", nil)
    req.Header.Set("Authorization", "Bearer "+tok.Token)
    rec := httptest.NewRecorder()
    require.NoError(t, h(e.NewContext(req, rec)))

    assert.Equal(t, http.StatusOK, rec.Code)
    // jwt.MapClaims round-trips numbers as float64
    assert.Equal(t, float64(42), gotSub)
    assert.Equal(t, "USER", gotRole)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
    rec, nextCalled := runProtected(t, JWTAuth(testSecret), "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.False(t, nextCalled)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
    tok, err := utils.NewAccessToken("other-secret", 42, "USER", 5)
    require.NoError(t, err)

    rec, nextCalled := runProtected(t, JWTAuth(testSecret), "Bearer "+tok.Token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.False(t, nextCalled)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, 42, "USER", -5)
    require.NoError(t, err)

    rec, nextCalled := runProtected(t, JWTAuth(testSecret), "Bearer "+tok.Token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.False(t, nextCalled)
}

func TestRequireRole(t *testing.T) {
    tests := []struct {
        name     string
        allowed  []string
        role     interface{}
        wantCode int
    }{
        {"admin allowed", []string{"ADMIN"}, "ADMIN", http.StatusOK},
        {"user rejected on admin route", []string{"ADMIN"}, "USER", http.StatusForbidden},
        {"user allowed on shared route", []string{"USER", "ADMIN"}, "USER", http.StatusOK},
        {"missing role rejected", []string{"USER"}, nil, http.StatusForbidden},
        {"non-string role rejected", []string{"USER"}, 17, http.StatusForbidden},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            e := echo.New()
            h := RequireRole(tt.allowed...)(func(c echo.Context) error {
                return c.NoContent(http.StatusOK)
            })
            req := httptest.NewRequest(http.MethodGet, "/", nil)
            rec := httptest.NewRecorder()
            c := e.NewContext(req, rec)
            if tt.role != nil {
                c.Set("role", tt.role)
            }
            require.NoError(t, h(c))
            assert.Equal(t, tt.wantCode, rec.Code)
        })
    }
}

func TestCurrentUserID(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    assert.Equal(t, "anon", currentUserID(c))

    c.Set("user_id", "17")
    assert.Equal(t, "17", currentUserID(c))

    // JWT claims decode numeric subjects as float64.
    c.Set("user_id", float64(42))
    assert.Equal(t, "42", currentUserID(c))
}
