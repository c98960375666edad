package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(s *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerHealth(t *testing.T) {
	s := NewServer(nil, nil, WithMetrics("", 0))
	rec := serve(s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServerCORSOrigins(t *testing.T) {
	routes := HandlerFunc(func(e *echo.Echo) {
		e.GET("/api/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	})
	s := NewServer(nil, []Handler{routes}, WithMetrics("", 0), WithCORS("https://app.example"))

	rec := serve(s, http.MethodGet, "/api/ping", map[string]string{echo.HeaderOrigin: "https://app.example"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, echo.HeaderOrigin, rec.Header().Get(echo.HeaderVary))

	rec = serve(s, http.MethodGet, "/api/ping", map[string]string{echo.HeaderOrigin: "https://evil.example"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(s, http.MethodOptions, "/api/ping", map[string]string{
		echo.HeaderOrigin:                     "https://app.example",
		echo.HeaderAccessControlRequestMethod: http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Equal(t, "3600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}

func TestServerCORSWildcardAndDisabled(t *testing.T) {
	origin := map[string]string{echo.HeaderOrigin: "https://any.example"}

	s := NewServer(nil, nil, WithMetrics("", 0))
	rec := serve(s, http.MethodGet, "/healthz", origin)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	s = NewServer(nil, nil, WithMetrics("", 0), WithCORS())
	rec = serve(s, http.MethodGet, "/healthz", origin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
