package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SkipPrefixes: []string{"/api/"}}))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/form", ok)
	e.POST("/form", ok)
	e.POST("/api/thing", ok)
	return e
}

func issueToken(t *testing.T, e *echo.Echo) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "XSRF-TOKEN" {
			assert.Equal(t, ck.Value, rec.Header().Get("X-CSRF-Token"))
			return ck
		}
	}
	t.Fatal("no CSRF cookie issued")
	return nil
}

func postForm(e *echo.Echo, ck *http.Cookie, token, origin string) int {
	form := url.Values{"csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware(t *testing.T) {
	e := newServer()
	ck := issueToken(t, e)

	assert.Equal(t, http.StatusOK, postForm(e, ck, ck.Value, "http://example.com"))
	assert.Equal(t, http.StatusForbidden, postForm(e, ck, "forged", "http://example.com"))
	assert.Equal(t, http.StatusForbidden, postForm(e, ck, ck.Value, "http://evil.test"))
	assert.Equal(t, http.StatusForbidden, postForm(e, ck, ck.Value, ""))
	assert.Equal(t, http.StatusForbidden, postForm(e, nil, "", "http://example.com"))
}

func TestMiddleware_SkipsAPI(t *testing.T) {
	e := newServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/thing", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
