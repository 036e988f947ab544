package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/restaurant/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(&config.SessionConfig{CookieName: "sid", MaxAge: time.Hour}))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, IDFromContext(c.Request.Context()))
	})
	return r
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "sid" {
			return ck
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestIssuesCookie(t *testing.T) {
	r := newRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	ck := sessionCookie(t, w)
	require.NoError(t, uuid.Validate(ck.Value))
	assert.Equal(t, ck.Value, w.Body.String())
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, 3600, ck.MaxAge)
}

func TestReusesCookie(t *testing.T) {
	r := newRouter()
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: id})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, id, sessionCookie(t, w).Value)
}

func TestReplacesMalformedCookie(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "../../etc"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "../../etc", w.Body.String())
	assert.NoError(t, uuid.Validate(w.Body.String()))
}

func TestIDFromEmptyContext(t *testing.T) {
	assert.Empty(t, IDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
