package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/limited", RateLimit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func hit(r *gin.Engine, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/limited?user_id="+userID, nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitExhaustsPerUser(t *testing.T) {
	SetRateLimitConfig(time.Hour, 2)
	defer SetRateLimitConfig(10*time.Second, 5)
	r := newLimitedRouter()

	require.Equal(t, http.StatusOK, hit(r, "rl-user-a").Code)
	require.Equal(t, http.StatusOK, hit(r, "rl-user-a").Code)

	w := hit(r, "rl-user-a")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	// a different user has its own bucket
	require.Equal(t, http.StatusOK, hit(r, "rl-user-b").Code)
}

func hitJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/limited", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitBucketsByBodyUserID(t *testing.T) {
	SetRateLimitConfig(time.Hour, 1)
	defer SetRateLimitConfig(10*time.Second, 5)
	r := newLimitedRouter()

	// two users behind the same IP get separate buckets
	require.Equal(t, http.StatusOK, hitJSON(r, `{"user_id":"rl-body-a","query":"one"}`).Code)
	require.Equal(t, http.StatusOK, hitJSON(r, `{"user_id":"rl-body-b","query":"one"}`).Code)

	// each bucket still exhausts on its own
	require.Equal(t, http.StatusTooManyRequests, hitJSON(r, `{"user_id":"rl-body-a","query":"two"}`).Code)
	require.Equal(t, http.StatusTooManyRequests, hitJSON(r, `{"user_id":"rl-body-b","query":"two"}`).Code)
}

func TestRateLimitRestoresBodyForHandler(t *testing.T) {
	SetRateLimitConfig(time.Hour, 5)
	defer SetRateLimitConfig(10*time.Second, 5)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seen string
	r.POST("/limited", RateLimit(), func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		seen = string(raw)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	body := `{"user_id":"rl-body-c","query":"a circle"}`
	require.Equal(t, http.StatusOK, hitJSON(r, body).Code)
	require.Equal(t, body, seen)
}

func TestRateLimitRefills(t *testing.T) {
	SetRateLimitConfig(30*time.Millisecond, 1)
	defer SetRateLimitConfig(10*time.Second, 5)
	r := newLimitedRouter()

	require.Equal(t, http.StatusOK, hit(r, "rl-user-c").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(r, "rl-user-c").Code)

	time.Sleep(60 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit(r, "rl-user-c").Code)
}

func TestDuplicateGuard(t *testing.T) {
	SetDuplicateTTL(time.Hour)
	defer SetDuplicateTTL(45 * time.Second)

	require.True(t, DuplicateGuard("dg-user-a", "draw a circle"))
	require.False(t, DuplicateGuard("dg-user-a", "draw a circle"))
	// whitespace-only differences still count as the same query
	require.False(t, DuplicateGuard("dg-user-a", "  draw a circle  "))

	require.True(t, DuplicateGuard("dg-user-a", "draw a square"))
	require.True(t, DuplicateGuard("dg-user-b", "draw a square"))
}

func TestDuplicateGuardExpires(t *testing.T) {
	SetDuplicateTTL(20 * time.Millisecond)
	defer SetDuplicateTTL(45 * time.Second)

	require.True(t, DuplicateGuard("dg-user-c", "same thing"))
	time.Sleep(40 * time.Millisecond)
	require.True(t, DuplicateGuard("dg-user-c", "same thing"))
}
