package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

var (
	rlMu        sync.Mutex
	buckets     = map[string]*bucket{}
	window      = 10 * time.Second
	capacity    = 5
	refillPerWd = capacity

	dupMu   sync.Mutex
	lastMsg = map[string]struct {
		text string
		ts   time.Time
	}{}
	dupTTL = 45 * time.Second
)

func SetRateLimitConfig(win time.Duration, cap int) {
	rlMu.Lock()
	window = win
	capacity = cap
	refillPerWd = cap
	rlMu.Unlock()
}

func SetDuplicateTTL(ttl time.Duration) {
	dupMu.Lock()
	dupTTL = ttl
	dupMu.Unlock()
}

func clientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return ip
}

// userKey buckets by the caller-declared user id plus client IP; user
// identity comes in as a request field, there is no auth layer in front.
// The generate endpoint carries user_id in the JSON body, so the body is
// peeked when the query param is absent.
func userKey(c *gin.Context) string {
	uid := strings.TrimSpace(c.Query("user_id"))
	if uid == "" {
		uid = bodyUserID(c)
	}
	return uid + "@" + clientIP(c)
}

// bodyUserID reads user_id out of a JSON body and restores the body so the
// handler can still bind it.
func bodyUserID(c *gin.Context) string {
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var peek struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return ""
	}
	return strings.TrimSpace(peek.UserID)
}

// RateLimit is a token bucket guarding the expensive generation endpoint.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := userKey(c)
		now := time.Now()

		rlMu.Lock()
		b := buckets[key]
		if b == nil {
			b = &bucket{tokens: capacity, lastRefill: now}
			buckets[key] = b
		}
		elapsed := now.Sub(b.lastRefill)
		if elapsed > 0 {
			add := int(float64(refillPerWd) * (float64(elapsed) / float64(window)))
			if add > 0 {
				b.tokens += add
				if b.tokens > capacity {
					b.tokens = capacity
				}
				b.lastRefill = now
			}
		}
		if b.tokens <= 0 {
			rlMu.Unlock()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "too many requests"})
			return
		}
		b.tokens--
		rlMu.Unlock()

		c.Next()
	}
}

// DuplicateGuard rejects an identical back-to-back generation query from the
// same user within the duplicate window. Returns false when the request
// should be rejected.
func DuplicateGuard(uid string, text string) bool {
	now := time.Now()
	k := uid
	dupMu.Lock()
	entry, ok := lastMsg[k]
	if ok && entry.text == strings.TrimSpace(text) && now.Sub(entry.ts) < dupTTL {
		dupMu.Unlock()
		return false
	}
	lastMsg[k] = struct {
		text string
		ts   time.Time
	}{text: strings.TrimSpace(text), ts: now}
	dupMu.Unlock()
	return true
}
