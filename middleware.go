package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"
)

// clientLimiter is a per-client token bucket and when it was last used.
type clientLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

// getLimiter returns a rate limiter for the given key (usually client IP).
func (app *App) getLimiter(key string) *rate.Limiter {
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	if lim, ok := app.LimiterMap[key]; ok {
		lim.lastSeen = time.Now()
		return lim.Limiter
	}
	if key == "" {
		logWarn("Rate limiter key is empty")
	}
	rps := max(app.RateLimitRPS, 1)
	lim := &clientLimiter{
		Limiter:  rate.NewLimiter(rate.Limit(rps), max(app.RateLimitBurst, 1)),
		lastSeen: time.Now(),
	}
	app.LimiterMap[key] = lim
	return lim.Limiter
}

// evictIdleLimiters drops limiters unused within timeout and reports how
// many were removed. A client that comes back starts with a full bucket.
func (app *App) evictIdleLimiters(timeout time.Duration) int {
	cutoff := time.Now().Add(-timeout)
	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	n := 0
	for key, lim := range app.LimiterMap {
		if lim.lastSeen.Before(cutoff) {
			delete(app.LimiterMap, key)
			n++
		}
	}
	return n
}

// rateLimitMiddleware enforces per-client rate limiting on mutating routes.
func (app *App) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !app.getLimiter(key).Allow() {
			requestLogger(c.Request.Context()).Warn().Str("ip", key).Msg("rate limit exceeded")
			if isHTMX(c) {
				c.Header("HX-Trigger", "rate-limit-exceeded")
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}

// requestIDMiddleware tags each request with an ID and a logger carrying it.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey, reqID)
		ctx = log.With().Str("request_id", reqID).Logger().WithContext(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

// cacheHeadersMiddleware lets browsers cache static assets in production
// and nothing else.
func (app *App) cacheHeadersMiddleware() gin.HandlerFunc {
	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})
	static := cachecontrol.New(cachecontrol.Config{
		Public: true,
		MaxAge: cachecontrol.Duration(app.StaticCacheAge),
	})
	return func(c *gin.Context) {
		if app.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
			static(c)
			c.Header("Vary", "Accept-Encoding")
			return
		}
		noStore(c)
	}
}

// accessLogMiddleware replaces gin's default logger with zerolog.
func accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLogger(c.Request.Context()).Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
