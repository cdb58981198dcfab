package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sathvik2005/Prepforge-sub003/internal/auth"
	"github.com/Sathvik2005/Prepforge-sub003/pkg/response"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

const claimsKey = "claims"

func (app *application) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyClaimsFromAuthHeader(c, app.Config.JWT.Secret)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func verifyClaimsFromAuthHeader(c *gin.Context, secret string) (*auth.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}

	fields := strings.Fields(authHeader)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header")
	}

	claims, err := auth.ParseToken(secret, fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

func (app *application) corsMiddleware() gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, o := range app.Config.GetCORSOrigins() {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// bucket is a token bucket refilled at the configured RPS.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func (b *bucket) allow(rps float64, burst int, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens += now.Sub(b.last).Seconds() * rps
	if b.tokens > float64(burst) {
		b.tokens = float64(burst)
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (app *application) rateLimitMiddleware() gin.HandlerFunc {
	buckets := gocache.New(10*time.Minute, 15*time.Minute)
	rps := app.Config.Limiter.RPS
	burst := app.Config.Limiter.Burst
	return func(c *gin.Context) {
		ip := c.ClientIP()
		v, found := buckets.Get(ip)
		if !found {
			v = &bucket{tokens: float64(burst), last: time.Now()}
			buckets.SetDefault(ip, v)
		}
		if !v.(*bucket).allow(rps, burst, time.Now()) {
			response.TooManyRequests(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
