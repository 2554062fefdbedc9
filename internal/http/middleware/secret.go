// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements SharedSecret, the authentication gate for the public
// API surface. Form frontends authenticate with a single static secret sent
// in the X-Form-Secret header; there are no per-user identities.
//
// Design notes:
//   - Comparison uses crypto/subtle so response timing does not leak how much
//     of the secret matched.
//   - An empty *configured* secret fails closed: every request is rejected
//     until FORM_SHARED_SECRET is set. A webhook that silently accepts
//     unauthenticated traffic is worse than one that is down.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HeaderFormSecret is the header carrying the shared webhook secret.
const HeaderFormSecret = "X-Form-Secret"

// SharedSecret returns a Gin middleware that rejects requests whose
// X-Form-Secret header does not match the configured secret.
//
// Behavior:
//   - Missing or mismatching header → 401 with the standard error envelope.
//   - Empty configured secret → all requests rejected (fail closed).
//   - The presented secret value is never logged.
//
// The 401 body mirrors the envelope written by handlers.fail; it is inlined
// here so the middleware package does not depend on handlers.
func SharedSecret(secret string) gin.HandlerFunc {
	secretBytes := []byte(secret)
	return func(c *gin.Context) {
		presented := c.GetHeader(HeaderFormSecret)
		if secret == "" ||
			subtle.ConstantTimeCompare(secretBytes, []byte(presented)) != 1 {
			log.Warn().
				Str("remote_ip", c.ClientIP()).
				Bool("secret_configured", secret != "").
				Msg("shared_secret_rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "invalid or missing form secret",
			})
			return
		}
		c.Next()
	}
}
