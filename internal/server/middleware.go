package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminRequired gates administrative routes behind the shared passphrase.
// A missing server-side passphrase disables the whole admin surface.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		passphrase := s.cfg.AdminPassphrase
		if passphrase == "" {
			AbortWithError(c, ErrForbidden)
			return
		}

		provided := strings.TrimSpace(c.GetHeader("X-Admin-Passphrase"))
		if provided == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(passphrase)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Next()
	}
}
