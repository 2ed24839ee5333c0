package middleware

import (
	"crypto/subtle"

	pkgerrors "coderunner/pkg/errors"
	"coderunner/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const sharedSecretHeader = "X-Judge-Secret"

// SharedSecretMiddleware rejects requests whose secret header does not
// match the configured value. An empty configured secret disables the
// check (trusted-network deployments).
func SharedSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		provided := c.GetHeader(sharedSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			response.AbortWithErrorCode(c, pkgerrors.Unauthorized, "invalid or missing service secret")
			return
		}
		c.Next()
	}
}
