package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ExportKeyHeader carries the shared export key on machine-to-machine
// export requests.
const ExportKeyHeader = "X-Export-Key"

// ExportKeyAuth validates the export key against its bcrypt hash from
// configuration. Only the hash is ever stored; the comparison is
// constant-time. Used for BI pulls of the XLSX export that run without a
// vendor session.
func ExportKeyAuth(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		plaintext := c.GetHeader(ExportKeyHeader)
		if plaintext == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing export key"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(plaintext)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid export key"})
			return
		}

		c.Next()
	}
}
