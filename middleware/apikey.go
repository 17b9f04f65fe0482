package middleware

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

// AgentAuth gates print-agent endpoints. Agents authenticate with the
// shared AGENT_API_KEY and name their store through the X-Store-Slug
// header or a ?store= query parameter; the resolved store id lands on
// the context the same way it does for JWT callers.
func AgentAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey == "" || apiKey != os.Getenv("AGENT_API_KEY") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			c.Abort()
			return
		}

		slug := c.GetHeader("X-Store-Slug")
		if slug == "" {
			slug = c.Query("store")
		}
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "store slug is required"})
			c.Abort()
			return
		}

		var store models.Store
		if err := db.Where("slug = ? AND is_active = ?", slug, true).First(&store).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			c.Abort()
			return
		}
		c.Set("store_id", store.ID)
		c.Set("role", "agent")

		c.Next()
	}
}
