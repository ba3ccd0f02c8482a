package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

// Health reports database reachability and animation lifecycle counts.
func Health(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		summary, err := st.Health()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"animations": summary,
		})
	}
}
