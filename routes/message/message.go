package message

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/controllers"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

// Register registers message routes.
func Register(g *gin.RouterGroup, st *store.Store) {
	g.POST("/messages", controllers.CreateMessage(st))
	g.GET("/conversations/:conversation_id/messages", controllers.ListMessages(st))
}
