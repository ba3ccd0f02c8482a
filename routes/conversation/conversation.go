package conversation

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/controllers"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

// Register registers conversation routes.
func Register(g *gin.RouterGroup, st *store.Store) {
	g.POST("/conversations", controllers.CreateConversation(st))
	g.GET("/conversations", controllers.ListConversations(st))
	g.GET("/conversations/:conversation_id", controllers.GetConversation(st))
	g.PATCH("/conversations/:conversation_id/rename", controllers.RenameConversation(st))
	g.DELETE("/conversations/:conversation_id", controllers.DeleteConversation(st))
	g.GET("/sidebar", controllers.Sidebar(st))
}
