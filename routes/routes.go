package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/controllers"
	"github.com/abhishekgusain07/studioanimations.app/pkg/runner"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"

	animationRoutes "github.com/abhishekgusain07/studioanimations.app/routes/animation"
	convRoutes "github.com/abhishekgusain07/studioanimations.app/routes/conversation"
	messageRoutes "github.com/abhishekgusain07/studioanimations.app/routes/message"
)

func RegisterRoutes(r *gin.Engine, st *store.Store, rn *runner.Runner) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "animation generation backend running"})
	})
	r.GET("/health", controllers.Health(st))

	api := r.Group("/api")
	animationRoutes.Register(api, st, rn)
	convRoutes.Register(api, st)
	messageRoutes.Register(api, st)
}
