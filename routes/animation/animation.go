package animation

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/controllers"
	"github.com/abhishekgusain07/studioanimations.app/middleware"
	"github.com/abhishekgusain07/studioanimations.app/pkg/runner"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

// Register registers animation routes. The generate endpoint is rate
// limited; status polling is not.
func Register(g *gin.RouterGroup, st *store.Store, rn *runner.Runner) {
	g.POST("/generate-animation", middleware.RateLimit(), controllers.GenerateAnimation(rn))
	g.GET("/animations/:animation_id/status", controllers.GetAnimationStatus(st))
}
