package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/middleware"
	"github.com/abhishekgusain07/studioanimations.app/pkg/runner"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

// statusFromErr maps store/runner sentinels onto HTTP codes.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrQueueFull), errors.Is(err, runner.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GenerateAnimation accepts a generation request, persists the pending
// animation and returns immediately with the job id. Rendering happens in
// the background; clients poll the status endpoint.
func GenerateAnimation(rn *runner.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Query          string `json:"query"`
			Quality        string `json:"quality"`
			ConversationID string `json:"conversation_id"`
			UserID         string `json:"user_id"`
			PreviousCode   string `json:"previous_code"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
			return
		}
		if strings.TrimSpace(body.UserID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}
		if body.Quality == "" {
			body.Quality = "low"
		}

		if !middleware.DuplicateGuard(body.UserID, body.Query) {
			c.JSON(http.StatusTooManyRequests, gin.H{"msg": "duplicate request, please wait before resubmitting"})
			return
		}

		anim, err := rn.Submit(body.UserID, body.ConversationID, body.Query, body.Quality, body.PreviousCode)
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"id":              anim.ID,
			"success":         true,
			"video_url":       "",
			"message":         "Animation generation started",
			"conversation_id": anim.ConversationID,
			"user_id":         anim.UserID,
			"version":         anim.Version,
			"created_at":      anim.CreatedAt,
		})
	}
}

// GetAnimationStatus is the polling read. It serves entirely from the store
// and never touches the runner.
func GetAnimationStatus(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		animationID := c.Param("animation_id")
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}

		view, err := st.GetStatus(animationID, userID)
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": "animation not found"})
			return
		}

		resp := gin.H{
			"id":         view.ID,
			"status":     view.Status,
			"progress":   view.Progress,
			"created_at": view.CreatedAt,
		}
		if view.StatusMessage != "" {
			resp["status_message"] = view.StatusMessage
		}
		if view.VideoURL != "" {
			resp["video_url"] = view.VideoURL
		}
		c.JSON(http.StatusOK, resp)
	}
}
