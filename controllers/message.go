package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

// CreateMessage appends a message to a conversation, optionally linking it
// to an animation.
func CreateMessage(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ConversationID string  `json:"conversation_id"`
			UserID         string  `json:"user_id"`
			Content        string  `json:"content"`
			Type           string  `json:"type"`
			AnimationID    *string `json:"animation_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
			return
		}

		msg, err := st.CreateMessage(body.ConversationID, body.UserID, body.Content, body.Type, body.AnimationID)
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

// ListMessages returns a conversation's messages in chronological order.
func ListMessages(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}

		msgs, total, err := st.ListMessages(c.Param("conversation_id"), userID, intQuery(c, "skip", 0), intQuery(c, "limit", 100))
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": "conversation not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"messages": msgs,
			"count":    total,
		})
	}
}
