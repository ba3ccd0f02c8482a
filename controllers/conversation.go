package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
)

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// CreateConversation creates a conversation explicitly; most conversations
// are created implicitly by the first generation request instead.
func CreateConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			UserID        string `json:"user_id"`
			Title         string `json:"title"`
			InitialPrompt string `json:"initial_prompt"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
			return
		}

		conv, err := st.CreateConversation(body.UserID, body.Title, body.InitialPrompt)
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, conv)
	}
}

// ListConversations returns the user's conversations, most recently updated
// first.
func ListConversations(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}

		convs, err := st.ListConversations(userID, intQuery(c, "skip", 0), intQuery(c, "limit", 100))
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": "db error"})
			return
		}
		c.JSON(http.StatusOK, convs)
	}
}

// GetConversation returns one conversation with its animations ordered by
// version ascending.
func GetConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}

		conv, err := st.GetConversationWithAnimations(c.Param("conversation_id"), userID)
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": "conversation not found"})
			return
		}

		animations := make([]gin.H, 0, len(conv.Animations))
		for _, a := range conv.Animations {
			animations = append(animations, gin.H{
				"id":         a.ID,
				"query":      a.Query,
				"video_url":  a.VideoURL,
				"version":    a.Version,
				"quality":    a.Quality,
				"status":     a.Status,
				"success":    a.Success,
				"created_at": a.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"id":         conv.ID,
			"user_id":    conv.UserID,
			"title":      conv.Title,
			"created_at": conv.CreatedAt,
			"updated_at": conv.UpdatedAt,
			"animations": animations,
		})
	}
}

// RenameConversation updates a conversation title.
func RenameConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			UserID   string `json:"user_id"`
			NewTitle string `json:"new_title"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request body"})
			return
		}

		conv, err := st.RenameConversation(c.Param("conversation_id"), body.UserID, body.NewTitle)
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, conv)
	}
}

// DeleteConversation removes a conversation and all its animations and
// messages.
func DeleteConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}

		if err := st.DeleteConversation(c.Param("conversation_id"), userID); err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": "conversation not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// Sidebar returns the read-optimized conversation list for the UI sidebar.
func Sidebar(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "user_id is required"})
			return
		}

		entries, err := st.Sidebar(userID, intQuery(c, "skip", 0), intQuery(c, "limit", 100))
		if err != nil {
			c.JSON(statusFromErr(err), gin.H{"msg": "db error"})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
