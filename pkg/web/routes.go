// Package web provides API routes for the web server.
package web

import (
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
)

// BotStatus is the bot surface the status routes read
type BotStatus interface {
	IsReady() bool
	GuildCount() int
	BotUser() *discordgo.User
}

// DatabaseStatus is the database surface the status routes read
type DatabaseStatus interface {
	GetStatus() (string, bool)
}

// SuggestionCounts reads the denormalized suggestion counters
type SuggestionCounts interface {
	GlobalCount(ctx context.Context) (int64, error)
	CountForChannel(ctx context.Context, guildID, channelID string) (int64, error)
}

// Deps are the handles the API routes operate on
type Deps struct {
	Bot    BotStatus
	DB     DatabaseStatus
	Counts SuggestionCounts
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, deps Deps) {
	api := s.Group("/api")
	{
		api.GET("/status", statusHandler(deps))
		api.GET("/health", healthHandler)
		api.GET("/bot", botInfoHandler(deps))
		api.GET("/suggestions/count", suggestionCountHandler(deps))
	}
}

// statusHandler returns the bot and database status
func statusHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus, dbOnline := deps.DB.GetStatus()

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"database": gin.H{
				"status":   dbStatus,
				"isOnline": dbOnline,
			},
			"bot": gin.H{
				"isOnline": deps.Bot.IsReady(),
			},
		})
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "SuggesterGo is running",
	})
}

// botInfoHandler returns information about the bot
func botInfoHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !deps.Bot.IsReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Bot Offline",
				"message": "The bot is not available right now.",
			})
			return
		}

		user := deps.Bot.BotUser()

		c.JSON(http.StatusOK, gin.H{
			"id":            user.ID,
			"username":      user.Username,
			"discriminator": user.Discriminator,
			"avatar":        user.Avatar,
			"guilds":        deps.Bot.GuildCount(),
			"isReady":       deps.Bot.IsReady(),
		})
	}
}

// suggestionCountHandler serves the denormalized suggestion counters. With
// guild and channel query parameters it returns the per-channel count,
// without them the global count.
func suggestionCountHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		guildID := c.Query("guild")
		channelID := c.Query("channel")

		var (
			count int64
			err   error
			scope string
		)
		switch {
		case guildID != "" && channelID != "":
			scope = "channel"
			count, err = deps.Counts.CountForChannel(c.Request.Context(), guildID, channelID)
		case guildID == "" && channelID == "":
			scope = "global"
			count, err = deps.Counts.GlobalCount(c.Request.Context())
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bad Request",
				"message": "guild and channel must be given together.",
			})
			return
		}

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Counter Unavailable",
				"message": "The suggestion counters could not be read.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"scope": scope,
			"count": count,
		})
	}
}
