package handlers

import (
	"net/http"

	"serenity/services/agent"

	"github.com/gin-gonic/gin"
)

// MessageHandler is the single conversational endpoint: one client message
// in, one agent reply out.
func MessageHandler(bookingAgent agent.BookingAgent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Phone   string `json:"phone" binding:"required"`
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}

		reply, err := bookingAgent.ProcessMessage(c.Request.Context(), input.Phone, input.Message)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}
