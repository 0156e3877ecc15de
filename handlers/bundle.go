package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups every endpoint handler so routes can be registered
// from one place.
type HandlerBundle struct {
	// Conversation endpoint
	MessageHandler gin.HandlerFunc

	// Catalog / availability endpoints
	ServicesHandler     gin.HandlerFunc
	AvailabilityHandler gin.HandlerFunc

	// Payment webhook
	StripeWebhookHandler gin.HandlerFunc

	// Admin endpoints
	AdminLoginHandler        gin.HandlerFunc
	AdminAppointmentsHandler gin.HandlerFunc
	AdminCancelHandler       gin.HandlerFunc
	AdminCompleteHandler     gin.HandlerFunc
	AdminClientHandler       gin.HandlerFunc
}
