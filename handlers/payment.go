package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"serenity/services/appointment"
	"serenity/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// maxWebhookBody caps the webhook payload read, per Stripe's recommendation.
const maxWebhookBody = 65536

// StripeWebhookHandler consumes Stripe events. On checkout.session.completed
// it records the deposit against the appointment carried in the session
// metadata, so bookings confirm even if the client never messages back.
func StripeWebhookHandler(lifecycle appointment.Service, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
			return
		}

		event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), webhookSecret)
		if err != nil {
			logger.Warn("Rejected webhook with bad signature", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}

		if event.Type != "checkout.session.completed" {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			logger.Error("Failed to decode checkout session event", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
			return
		}

		apptID := sess.Metadata["appointment_id"]
		if apptID == "" {
			logger.Warn("Checkout session without appointment metadata", zap.String("session", sess.ID))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		if _, err := lifecycle.MarkDepositPaid(apptID, sess.ID); err != nil {
			logger.Error("Failed to record webhook deposit",
				zap.String("appointment", apptID),
				zap.String("session", sess.ID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record payment"})
			return
		}

		logger.Info("Deposit recorded from webhook",
			zap.String("appointment", apptID),
			zap.String("session", sess.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
