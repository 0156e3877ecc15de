package handlers

import (
	"net/http"

	appointmentRepo "serenity/database/repository/appointment"
	clientRepo "serenity/database/repository/client"
	"serenity/models"
	"serenity/services/appointment"

	"github.com/gin-gonic/gin"
)

// AdminAppointmentsHandler lists appointments for a date (?date=YYYY-MM-DD)
// or a client (?phone=).
func AdminAppointmentsHandler(repo appointmentRepo.AppointmentRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			appts []models.Appointment
			err   error
		)
		switch {
		case c.Query("date") != "":
			appts, err = repo.GetByDate(c.Query("date"))
		case c.Query("phone") != "":
			appts, err = repo.GetByClient(models.NormalizePhone(c.Query("phone")))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "date or phone query parameter required"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list appointments"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointments": appts})
	}
}

// AdminCancelHandler cancels an appointment on the business's behalf; the
// refund ladder applies as usual.
func AdminCancelHandler(lifecycle appointment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := lifecycle.Cancel(c.Param("id"), "admin")
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		out := gin.H{
			"appointment":  result.Appointment,
			"refundAmount": result.RefundAmount,
		}
		if result.RefundErr != nil {
			out["refundError"] = result.RefundErr.Error()
		}
		c.JSON(http.StatusOK, out)
	}
}

// AdminCompleteHandler marks an elapsed appointment done.
func AdminCompleteHandler(lifecycle appointment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		appt, err := lifecycle.Complete(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointment": appt})
	}
}

// AdminClientHandler returns a client record with notes and running totals.
func AdminClientHandler(clients clientRepo.ClientRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := clients.GetByPhone(models.NormalizePhone(c.Param("phone")))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load client"})
			return
		}
		if client == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"client": client})
	}
}
