package handlers

import (
	"net/http"

	"serenity/config"
	"serenity/services/scheduling"

	"github.com/gin-gonic/gin"
)

// ServicesHandler returns the public service catalog with deposit amounts
// already computed.
func ServicesHandler(engine scheduling.Engine, cfg *config.BusinessConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		type serviceView struct {
			ID            string  `json:"id"`
			Name          string  `json:"name"`
			DurationMin   int     `json:"durationMin"`
			Price         float64 `json:"price"`
			DepositAmount float64 `json:"depositAmount"`
		}

		out := make([]serviceView, 0, len(cfg.Services))
		for _, svc := range cfg.Services {
			quote, err := engine.Quote(svc.ID)
			if err != nil {
				continue
			}
			out = append(out, serviceView{
				ID:            svc.ID,
				Name:          svc.Name,
				DurationMin:   svc.DurationMin,
				Price:         svc.Price,
				DepositAmount: quote.DepositAmount,
			})
		}
		c.JSON(http.StatusOK, gin.H{"business": cfg.Name, "currency": cfg.Currency, "services": out})
	}
}

// AvailabilityHandler lists open slots for a date (?date=YYYY-MM-DD), or open
// dates when no date is given. An optional ?service= narrows slot width to
// that service's duration.
func AvailabilityHandler(engine scheduling.Engine, cfg *config.BusinessConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			dates, err := engine.AvailableDates(cfg.MaxAdvanceDays)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute availability"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"dates": dates})
			return
		}

		durationMin := cfg.ShortestServiceDuration()
		if serviceID := c.Query("service"); serviceID != "" {
			svc, ok := cfg.ServiceByID(serviceID)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown service"})
				return
			}
			durationMin = svc.DurationMin
		}

		slots, err := engine.AvailableSlots(date, durationMin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute availability"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
	}
}
