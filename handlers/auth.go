package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"serenity/utils"

	"github.com/gin-gonic/gin"
)

// adminTokenTTL bounds how long an issued admin token stays valid.
const adminTokenTTL = 12 * time.Hour

// AdminLoginHandler exchanges the shared admin key for a short-lived JWT the
// admin endpoints accept.
func AdminLoginHandler(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name string `json:"name" binding:"required"`
			Key  string `json:"key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
			return
		}

		if adminKey == "" || subtle.ConstantTimeCompare([]byte(input.Key), []byte(adminKey)) != 1 {
			utils.JSONError(c, http.StatusUnauthorized, "invalid admin key", "")
			return
		}

		token, err := utils.GenerateToken(input.Name, "admin", adminTokenTTL)
		if err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to issue token", "")
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(adminTokenTTL.Seconds())})
	}
}
