package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civictrack-be/services"
	"civictrack-be/validation"
)

const requestTimeout = 10 * time.Second

var statusByKind = map[services.ErrorKind]int{
	services.KindValidation:       http.StatusBadRequest,
	services.KindAuthentication:   http.StatusUnauthorized,
	services.KindPermissionDenied: http.StatusForbidden,
	services.KindNotFound:         http.StatusNotFound,
	services.KindConflict:         http.StatusConflict,
}

// respondError renders err as {"error": message}. Internal errors are logged
// and hidden from the client.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			c.JSON(status, gin.H{"error": appErr.Message})
			return
		}
	}

	if logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).Error("request failed")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": validation.ToDetails(err),
	})
}
