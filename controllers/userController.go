package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civictrack-be/middlewares"
	"civictrack-be/services"
)

type UserController struct {
	Users  *services.UserService
	Logger *logrus.Logger
}

func NewUserController(users *services.UserService, logger *logrus.Logger) *UserController {
	return &UserController{Users: users, Logger: logger}
}

// Profile returns the current user with issue totals
func (uc *UserController) Profile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	profile, err := uc.Users.Profile(ctx, middlewares.CurrentUser(c))
	if err != nil {
		respondError(c, uc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
