package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civictrack-be/middlewares"
	"civictrack-be/services"
)

type AuthController struct {
	Auth   *services.AuthService
	Logger *logrus.Logger
}

func NewAuthController(auth *services.AuthService, logger *logrus.Logger) *AuthController {
	return &AuthController{Auth: auth, Logger: logger}
}

// Signup handles user registration
func (ac *AuthController) Signup(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		City     string `json:"city" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := ac.Auth.Signup(ctx, services.SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		City:     input.City,
	})
	if err != nil {
		respondError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login handles user login
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := ac.Auth.Login(ctx, input.Email, input.Password)
	if err != nil {
		respondError(c, ac.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me returns the authenticated user
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middlewares.CurrentUser(c))
}
