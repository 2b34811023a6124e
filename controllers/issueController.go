package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civictrack-be/middlewares"
	"civictrack-be/services"
)

type IssueController struct {
	Issues         *services.IssueService
	MaxUploadBytes int64
	Logger         *logrus.Logger
}

func NewIssueController(issues *services.IssueService, maxUploadBytes int64, logger *logrus.Logger) *IssueController {
	return &IssueController{Issues: issues, MaxUploadBytes: maxUploadBytes, Logger: logger}
}

func parseCoordinate(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateIssue handles a multipart issue submission with an optional image
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input struct {
		Title       string `form:"title" binding:"required,max=200"`
		Description string `form:"description" binding:"required,max=2000"`
		Category    string `form:"category" binding:"required"`
		Address     string `form:"address" binding:"required,max=300"`
		Lat         string `form:"lat" binding:"omitempty,latitude"`
		Lng         string `form:"lng" binding:"omitempty,longitude"`
	}
	if err := c.ShouldBind(&input); err != nil {
		respondBindError(c, err)
		return
	}

	lat, err := parseCoordinate(input.Lat)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}
	lng, err := parseCoordinate(input.Lng)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	in := services.CreateIssueInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Address:     input.Address,
		Lat:         lat,
		Lng:         lng,
	}

	file, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image upload"})
		return
	default:
		// the declared Content-Type is not trusted; the service sniffs the bytes
		if ic.MaxUploadBytes > 0 && file.Size > ic.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image is too large"})
			return
		}
		f, err := file.Open()
		if err != nil {
			respondError(c, ic.Logger, err)
			return
		}
		defer f.Close()
		in.Image = &services.ImageUpload{Filename: file.Filename, Body: f}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := ic.Issues.Create(ctx, middlewares.CurrentUser(c), in)
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues lists issues with filters and pagination
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	var query struct {
		Category string `form:"category"`
		Status   string `form:"status"`
		City     string `form:"city"`
		Page     int    `form:"page" binding:"omitempty,gte=1"`
		Limit    int    `form:"limit" binding:"omitempty,gte=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	page, err := ic.Issues.List(ctx, services.ListIssuesInput{
		Category: query.Category,
		Status:   query.Status,
		City:     query.City,
		Page:     query.Page,
		Limit:    query.Limit,
	})
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetMyIssues lists the caller's own reports
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issues, err := ic.Issues.ListMine(ctx, middlewares.CurrentUser(c))
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (ic *IssueController) GetIssue(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := ic.Issues.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpdateStatus lets an authority move an issue through its workflow
func (ic *IssueController) UpdateStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := ic.Issues.UpdateStatus(ctx, middlewares.CurrentUser(c), c.Param("id"), input.Status, input.Note)
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// ToggleUpvote adds or removes the caller's upvote
func (ic *IssueController) ToggleUpvote(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := ic.Issues.ToggleUpvote(ctx, middlewares.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetStats returns issue counts by status and category
func (ic *IssueController) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := ic.Issues.Stats(ctx)
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecentIssues returns the newest geo-tagged issues for the map
func (ic *IssueController) RecentIssues(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issues, err := ic.Issues.Recent(ctx, limit)
	if err != nil {
		respondError(c, ic.Logger, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}
