package services

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civictrack-be/events"
	"civictrack-be/metrics"
	"civictrack-be/models"
	"civictrack-be/repositories"
	"civictrack-be/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// IssueService implements reporting, listing and triage of issues.
type IssueService struct {
	Issues  IssueStore
	Users   UserStore
	Images  storage.ImageStore
	Events  events.Publisher
	Metrics *metrics.Metrics
	Logger  *logrus.Logger

	now func() time.Time
}

func NewIssueService(issues IssueStore, users UserStore, images storage.ImageStore, publisher events.Publisher, m *metrics.Metrics, logger *logrus.Logger) *IssueService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &IssueService{
		Issues:  issues,
		Users:   users,
		Images:  images,
		Events:  publisher,
		Metrics: m,
		Logger:  logger,
		now:     time.Now,
	}
}

// ImageUpload is an optional photo attached to a new issue. Its type is
// detected from Body; the client's filename is only used for logging.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Address     string
	Lat         *float64
	Lng         *float64
	Image       *ImageUpload
}

type ListIssuesInput struct {
	Category string
	Status   string
	City     string
	Page     int
	Limit    int
}

// StatusEntryView is a history entry with its author resolved.
type StatusEntryView struct {
	Status    models.IssueStatus  `json:"status"`
	UpdatedBy *models.UserSummary `json:"updatedBy"`
	Note      string              `json:"note"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// IssueView is an issue with its user references resolved.
type IssueView struct {
	models.Issue
	ReportedBy    *models.UserSummary `json:"reportedBy"`
	AssignedTo    *models.UserSummary `json:"assignedTo"`
	StatusHistory []StatusEntryView   `json:"statusHistory"`
	UpvoteCount   int                 `json:"upvoteCount"`
}

type IssuePage struct {
	Issues []IssueView `json:"issues"`
	Total  int64       `json:"total"`
	Page   int         `json:"page"`
	Pages  int         `json:"pages"`
}

type IssueStats struct {
	Total       int64                          `json:"total"`
	Reported    int64                          `json:"reported"`
	UnderReview int64                          `json:"underReview"`
	InProgress  int64                          `json:"inProgress"`
	Resolved    int64                          `json:"resolved"`
	Closed      int64                          `json:"closed"`
	Open        int64                          `json:"open"`
	ByCategory  map[models.IssueCategory]int64 `json:"byCategory"`
}

// MapIssue is the projection used to plot issues on a map.
type MapIssue struct {
	ID        primitive.ObjectID   `json:"id"`
	Title     string               `json:"title"`
	Lat       float64              `json:"lat"`
	Lng       float64              `json:"lng"`
	Address   string               `json:"address"`
	Category  models.IssueCategory `json:"category"`
	Status    models.IssueStatus   `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
}

type UpvoteResult struct {
	Upvoted bool `json:"upvoted"`
	Upvotes int  `json:"upvotes"`
}

func parseIssueID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, validationError("Invalid issue ID")
	}
	return oid, nil
}

func validCoordinate(v *float64, limit float64) bool {
	return v == nil || (!math.IsNaN(*v) && *v >= -limit && *v <= limit)
}

// Create files a new issue for reporter with status Reported.
func (s *IssueService) Create(ctx context.Context, reporter *models.User, in CreateIssueInput) (*IssueView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	if in.Title == "" || in.Description == "" || in.Category == "" || in.Address == "" {
		return nil, validationError("Required fields missing")
	}
	category, ok := models.ParseIssueCategory(in.Category)
	if !ok {
		return nil, validationError("Invalid category")
	}
	if !validCoordinate(in.Lat, 90) || !validCoordinate(in.Lng, 180) {
		return nil, validationError("Invalid coordinates")
	}

	var image string
	if in.Image != nil && s.Images != nil {
		contentType, body, err := storage.SniffImage(in.Image.Body)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedImage) {
				if s.Logger != nil {
					s.Logger.WithError(err).WithFields(logrus.Fields{
						"reporter_id": reporter.ID.Hex(),
						"filename":    in.Image.Filename,
					}).Warn("image upload rejected")
				}
				return nil, validationError("Only JPEG, PNG, GIF or WebP images are allowed")
			}
			return nil, err
		}
		path, err := s.Images.Save(ctx, contentType, body)
		if err != nil {
			return nil, err
		}
		image = path
	}

	now := s.now()
	issue := &models.Issue{
		Title:       in.Title,
		Description: in.Description,
		Category:    category,
		Status:      models.StatusReported,
		Image:       image,
		Location:    models.Location{Lat: in.Lat, Lng: in.Lng},
		Address:     in.Address,
		City:        reporter.City,
		ReportedBy:  reporter.ID,
		Upvotes:     []primitive.ObjectID{},
		StatusHistory: []models.StatusEntry{{
			Status:    models.StatusReported,
			UpdatedBy: reporter.ID,
			Note:      "Issue reported",
			UpdatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.Metrics.IssueCreated(string(issue.Category))
	s.publish(ctx, events.Event{
		Type:     events.TypeIssueCreated,
		IssueID:  issue.ID.Hex(),
		ActorID:  reporter.ID.Hex(),
		Status:   string(issue.Status),
		Category: string(issue.Category),
		City:     issue.City,
	})

	views, err := s.populate(ctx, []models.Issue{*issue})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of issues matching the filters, newest first.
func (s *IssueService) List(ctx context.Context, in ListIssuesInput) (*IssuePage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	filter := models.IssueFilter{City: strings.TrimSpace(in.City)}
	if in.Category != "" && in.Category != "all" {
		filter.Category = models.IssueCategory(in.Category)
	}
	if in.Status != "" && in.Status != "all" {
		filter.Status = models.IssueStatus(in.Status)
	}

	issues, total, err := s.Issues.List(ctx, filter, pageOffset(page, limit), int64(limit))
	if err != nil {
		return nil, err
	}
	views, err := s.populate(ctx, issues)
	if err != nil {
		return nil, err
	}
	return &IssuePage{
		Issues: views,
		Total:  total,
		Page:   page,
		Pages:  int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// pageOffset is the number of issues before page. Pages too far out to
// address saturate at math.MaxInt64, which is past any stored issue.
func pageOffset(page, limit int) int64 {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

// ListMine returns every issue reported by user, newest first.
func (s *IssueService) ListMine(ctx context.Context, user *models.User) ([]IssueView, error) {
	issues, _, err := s.Issues.List(ctx, models.IssueFilter{ReportedBy: &user.ID}, 0, 0)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, issues)
}

func (s *IssueService) Get(ctx context.Context, id string) (*IssueView, error) {
	oid, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	issue, err := s.Issues.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	views, err := s.populate(ctx, []models.Issue{*issue})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateStatus moves an issue to status and appends one history entry
// attributed to actor. Only authorities may call it; a rejected call leaves
// the issue untouched.
func (s *IssueService) UpdateStatus(ctx context.Context, actor *models.User, id, status, note string) (*IssueView, error) {
	if !actor.IsAuthority() {
		return nil, ErrAuthorityRequired
	}
	next, ok := models.ParseIssueStatus(status)
	if !ok {
		return nil, validationError("Invalid status")
	}
	oid, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}

	current, err := s.Issues.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	if !models.CanTransition(current.Status, next) {
		return nil, validationError("Status cannot change from " + string(current.Status) + " to " + string(next))
	}

	updated, err := s.Issues.AppendStatus(ctx, oid, models.StatusEntry{
		Status:    next,
		UpdatedBy: actor.ID,
		Note:      note,
		UpdatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}

	s.Metrics.StatusUpdated(string(next))
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"issue_id": oid.Hex(),
			"actor_id": actor.ID.Hex(),
			"from":     current.Status,
			"to":       next,
		}).Info("issue status updated")
	}
	s.publish(ctx, events.Event{
		Type:           events.TypeIssueStatusChanged,
		IssueID:        oid.Hex(),
		ActorID:        actor.ID.Hex(),
		Status:         string(next),
		PreviousStatus: string(current.Status),
		Note:           note,
		Category:       string(updated.Category),
		City:           updated.City,
	})

	views, err := s.populate(ctx, []models.Issue{*updated})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ToggleUpvote adds or removes user's upvote on an issue.
func (s *IssueService) ToggleUpvote(ctx context.Context, user *models.User, id string) (*UpvoteResult, error) {
	oid, err := parseIssueID(id)
	if err != nil {
		return nil, err
	}
	upvoted, count, err := s.Issues.ToggleUpvote(ctx, oid, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return &UpvoteResult{Upvoted: upvoted, Upvotes: count}, nil
}

func (s *IssueService) Stats(ctx context.Context) (*IssueStats, error) {
	byStatus, err := s.Issues.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.Issues.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	stats := &IssueStats{
		Reported:    byStatus[models.StatusReported],
		UnderReview: byStatus[models.StatusUnderReview],
		InProgress:  byStatus[models.StatusInProgress],
		Resolved:    byStatus[models.StatusResolved],
		Closed:      byStatus[models.StatusClosed],
		ByCategory:  make(map[models.IssueCategory]int64, len(models.IssueCategories)),
	}
	for status, n := range byStatus {
		stats.Total += n
		if status.IsOpen() {
			stats.Open += n
		}
	}
	for _, c := range models.IssueCategories {
		stats.ByCategory[c] = byCategory[c]
	}
	return stats, nil
}

// Recent returns the newest issues that can be placed on a map.
func (s *IssueService) Recent(ctx context.Context, limit int) ([]MapIssue, error) {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	issues, err := s.Issues.ListGeotagged(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]MapIssue, 0, len(issues))
	for _, issue := range issues {
		if !issue.Location.HasCoordinates() {
			continue
		}
		out = append(out, MapIssue{
			ID:        issue.ID,
			Title:     issue.Title,
			Lat:       *issue.Location.Lat,
			Lng:       *issue.Location.Lng,
			Address:   issue.Address,
			Category:  issue.Category,
			Status:    issue.Status,
			CreatedAt: issue.CreatedAt,
		})
	}
	return out, nil
}

// populate resolves reporter, assignee and history authors with one user lookup.
func (s *IssueService) populate(ctx context.Context, issues []models.Issue) ([]IssueView, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, issue := range issues {
		add(issue.ReportedBy)
		if issue.AssignedTo != nil {
			add(*issue.AssignedTo)
		}
		for _, h := range issue.StatusHistory {
			add(h.UpdatedBy)
		}
	}

	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	summary := func(id primitive.ObjectID) *models.UserSummary {
		if u, ok := users[id]; ok {
			return u.Summary()
		}
		return &models.UserSummary{ID: id}
	}

	views := make([]IssueView, 0, len(issues))
	for _, issue := range issues {
		view := IssueView{
			Issue:         issue,
			ReportedBy:    summary(issue.ReportedBy),
			StatusHistory: make([]StatusEntryView, 0, len(issue.StatusHistory)),
			UpvoteCount:   len(issue.Upvotes),
		}
		if issue.AssignedTo != nil {
			view.AssignedTo = summary(*issue.AssignedTo)
		}
		for _, h := range issue.StatusHistory {
			view.StatusHistory = append(view.StatusHistory, StatusEntryView{
				Status:    h.Status,
				UpdatedBy: summary(h.UpdatedBy),
				Note:      h.Note,
				UpdatedAt: h.UpdatedAt,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *IssueService) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	if err := s.Events.Publish(ctx, e); err != nil {
		s.Metrics.EventPublishFailed()
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"type": e.Type, "issue_id": e.IssueID}).Warn("event publish failed")
		}
	}
}
