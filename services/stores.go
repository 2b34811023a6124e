package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"civictrack-be/models"
)

// UserStore is the persistence the services need for accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// IssueStore is the persistence the services need for issues.
type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	List(ctx context.Context, f models.IssueFilter, skip, limit int64) ([]models.Issue, int64, error)
	ListGeotagged(ctx context.Context, limit int64) ([]models.Issue, error)
	AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusEntry) (*models.Issue, error)
	ToggleUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, int, error)
	CountByStatus(ctx context.Context) (map[models.IssueStatus]int64, error)
	CountByCategory(ctx context.Context) (map[models.IssueCategory]int64, error)
	CountByReporter(ctx context.Context, userID primitive.ObjectID, status models.IssueStatus) (int64, error)
}
