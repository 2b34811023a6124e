package services

import (
	"context"

	"civictrack-be/models"
)

type UserService struct {
	Issues IssueStore
}

func NewUserService(issues IssueStore) *UserService {
	return &UserService{Issues: issues}
}

// Profile is the signed-in user's account with reporting totals.
type Profile struct {
	models.User
	IssueCount    int64 `json:"issueCount"`
	ResolvedCount int64 `json:"resolvedCount"`
}

func (s *UserService) Profile(ctx context.Context, user *models.User) (*Profile, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}
	total, err := s.Issues.CountByReporter(ctx, user.ID, "")
	if err != nil {
		return nil, err
	}
	resolved, err := s.Issues.CountByReporter(ctx, user.ID, models.StatusResolved)
	if err != nil {
		return nil, err
	}
	return &Profile{User: *user, IssueCount: total, ResolvedCount: resolved}, nil
}
