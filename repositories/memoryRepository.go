package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"civictrack-be/models"
)

// MemoryUserRepository keeps users in process memory. It backs
// STORE_DRIVER=memory and the HTTP tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]models.User
	byEmail map[string]primitive.ObjectID
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[primitive.ObjectID]models.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return ErrDuplicateEmail
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// MemoryIssueRepository keeps issues in process memory.
type MemoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]*models.Issue
}

func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{issues: make(map[primitive.ObjectID]*models.Issue)}
}

func cloneIssue(i *models.Issue) models.Issue {
	c := *i
	c.Upvotes = append([]primitive.ObjectID{}, i.Upvotes...)
	c.StatusHistory = append([]models.StatusEntry{}, i.StatusHistory...)
	if i.AssignedTo != nil {
		id := *i.AssignedTo
		c.AssignedTo = &id
	}
	return c
}

func (r *MemoryIssueRepository) Create(_ context.Context, issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Upvotes == nil {
		issue.Upvotes = []primitive.ObjectID{}
	}
	stored := cloneIssue(issue)
	r.issues[issue.ID] = &stored
	return nil
}

func (r *MemoryIssueRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneIssue(issue)
	return &c, nil
}

func matches(i *models.Issue, f models.IssueFilter) bool {
	if f.Category != "" && i.Category != f.Category {
		return false
	}
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(i.City), strings.ToLower(f.City)) {
		return false
	}
	if f.ReportedBy != nil && i.ReportedBy != *f.ReportedBy {
		return false
	}
	return true
}

// sorted returns the matching issues, newest first.
func (r *MemoryIssueRepository) sorted(keep func(*models.Issue) bool) []models.Issue {
	out := []models.Issue{}
	for _, issue := range r.issues {
		if keep(issue) {
			out = append(out, cloneIssue(issue))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID.Hex() > out[b].ID.Hex()
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (r *MemoryIssueRepository) List(_ context.Context, f models.IssueFilter, skip, limit int64) ([]models.Issue, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(func(i *models.Issue) bool { return matches(i, f) })
	total := int64(len(all))
	if skip < 0 {
		skip = 0
	}
	if skip >= total {
		return []models.Issue{}, total, nil
	}
	end := total
	if limit > 0 && limit < total-skip {
		end = skip + limit
	}
	return all[skip:end], total, nil
}

func (r *MemoryIssueRepository) ListGeotagged(_ context.Context, limit int64) ([]models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(func(i *models.Issue) bool { return i.Location.HasCoordinates() })
	if limit > 0 && int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryIssueRepository) AppendStatus(_ context.Context, id primitive.ObjectID, entry models.StatusEntry) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	issue.Status = entry.Status
	issue.UpdatedAt = entry.UpdatedAt
	issue.StatusHistory = append(issue.StatusHistory, entry)
	c := cloneIssue(issue)
	return &c, nil
}

func (r *MemoryIssueRepository) ToggleUpvote(_ context.Context, issueID, userID primitive.ObjectID) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[issueID]
	if !ok {
		return false, 0, ErrNotFound
	}
	issue.UpdatedAt = time.Now()
	for idx, id := range issue.Upvotes {
		if id == userID {
			issue.Upvotes = append(issue.Upvotes[:idx:idx], issue.Upvotes[idx+1:]...)
			return false, len(issue.Upvotes), nil
		}
	}
	issue.Upvotes = append(issue.Upvotes, userID)
	return true, len(issue.Upvotes), nil
}

func (r *MemoryIssueRepository) CountByStatus(_ context.Context) (map[models.IssueStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[models.IssueStatus]int64)
	for _, issue := range r.issues {
		out[issue.Status]++
	}
	return out, nil
}

func (r *MemoryIssueRepository) CountByCategory(_ context.Context) (map[models.IssueCategory]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[models.IssueCategory]int64)
	for _, issue := range r.issues {
		out[issue.Category]++
	}
	return out, nil
}

func (r *MemoryIssueRepository) CountByReporter(_ context.Context, userID primitive.ObjectID, status models.IssueStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, issue := range r.issues {
		if issue.ReportedBy == userID && (status == "" || issue.Status == status) {
			n++
		}
	}
	return n, nil
}
