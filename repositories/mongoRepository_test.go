package repositories

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"civictrack-be/models"
)

func TestUserRepositoryCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts new user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		u := &models.User{Name: "Asha", Email: "asha@example.com"}
		err := repo.Create(context.Background(), u)
		assert.NoError(t, err)
		assert.False(t, u.ID.IsZero())
	})

	mt.Run("existing email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
		)

		err := repo.Create(context.Background(), &models.User{Email: "asha@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	mt.Run("unique index violation", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
		)

		err := repo.Create(context.Background(), &models.User{Email: "asha@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ravi"},
			{Key: "email", Value: "ravi@mcgm.gov.in"},
			{Key: "role", Value: "authority"},
		}))

		u, err := repo.FindByEmail(context.Background(), "ravi@mcgm.gov.in")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, models.RoleAuthority, u.Role)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch))

		_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestIssueRepositoryAppendStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated issue", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		id := primitive.NewObjectID()
		actor := primitive.NewObjectID()
		now := time.Now().UTC().Truncate(time.Millisecond)

		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: "In Progress"},
				{Key: "statusHistory", Value: bson.A{
					bson.D{{Key: "status", Value: "Reported"}, {Key: "note", Value: "Issue reported"}},
					bson.D{{Key: "status", Value: "In Progress"}, {Key: "updatedBy", Value: actor}, {Key: "updatedAt", Value: now}},
				}},
			}},
		})

		issue, err := repo.AppendStatus(context.Background(), id, models.StatusEntry{
			Status: models.StatusInProgress, UpdatedBy: actor, UpdatedAt: now,
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, issue.Status)
		require.Len(t, issue.StatusHistory, 2)
		assert.Equal(t, actor, issue.StatusHistory[1].UpdatedBy)
	})

	mt.Run("unknown issue", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := repo.AppendStatus(context.Background(), primitive.NewObjectID(), models.StatusEntry{Status: models.StatusClosed})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestIssueRepositoryCountByStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("groups by status", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "Reported"}, {Key: "count", Value: int64(3)}},
			bson.D{{Key: "_id", Value: "Resolved"}, {Key: "count", Value: int64(1)}},
		))

		counts, err := repo.CountByStatus(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), counts[models.StatusReported])
		assert.Equal(t, int64(1), counts[models.StatusResolved])
		assert.Zero(t, counts[models.StatusClosed])
	})
}

func TestIssueRepositoryList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("page with total", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(7)}}),
			mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: first}, {Key: "title", Value: "Pothole"}},
				bson.D{{Key: "_id", Value: second}, {Key: "title", Value: "Broken streetlight"}},
			),
		)

		issues, total, err := repo.List(context.Background(), models.IssueFilter{City: "Mumbai"}, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		require.Len(t, issues, 2)
		assert.Equal(t, first, issues[0].ID)
	})

	mt.Run("offset past the last issue skips the find", func(mt *mtest.T) {
		repo := NewIssueRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(3)}}),
		)

		issues, total, err := repo.List(context.Background(), models.IssueFilter{}, math.MaxInt64, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Empty(t, issues)
		assert.Len(t, mt.GetAllStartedEvents(), 1)
	})
}

func TestIssueFilter(t *testing.T) {
	reporter := primitive.NewObjectID()
	filter := issueFilter(models.IssueFilter{
		Category:   models.CategoryTraffic,
		Status:     models.StatusReported,
		City:       "navi.mumbai",
		ReportedBy: &reporter,
	})

	assert.Equal(t, models.CategoryTraffic, filter["category"])
	assert.Equal(t, models.StatusReported, filter["status"])
	assert.Equal(t, bson.M{"$regex": `navi\.mumbai`, "$options": "i"}, filter["city"])
	assert.Equal(t, reporter, filter["reportedBy"])
	assert.Empty(t, issueFilter(models.IssueFilter{}))
}
