package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"civictrack-be/models"
)

// IssueRepository stores issues in the "issues" collection.
type IssueRepository struct {
	collection *mongo.Collection
}

func NewIssueRepository(db *mongo.Database) *IssueRepository {
	return &IssueRepository{collection: db.Collection("issues")}
}

// Collection exposes the underlying collection for index setup.
func (r *IssueRepository) Collection() *mongo.Collection {
	return r.collection
}

func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Upvotes == nil {
		issue.Upvotes = []primitive.ObjectID{}
	}
	_, err := r.collection.InsertOne(ctx, issue)
	return err
}

func (r *IssueRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func issueFilter(f models.IssueFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.City != "" {
		filter["city"] = bson.M{"$regex": regexp.QuoteMeta(f.City), "$options": "i"}
	}
	if f.ReportedBy != nil {
		filter["reportedBy"] = *f.ReportedBy
	}
	return filter
}

// List returns one page of matching issues, newest first, and the total number of matches.
func (r *IssueRepository) List(ctx context.Context, f models.IssueFilter, skip, limit int64) ([]models.Issue, int64, error) {
	filter := issueFilter(f)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if skip < 0 {
		skip = 0
	}
	if skip >= total {
		return []models.Issue{}, total, nil
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	issues, err := r.find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

// ListGeotagged returns the newest issues that carry both coordinates.
func (r *IssueRepository) ListGeotagged(ctx context.Context, limit int64) ([]models.Issue, error) {
	filter := bson.M{
		"location.lat": bson.M{"$exists": true, "$ne": nil},
		"location.lng": bson.M{"$exists": true, "$ne": nil},
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, filter, findOptions)
}

func (r *IssueRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Issue, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// AppendStatus sets the issue status and pushes entry onto its history in a
// single document update, so the stored status always matches the newest entry.
func (r *IssueRepository) AppendStatus(ctx context.Context, id primitive.ObjectID, entry models.StatusEntry) (*models.Issue, error) {
	update := bson.M{
		"$set":  bson.M{"status": entry.Status, "updatedAt": entry.UpdatedAt},
		"$push": bson.M{"statusHistory": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

// ToggleUpvote adds userID to the issue's upvotes, or removes it when already
// present. It returns whether the user now upvotes the issue and the new count.
func (r *IssueRepository) ToggleUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, int, error) {
	now := time.Now()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": issueID, "upvotes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"upvotes": userID}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return false, 0, err
	}
	upvoted := res.MatchedCount > 0

	if !upvoted {
		res, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": issueID, "upvotes": userID},
			bson.M{"$pull": bson.M{"upvotes": userID}, "$set": bson.M{"updatedAt": now}},
		)
		if err != nil {
			return false, 0, err
		}
		if res.MatchedCount == 0 {
			return false, 0, ErrNotFound
		}
	}

	issue, err := r.FindByID(ctx, issueID)
	if err != nil {
		return false, 0, err
	}
	return upvoted, len(issue.Upvotes), nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (r *IssueRepository) countBy(ctx context.Context, field string) ([]groupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var counts []groupCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *IssueRepository) CountByStatus(ctx context.Context) (map[models.IssueStatus]int64, error) {
	counts, err := r.countBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	out := make(map[models.IssueStatus]int64, len(counts))
	for _, c := range counts {
		out[models.IssueStatus(c.Key)] = c.Count
	}
	return out, nil
}

func (r *IssueRepository) CountByCategory(ctx context.Context) (map[models.IssueCategory]int64, error) {
	counts, err := r.countBy(ctx, "category")
	if err != nil {
		return nil, err
	}
	out := make(map[models.IssueCategory]int64, len(counts))
	for _, c := range counts {
		out[models.IssueCategory(c.Key)] = c.Count
	}
	return out, nil
}

// CountByReporter counts a user's issues, optionally restricted to one status.
func (r *IssueRepository) CountByReporter(ctx context.Context, userID primitive.ObjectID, status models.IssueStatus) (int64, error) {
	filter := bson.M{"reportedBy": userID}
	if status != "" {
		filter["status"] = status
	}
	return r.collection.CountDocuments(ctx, filter)
}
