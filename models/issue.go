package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	CategoryRoads       IssueCategory = "Roads & Infrastructure"
	CategoryWater       IssueCategory = "Water Supply"
	CategoryElectricity IssueCategory = "Electricity"
	CategorySanitation  IssueCategory = "Sanitation & Waste"
	CategorySafety      IssueCategory = "Public Safety"
	CategoryParks       IssueCategory = "Parks & Recreation"
	CategoryTraffic     IssueCategory = "Traffic"
	CategoryOther       IssueCategory = "Other"
)

// IssueCategories lists every category in display order.
var IssueCategories = []IssueCategory{
	CategoryRoads, CategoryWater, CategoryElectricity, CategorySanitation,
	CategorySafety, CategoryParks, CategoryTraffic, CategoryOther,
}

// IssueStatus enum
type IssueStatus string

const (
	StatusReported    IssueStatus = "Reported"
	StatusUnderReview IssueStatus = "Under Review"
	StatusInProgress  IssueStatus = "In Progress"
	StatusResolved    IssueStatus = "Resolved"
	StatusClosed      IssueStatus = "Closed"
)

// IssueStatuses lists every status.
var IssueStatuses = []IssueStatus{
	StatusReported, StatusUnderReview, StatusInProgress, StatusResolved, StatusClosed,
}

// ParseIssueCategory returns the category named s, if any.
func ParseIssueCategory(s string) (IssueCategory, bool) {
	for _, c := range IssueCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ParseIssueStatus returns the status named s, if any.
func ParseIssueStatus(s string) (IssueStatus, bool) {
	for _, st := range IssueStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Location holds optional coordinates of an issue.
type Location struct {
	Lat *float64 `bson:"lat,omitempty" json:"lat"`
	Lng *float64 `bson:"lng,omitempty" json:"lng"`
}

// HasCoordinates reports whether both coordinates are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// StatusEntry is one element of an issue's append-only status history.
type StatusEntry struct {
	Status    IssueStatus        `bson:"status" json:"status"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	Note      string             `bson:"note" json:"note"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Category      IssueCategory        `bson:"category" json:"category"`
	Status        IssueStatus          `bson:"status" json:"status"`
	Image         string               `bson:"image" json:"image"`
	Location      Location             `bson:"location" json:"location"`
	Address       string               `bson:"address" json:"address"`
	City          string               `bson:"city" json:"city"`
	ReportedBy    primitive.ObjectID   `bson:"reportedBy" json:"reportedBy"`
	AssignedTo    *primitive.ObjectID  `bson:"assignedTo" json:"assignedTo"`
	Upvotes       []primitive.ObjectID `bson:"upvotes" json:"-"`
	StatusHistory []StatusEntry        `bson:"statusHistory" json:"statusHistory"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasUpvote reports whether userID is in the issue's upvote set.
func (i *Issue) HasUpvote(userID primitive.ObjectID) bool {
	for _, id := range i.Upvotes {
		if id == userID {
			return true
		}
	}
	return false
}

// IssueFilter narrows issue listings. Empty fields match everything.
type IssueFilter struct {
	Category   IssueCategory
	Status     IssueStatus
	City       string // case-insensitive substring
	ReportedBy *primitive.ObjectID
}
