package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole is assigned once at signup and never re-evaluated.
type UserRole string

const (
	RoleCitizen   UserRole = "citizen"
	RoleAuthority UserRole = "authority"
)

// PasswordCost is the bcrypt cost used for new accounts.
var PasswordCost = 12

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password,omitempty" json:"-"`
	City       string             `bson:"city" json:"city"`
	Role       UserRole           `bson:"role" json:"role"`
	Department string             `bson:"department" json:"department"`
	IsVerified bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the public view of a user referenced from an issue.
type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	City  string             `json:"city,omitempty"`
}

func (u *User) IsAuthority() bool {
	return u != nil && u.Role == RoleAuthority
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, City: u.City}
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), PasswordCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
