package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civictrack-be/metrics"
	"civictrack-be/models"
	"civictrack-be/repositories"
	authUtils "civictrack-be/utils"
)

var errTokenRejected = &AppError{Kind: KindAuthentication, Message: "Not authorized, token failed"}

// AuthService handles signup, login and bearer token resolution.
type AuthService struct {
	Users     UserStore
	JWTSecret string
	TokenTTL  time.Duration
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
}

func NewAuthService(users UserStore, jwtSecret string, tokenTTL time.Duration, m *metrics.Metrics, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, JWTSecret: jwtSecret, TokenTTL: tokenTTL, Metrics: m, Logger: logger}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	City     string
}

// AuthUser is the account view returned alongside a token.
type AuthUser struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	City  string             `json:"city"`
	Role  models.UserRole    `json:"role"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// NormalizeEmail is the canonical form under which emails are stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a citizen or authority account depending on the email domain.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	in.Email = NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.City == "" {
		return nil, validationError("All fields are required")
	}

	now := time.Now()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		City:      in.City,
		Role:      authUtils.DetectRole(in.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}

	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.Metrics.UserSignedUp(string(user.Role))
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "role": user.Role}).Info("user signed up")
	}
	return s.issue(user)
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("All fields are required")
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.ComparePassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := authUtils.ParseToken(s.JWTSecret, token)
	if err != nil {
		return nil, &AppError{Kind: KindAuthentication, Message: errTokenRejected.Message, Err: err}
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errTokenRejected
	}
	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errTokenRejected
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := authUtils.GenerateToken(s.JWTSecret, user.ID.Hex(), s.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token: token,
		User: AuthUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			City:  user.City,
			Role:  user.Role,
		},
	}, nil
}
