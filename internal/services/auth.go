package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const invalidCredentials = "Invalid email or password"

// RegisterInput is the payload of a registration
type RegisterInput struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Age      int      `json:"age" validate:"gte=18,lte=120"`
	Photos   []string `json:"photos"`
}

// LoginInput is the payload of a login
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService handles registration, login and bearer token resolution
type AuthService struct {
	users  UserStore
	tokens *TokenManager
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// Register creates a new account and returns the stored user
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, apperr.Validation(validationMessages["Password.max"])
	}

	exists, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal("failed to check email", err)
	}
	if exists {
		return nil, apperr.Conflict("Email already exists")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          in.Age,
		Photos:       in.Photos,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Photos == nil {
		user.Photos = []string{}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password fail with the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	email := normalizeEmail(in.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, "", apperr.Validation("Please provide a valid email")
	}
	if in.Password == "" {
		return nil, "", apperr.Validation("Password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			burnPasswordCheck(in.Password)
			return nil, "", apperr.Unauthorized(invalidCredentials)
		}
		return nil, "", apperr.Internal("failed to get user", err)
	}

	ok, err := CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, "", apperr.Internal("failed to verify password", err)
	}
	if !ok {
		return nil, "", apperr.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("failed to generate token", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	return user, token, nil
}

// ResolveCurrentUser returns the user a bearer token was issued to
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}

	userID, err := s.tokens.ValidateJWT(token)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected bearer token")
		return nil, apperr.Unauthorized("Not authorized, token failed")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Not authorized, user not found")
		}
		return nil, apperr.Internal("failed to get user", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
