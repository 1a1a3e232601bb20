package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/models"
	"matchchat-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// UserService handles profile listing and self-service updates
type UserService struct {
	users UserStore
	now   func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users, now: time.Now}
}

// ListUsers returns every user, newest first
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}
	return users, nil
}

// UpdateProfile applies a sparse update to the acting user's own profile
func (s *UserService) UpdateProfile(ctx context.Context, actingUserID, targetUserID string, upd models.ProfileUpdate) (*models.User, error) {
	if actingUserID != targetUserID {
		return nil, apperr.Forbidden("Not authorized to update this profile")
	}
	if err := normalizeProfileUpdate(&upd); err != nil {
		return nil, err
	}

	var (
		user *models.User
		err  error
	)
	if upd.Empty() {
		user, err = s.users.GetByID(ctx, targetUserID)
	} else {
		user, err = s.users.Update(ctx, targetUserID, upd, s.now().UTC())
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("failed to update user", err)
	}

	log.Info().Str("user_id", user.ID).Msg("Profile updated")
	return user, nil
}

// RegisterPushToken stores the APNs device token of the acting user. An empty
// token clears it.
func (s *UserService) RegisterPushToken(ctx context.Context, actingUserID, token string) error {
	var value *string
	if token = strings.TrimSpace(token); token != "" {
		value = &token
	}

	if err := s.users.UpdatePushToken(ctx, actingUserID, value); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal("failed to update push token", err)
	}
	return nil
}

func normalizeProfileUpdate(upd *models.ProfileUpdate) error {
	if upd.Name.Set {
		upd.Name.Value = strings.TrimSpace(upd.Name.Value)
		if upd.Name.Value == "" {
			return apperr.Validation("Name is required")
		}
	}
	if upd.Age.Set {
		if err := validateAge(upd.Age.Value); err != nil {
			return err
		}
	}
	if upd.Bio.Set && upd.Bio.Value != nil {
		bio := strings.TrimSpace(*upd.Bio.Value)
		upd.Bio.Value = &bio
	}
	if upd.Photos.Set && upd.Photos.Value == nil {
		upd.Photos.Value = []string{}
	}
	if upd.Location.Set && upd.Location.Value != nil {
		if err := validateStruct(upd.Location.Value); err != nil {
			return err
		}
		if city := upd.Location.Value.City; city != nil {
			trimmed := strings.TrimSpace(*city)
			upd.Location.Value.City = &trimmed
		}
	}
	if upd.Preferences.Set && upd.Preferences.Value != nil {
		prefs := upd.Preferences.Value
		if prefs.AgeRange == (models.AgeRange{}) {
			prefs.AgeRange = models.AgeRange{Min: models.DefaultAgeRangeMin, Max: models.DefaultAgeRangeMax}
		}
		if prefs.AgeRange.Min < models.MinAge || prefs.AgeRange.Min > prefs.AgeRange.Max {
			return apperr.Validation("Age range is invalid")
		}
		if prefs.MaxDistance < 0 {
			return apperr.Validation("Max distance must not be negative")
		}
		if prefs.Interests == nil {
			prefs.Interests = []string{}
		}
	}
	return nil
}
