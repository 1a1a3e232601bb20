package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"matchchat-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, age, bio, photos,
	latitude, longitude, city,
	pref_age_min, pref_age_max, pref_max_distance, interests,
	push_token, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	var lat, lon *float64
	var city *string
	if user.Location != nil {
		lat, lon, city = &user.Location.Latitude, &user.Location.Longitude, user.Location.City
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Age, user.Bio, nonNil(user.Photos),
		lat, lon, city,
		user.Preferences.AgeRange.Min, user.Preferences.AgeRange.Max,
		user.Preferences.MaxDistance, nonNil(user.Preferences.Interests),
		user.PushToken, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// List returns every user, newest first
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Update applies the present fields of upd and returns the stored user
func (r *UserRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate, now time.Time) (*models.User, error) {
	sets := []string{}
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name.Set {
		set("name", upd.Name.Value)
	}
	if upd.Age.Set {
		set("age", upd.Age.Value)
	}
	if upd.Bio.Set {
		set("bio", upd.Bio.Value)
	}
	if upd.Photos.Set {
		set("photos", nonNil(upd.Photos.Value))
	}
	if upd.Location.Set {
		if loc := upd.Location.Value; loc != nil {
			set("latitude", loc.Latitude)
			set("longitude", loc.Longitude)
			set("city", loc.City)
		} else {
			set("latitude", nil)
			set("longitude", nil)
			set("city", nil)
		}
	}
	if upd.Preferences.Set {
		prefs := models.DefaultPreferences()
		if upd.Preferences.Value != nil {
			prefs = *upd.Preferences.Value
		}
		set("pref_age_min", prefs.AgeRange.Min)
		set("pref_age_max", prefs.AgeRange.Max)
		set("pref_max_distance", prefs.MaxDistance)
		set("interests", nonNil(prefs.Interests))
	}
	set("updated_at", now)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user     models.User
		lat, lon *float64
		city     *string
	)
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Age, &user.Bio, &user.Photos,
		&lat, &lon, &city,
		&user.Preferences.AgeRange.Min, &user.Preferences.AgeRange.Max,
		&user.Preferences.MaxDistance, &user.Preferences.Interests,
		&user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		user.Location = &models.Location{Latitude: *lat, Longitude: *lon, City: city}
	}
	return &user, nil
}
