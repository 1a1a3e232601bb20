package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"matchchat-backend/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "name", "email", "password_hash", "age", "bio", "photos",
	"latitude", "longitude", "city",
	"pref_age_min", "pref_age_max", "pref_max_distance", "interests",
	"push_token", "created_at", "updated_at",
}

func userRow(rows *pgxmock.Rows, id, name string, lat *float64, now time.Time) *pgxmock.Rows {
	lon := (*float64)(nil)
	if lat != nil {
		v := -74.006
		lon = &v
	}
	return rows.AddRow(
		id, name, name+"@example.com", "hash", 25, (*string)(nil), []string{"a.jpg"},
		lat, lon, (*string)(nil),
		18, 100, 50, []string{"music"},
		(*string)(nil), now, now,
	)
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	user := &models.User{
		ID:           "u1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Age:          25,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	insertArgs := []any{
		"u1", "Alice", "alice@example.com", "hash", 25, (*string)(nil), []string{},
		(*float64)(nil), (*float64)(nil), (*string)(nil),
		18, 100, 50, []string{},
		(*string)(nil), now, now,
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: ErrDuplicateEmail,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(insertArgs...).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "failed to create user: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			err = NewUserRepository(mock).Create(context.Background(), user)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.EqualError(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	now := time.Now().UTC()
	lat := 40.7128

	t.Run("maps location when latitude is present", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
			WithArgs("u1").
			WillReturnRows(userRow(pgxmock.NewRows(userRowColumns), "u1", "alice", &lat, now))

		user, err := NewUserRepository(mock).GetByID(context.Background(), "u1")
		require.NoError(t, err)
		require.NotNil(t, user.Location)
		assert.InDelta(t, 40.7128, user.Location.Latitude, 1e-9)
		assert.Equal(t, []string{"a.jpg"}, user.Photos)
		assert.Equal(t, 100, user.Preferences.AgeRange.Max)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no location", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
			WithArgs("u2").
			WillReturnRows(userRow(pgxmock.NewRows(userRowColumns), "u2", "bob", nil, now))

		user, err := NewUserRepository(mock).GetByID(context.Background(), "u2")
		require.NoError(t, err)
		assert.Nil(t, user.Location)
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewUserRepository(mock).GetByID(context.Background(), "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows(userRowColumns)
	userRow(rows, "u2", "bob", nil, now)
	userRow(rows, "u1", "alice", nil, now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at DESC`).WillReturnRows(rows)

	users, err := NewUserRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID)
	assert.Equal(t, "u1", users[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_EmailExists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewUserRepository(mock).EmailExists(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_Update(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bio := "hello"

	t.Run("writes only present fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		query := regexp.QuoteMeta(`UPDATE users SET bio = $2, updated_at = $3 WHERE id = $1 RETURNING`)
		mock.ExpectQuery(query).
			WithArgs("u1", &bio, now).
			WillReturnRows(userRow(pgxmock.NewRows(userRowColumns), "u1", "alice", nil, now))

		upd := models.ProfileUpdate{Bio: models.Some(&bio)}
		_, err = NewUserRepository(mock).Update(context.Background(), "u1", upd, now)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null location clears coordinates", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		query := regexp.QuoteMeta(`UPDATE users SET latitude = $2, longitude = $3, city = $4, updated_at = $5 WHERE id = $1`)
		mock.ExpectQuery(query).
			WithArgs("u1", nil, nil, nil, now).
			WillReturnRows(userRow(pgxmock.NewRows(userRowColumns), "u1", "alice", nil, now))

		upd := models.ProfileUpdate{Location: models.Some[*models.Location](nil)}
		user, err := NewUserRepository(mock).Update(context.Background(), "u1", upd, now)
		require.NoError(t, err)
		assert.Nil(t, user.Location)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET name = $2, updated_at = $3 WHERE id = $1`)).
			WithArgs("missing", "Al", now).
			WillReturnError(pgx.ErrNoRows)

		upd := models.ProfileUpdate{Name: models.Some("Al")}
		_, err = NewUserRepository(mock).Update(context.Background(), "missing", upd, now)
		require.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdatePushToken(t *testing.T) {
	token := "device-token"

	tests := []struct {
		name    string
		result  pgconn.CommandTag
		wantErr error
	}{
		{name: "stored", result: pgxmock.NewResult("UPDATE", 1)},
		{name: "unknown user", result: pgxmock.NewResult("UPDATE", 0), wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec(`UPDATE users SET push_token`).
				WithArgs(&token, "u1").
				WillReturnResult(tt.result)

			err = NewUserRepository(mock).UpdatePushToken(context.Background(), "u1", &token)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
