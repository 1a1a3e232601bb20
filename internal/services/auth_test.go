package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"matchchat-backend/internal/apperr"
	"matchchat-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_RegisterValidation(t *testing.T) {
	valid := RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1", Age: 25}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		want   string
	}{
		{name: "blank name", mutate: func(in *RegisterInput) { in.Name = "   " }, want: "Name is required"},
		{name: "malformed email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }, want: "Please provide a valid email"},
		{name: "missing email", mutate: func(in *RegisterInput) { in.Email = "" }, want: "Please provide a valid email"},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "12345" }, want: "Password must be at least 6 characters"},
		{name: "password over 72 bytes", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("a", 80) }, want: "Password must be at most 72 bytes"},
		{name: "multibyte password over 72 bytes", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("é", 40) }, want: "Password must be at most 72 bytes"},
		{name: "too young", mutate: func(in *RegisterInput) { in.Age = 17 }, want: "Age must be between 18 and 120"},
		{name: "too old", mutate: func(in *RegisterInput) { in.Age = 121 }, want: "Age must be between 18 and 120"},
		{name: "missing age", mutate: func(in *RegisterInput) { in.Age = 0 }, want: "Age must be between 18 and 120"},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := env.auth.Register(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.want, apperr.PublicMessage(err))
		})
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterInput{
		Name:     " Alice ",
		Email:    " Alice@Example.com ",
		Password: "secret1",
		Age:      25,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Equal(t, []string{}, user.Photos)
	assert.Equal(t, models.DefaultPreferences(), user.Preferences)

	ok, err := CheckPassword(user.PasswordHash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := env.auth.Register(ctx, RegisterInput{Name: "A2", Email: "ALICE@example.com", Password: "secret1", Age: 30})
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, "Email already exists", apperr.PublicMessage(err))
	})

	t.Run("login issues a token bound to the user", func(t *testing.T) {
		got, token, err := env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		require.NotEmpty(t, token)

		current, err := env.auth.ResolveCurrentUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, current.ID)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, _, wrongPass := env.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "nope-nope"})
		_, _, unknown := env.auth.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret1"})

		require.Error(t, wrongPass)
		require.Error(t, unknown)
		assert.Equal(t, apperr.KindAuth, apperr.KindOf(wrongPass))
		assert.Equal(t, apperr.KindOf(wrongPass), apperr.KindOf(unknown))
		assert.Equal(t, apperr.PublicMessage(wrongPass), apperr.PublicMessage(unknown))
		assert.Equal(t, "Invalid email or password", apperr.PublicMessage(unknown))
	})

	t.Run("login validation", func(t *testing.T) {
		_, _, err := env.auth.Login(ctx, LoginInput{Email: "bad", Password: "x"})
		assert.Equal(t, "Please provide a valid email", apperr.PublicMessage(err))

		_, _, err = env.auth.Login(ctx, LoginInput{Email: "alice@example.com"})
		assert.Equal(t, "Password is required", apperr.PublicMessage(err))
	})
}

func TestAuthService_ResolveCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice")

	expired := NewTokenManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.GenerateJWT(alice.ID)
	require.NoError(t, err)

	foreignToken, err := NewTokenManager("other-secret", time.Hour).GenerateJWT(alice.ID)
	require.NoError(t, err)

	ghostToken, err := env.auth.tokens.GenerateJWT("ghost")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":        "",
		"malformed":      "not.a.jwt",
		"expired":        expiredToken,
		"foreign secret": foreignToken,
		"unknown user":   ghostToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.ResolveCurrentUser(ctx, token)
			require.Error(t, err)
			assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
		})
	}
}

func TestAuthService_RegisterAcceptsMaxLengthPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	password := strings.Repeat("a", maxPasswordBytes)

	_, err := env.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: password, Age: 25})
	require.NoError(t, err)

	_, token, err := env.auth.Login(ctx, LoginInput{Email: "ann@example.com", Password: password})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthService_LoginUnknownEmailComparesHash(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever1"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	cost, err := bcrypt.Cost(dummyPasswordHash())
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)
}
