package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"matchchat-backend/internal/config"
	"matchchat-backend/internal/repository/memstore"
	"matchchat-backend/internal/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "seed"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	configFile = ""
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", "/etc/matchchat.yaml", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/etc/matchchat.yaml", configFile)
}

func TestSetupLogger_Levels(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "warn", want: zerolog.WarnLevel},
		{level: "error", want: zerolog.ErrorLevel},
		{level: "bogus", want: zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			setupLogger(tt.level, "json")
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestOpenStorage_Memory(t *testing.T) {
	store, err := openStorage(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	defer store.close()

	assert.NotNil(t, store.users)
	assert.NotNil(t, store.chats)
	assert.NotNil(t, store.messages)
}

func TestRequirePostgres(t *testing.T) {
	assert.NoError(t, requirePostgres(config.DatabaseConfig{Driver: config.DriverPostgres}))
	assert.Error(t, requirePostgres(config.DatabaseConfig{Driver: config.DriverMemory}))
}

func TestSeedUsers_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	auth := services.NewAuthService(store.Users(), services.NewTokenManager("test-secret", time.Hour))
	users := services.NewUserService(store.Users())

	created, err := seedUsers(ctx, auth, users, store.Users())
	require.NoError(t, err)
	assert.Equal(t, seedUserCount, created)

	created, err = seedUsers(ctx, auth, users, store.Users())
	require.NoError(t, err)
	assert.Zero(t, created)

	user, err := store.Users().GetByEmail(ctx, "test3@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.Location)
	assert.Equal(t, "New York", *user.Location.City)
	assert.Equal(t, 35, user.Preferences.AgeRange.Max)

	_, token, err := auth.Login(ctx, services.LoginInput{Email: "test3@example.com", Password: seedPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
