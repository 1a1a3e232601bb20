package cmd

import (
	"context"
	"fmt"

	"matchchat-backend/internal/models"
	"matchchat-backend/internal/services"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const (
	seedUserCount = 5
	seedPassword  = "test1234"
)

// NewSeedCmd creates the seed subcommand
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create development test users",
		Long:  `Create test1@example.com .. test5@example.com with password "test1234" when they are missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg.Database); err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStorage(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer store.close()

			auth := services.NewAuthService(store.users, services.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL))
			created, err := seedUsers(ctx, auth, services.NewUserService(store.users), store.users)
			if err != nil {
				return err
			}
			cmd.Printf("Seeded %d users (password %q)\n", created, seedPassword)
			return nil
		},
	}
}

// seedUsers registers the test users that do not exist yet and fills in their
// profile. It returns how many users were created.
func seedUsers(ctx context.Context, auth *services.AuthService, users *services.UserService, store services.UserStore) (int, error) {
	created := 0
	for i := 1; i <= seedUserCount; i++ {
		email := fmt.Sprintf("test%d@example.com", i)
		exists, err := store.EmailExists(ctx, email)
		if err != nil {
			return created, fmt.Errorf("failed to check seed user: %w", err)
		}
		if exists {
			log.Info().Str("email", email).Msg("Seed user already exists")
			continue
		}

		user, err := auth.Register(ctx, services.RegisterInput{
			Name:     fmt.Sprintf("Test User %d", i),
			Email:    email,
			Password: seedPassword,
			Age:      24 + i,
			Photos:   []string{fmt.Sprintf("https://via.placeholder.com/150?text=User%d", i)},
		})
		if err != nil {
			return created, fmt.Errorf("failed to register seed user: %w", err)
		}

		_, err = users.UpdateProfile(ctx, user.ID, user.ID, models.ProfileUpdate{
			Bio: models.Some(lo.ToPtr(fmt.Sprintf("This is test user %d for development", i))),
			Location: models.Some(&models.Location{
				Latitude:  40.7128,
				Longitude: -74.006,
				City:      lo.ToPtr("New York"),
			}),
			Preferences: models.Some(&models.Preferences{
				AgeRange:    models.AgeRange{Min: 20, Max: 35},
				MaxDistance: 50,
				Interests:   []string{"coding", "music", "travel"},
			}),
		})
		if err != nil {
			return created, fmt.Errorf("failed to update seed user profile: %w", err)
		}

		log.Info().Str("user_id", user.ID).Str("email", email).Msg("Seed user created")
		created++
	}
	return created, nil
}
