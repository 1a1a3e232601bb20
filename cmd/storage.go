package cmd

import (
	"context"
	"fmt"

	"matchchat-backend/internal/config"
	"matchchat-backend/internal/repository"
	"matchchat-backend/internal/repository/memstore"
	"matchchat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// storage bundles the stores of the configured driver
type storage struct {
	users    services.UserStore
	chats    services.ChatStore
	messages services.MessageStore
	close    func()
}

// openStorage connects the configured driver. Postgres schemas are migrated
// first when auto_migrate is set.
func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on exit")
		store := memstore.New()
		return &storage{
			users:    store.Users(),
			chats:    store.Chats(),
			messages: store.Messages(),
			close:    func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DSN()); err != nil {
			return nil, err
		}
	}

	db, err := repository.Connect(ctx, cfg.DSN(), cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Database connection established")

	return &storage{
		users:    repository.NewUserRepository(db),
		chats:    repository.NewChatRepository(db),
		messages: repository.NewMessageRepository(db),
		close:    db.Close,
	}, nil
}

func migrateUp(dsn string) error {
	m, err := repository.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	version, _, err := m.Version()
	if err != nil {
		return err
	}
	log.Info().Uint("version", version).Msg("Database schema is up to date")
	return nil
}

func requirePostgres(cfg config.DatabaseConfig) error {
	if cfg.Driver != config.DriverPostgres {
		return fmt.Errorf("command requires the %q driver, configured driver is %q", config.DriverPostgres, cfg.Driver)
	}
	return nil
}
