// postgres предоставляет реализацию storage.Storage на базе PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pribylovaa/threads-service/internal/config"
	"github.com/pribylovaa/threads-service/internal/storage"
)

// Storage — хранилище статусов поверх пула соединений pgx.
type Storage struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

// New создаёт и проверяет пул соединений к PostgreSQL.
// Схема создаётся миграциями из ./migrations.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	const op = "storage/postgres/New"

	if cfg == nil {
		return nil, fmt.Errorf("%s: nil config", op)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db, cfg: cfg}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close(context.Context) error {
	s.db.Close()
	return nil
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Storage = (*Storage)(nil)
