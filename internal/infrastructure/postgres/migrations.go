package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/pkg/logger"
)

// RunMigrations はmigrationsPath配下のSQLマイグレーションを適用する
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成に失敗: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("マイグレーションの初期化に失敗: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("マイグレーションは適用済み")
			return nil
		}
		return fmt.Errorf("マイグレーション適用に失敗: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("マイグレーションバージョン取得に失敗: %w", err)
	}
	logger.Info("マイグレーションを適用", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
