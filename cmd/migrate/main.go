package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/user"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	modeUp           = "up"
	modeDown         = "down"
	modeMongoIndexes = "mongo-indexes"
	modeAdmin        = "admin"
)

func main() {
	mode := flag.String("mode", modeUp, "up | down | mongo-indexes | admin")
	dir := flag.String("dir", "./migrations", "directory holding *.sql migrations")
	flag.Parse()

	cfg := config.LoadStoreConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch *mode {
	case modeMongoIndexes:
		client, database := db.InitMongo(ctx, cfg)
		defer client.Disconnect(context.Background())
		err = db.EnsureIndexes(ctx, database)

	case modeAdmin:
		var repo user.Repository
		if cfg.StoreDriver == config.StorePostgres {
			database := db.InitDB(cfg)
			defer database.Close()
			repo = user.NewPostgresRepository(database)
		} else {
			client, database := db.InitMongo(ctx, cfg)
			defer client.Disconnect(context.Background())
			repo = user.NewMongoRepository(database)
		}
		err = bootstrapAdmin(ctx, repo, os.Getenv("ADMIN_NAME"), os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"))

	default:
		database := db.InitDB(cfg)
		defer database.Close()
		err = run(database, *mode, *dir)
	}

	if err != nil {
		log.Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
}

func run(conn *sql.DB, mode, migrationsDir string) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	switch mode {
	case modeUp:
		return runMigrationsUp(conn, files)
	case modeDown:
		return runMigrationsDown(conn, files)
	default:
		return fmt.Errorf("unknown mode: %s (use %q, %q, %q or %q)", mode, modeUp, modeDown, modeMongoIndexes, modeAdmin)
	}
}

// runMigrationsUp applies every file not yet in schema_migrations. Each file
// runs in its own transaction together with its version record.
func runMigrationsUp(conn *sql.DB, files []string) error {
	log := logger.L()
	applied := 0

	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := conn.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		log.Info("applying migration", zap.String("version", version))
		err = inTx(conn, func(tx *sql.Tx) error {
			if _, err := tx.Exec(extractMigrationPart(string(content), "Up")); err != nil {
				return fmt.Errorf("migration failed (%s): %w", version, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
				return fmt.Errorf("failed to record migration version: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		applied++
	}

	log.Info("migrations up to date", zap.Int("applied", applied))
	return nil
}

// runMigrationsDown rolls back the most recently applied migration only.
func runMigrationsDown(conn *sql.DB, files []string) error {
	log := logger.L()

	var lastVersion string
	err := conn.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&lastVersion)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	log.Info("rolling back migration", zap.String("version", lastVersion))
	err = inTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(extractMigrationPart(string(content), "Down")); err != nil {
			return fmt.Errorf("rollback failed (%s): %w", lastVersion, err)
		}
		if _, err := tx.Exec(`DELETE FROM schema_migrations WHERE version = $1`, lastVersion); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("rollback complete", zap.String("version", lastVersion))
	return nil
}

func inTx(conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func extractMigrationPart(content string, section string) string {
	lines := strings.Split(content, "\n")
	var part strings.Builder
	var inPart bool

	for _, line := range lines {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}

// bootstrapAdmin creates the first administrator, or promotes the account if
// the email is already registered. Registration never grants the flag, so a
// fresh deployment needs this to reach any admin route.
func bootstrapAdmin(ctx context.Context, repo user.Repository, name, email, password string) error {
	log := logger.L()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin User"
	}

	existing, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin {
			log.Info("admin already present", zap.String("user_id", existing.ID))
			return nil
		}
		existing.IsAdmin = true
		existing.UpdatedAt = time.Now()
		if err := repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("promote %s: %w", email, err)
		}
		log.Info("user promoted to admin", zap.String("user_id", existing.ID))
		return nil
	case !errors.Is(err, user.ErrUserNotFound):
		return err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &user.User{
		Name:      strings.TrimSpace(name),
		Email:     email,
		Password:  hashed,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin created", zap.String("user_id", admin.ID))
	return nil
}
