package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m04kA/SMC-ResourceService/internal/config"
)

const (
	directionUp   = "up"
	directionDown = "down"
)

// Мигратор схемы PostgreSQL: подключение берется из того же config.toml,
// что и у сервиса, путь к миграциям и направление - из флагов
func main() {
	var configPath, migrationsPath, direction string
	flag.StringVar(&configPath, "config", "config.toml", "path to service config")
	flag.StringVar(&migrationsPath, "migrations-path", "migrations", "path to migrations")
	flag.StringVar(&direction, "direction", directionUp, "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		postgresURL(cfg.Database),
	)
	if err != nil {
		fmt.Printf("Failed to init migrator: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	switch direction {
	case directionUp:
		err = m.Up()
	case directionDown:
		err = m.Down()
	default:
		fmt.Printf("Unknown direction %q, expected %q or %q\n", direction, directionUp, directionDown)
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to apply")
			return
		}
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migrations applied successfully")
}

func postgresURL(db config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.User), url.QueryEscape(db.Password),
		db.Host, db.Port, db.DBName, db.SSLMode)
}
