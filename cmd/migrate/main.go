package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ManuelReschke/FreshFox/internal/pkg/database"
	"github.com/ManuelReschke/FreshFox/internal/pkg/env"
)

func main() {
	// Lade Umgebungsvariablen aus .env-Datei
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	sourceURL, dbURL, err := migrationURLs(database.Driver())
	if err != nil {
		log.Fatalf("Fehler bei der Datenbankkonfiguration: %v", err)
	}

	log.Printf("Verbinde mit Datenbank (%s): %s@%s:%s/%s",
		database.Driver(),
		env.GetEnv("DB_USER", "freshfox"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", defaultPort(database.Driver())),
		env.GetEnv("DB_NAME", "freshfox_db"),
	)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren der Migration: %v", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Fehler beim Schließen der Migrationsressourcen: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Println("Keine Änderungen: Datenbank ist bereits auf dem neuesten Stand")
		case err != nil:
			log.Fatalf("Fehler beim Ausführen der Migrationen: %v", err)
		default:
			log.Println("Migrationen erfolgreich ausgeführt")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Fehler beim Zurückrollen der letzten Migration: %v", err)
		}
		log.Println("Letzte Migration erfolgreich zurückgerollt")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatalf("Bitte geben Sie eine Versionsnummer an")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("Ungültige Versionsnummer: %v", err)
		}

		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Printf("Keine Änderungen: Datenbank ist bereits auf Version %d", version)
		case err != nil:
			log.Fatalf("Fehler beim Migrieren zur Version %d: %v", version, err)
		default:
			log.Printf("Migration zur Version %d erfolgreich", version)
		}

	case "status":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Println("Keine Migrationen wurden bisher ausgeführt")
				return
			}
			log.Fatalf("Fehler beim Abrufen der Migrationsversion: %v", err)
		}
		dirtyStatus := ""
		if dirty {
			dirtyStatus = " (dirty)"
		}
		log.Printf("Aktuelle Migrationsversion: %d%s", version, dirtyStatus)

	default:
		printUsage()
		os.Exit(1)
	}
}

// migrationURLs returns the migration source directory and the
// golang-migrate database URL for driver. Each driver has its own SQL dialect.
func migrationURLs(driver string) (string, string, error) {
	user := env.GetEnv("DB_USER", "freshfox")
	password := env.GetEnv("DB_PASSWORD", "freshfox")
	host := env.GetEnv("DB_HOST", "db")
	port := env.GetEnv("DB_PORT", defaultPort(driver))
	name := env.GetEnv("DB_NAME", "freshfox_db")

	switch driver {
	case database.DriverMySQL:
		return "file://migrations/mysql",
			fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true", user, password, host, port, name),
			nil
	case database.DriverPostgres:
		if dbURL := env.GetEnv("DATABASE_URL", ""); dbURL != "" {
			return "file://migrations/postgres", dbURL, nil
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(user, password),
			Host:     host + ":" + port,
			Path:     "/" + name,
			RawQuery: "sslmode=disable",
		}
		return "file://migrations/postgres", u.String(), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func defaultPort(driver string) string {
	if driver == database.DriverPostgres {
		return "5432"
	}
	return "3306"
}

func printUsage() {
	fmt.Println("Verwendung: go run cmd/migrate/main.go [command]")
	fmt.Println("Verfügbare Befehle:")
	fmt.Println("  up     - Führe alle ausstehenden Migrationen aus")
	fmt.Println("  down   - Rolle die letzte Migration zurück")
	fmt.Println("  goto N - Migriere zur Version N")
	fmt.Println("  status - Zeige aktuelle Migrationsversion an")
}
