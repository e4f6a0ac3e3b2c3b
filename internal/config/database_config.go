package config

import "strings"

type DatabaseConfig interface {
	GetDatabaseURL() string
	GetMigrationsSource() string
	GetDatabaseURLForMigrate() string
}

type Database struct {
	file *fileConfig
}

var _ DatabaseConfig = Database{}

// GetDatabaseURL is empty when no database is configured, in which case the
// server runs on in-memory repositories.
func (d Database) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", d.file.Database.URL)
}

func (d Database) GetMigrationsSource() string {
	return GetEnv("MIGRATIONS_SOURCE", orDefault(d.file.Database.Migrations, "file://migrations"))
}

// GetDatabaseURLForMigrate returns the database URL with an sslmode set, as
// the migrate postgres driver requires one.
func (d Database) GetDatabaseURLForMigrate() string {
	url := d.GetDatabaseURL()
	if url == "" || strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&sslmode=disable"
	}
	return url + "?sslmode=disable"
}
