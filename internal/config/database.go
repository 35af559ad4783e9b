// internal/config/database.go
package config

import (
	"fmt"
)

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// SQLiteDSN enables foreign keys and a busy timeout so concurrent purchases
// wait on the write lock instead of failing with SQLITE_BUSY.
func (d *DatabaseConfig) SQLiteDSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", d.SQLitePath)
}
