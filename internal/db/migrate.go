package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/cybersms/numstore/internal/models"
)

// Migrate runs schema migrations for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.Activation{},
		&models.Favorite{},
		&models.Credential{},
		&models.Setting{},
	)
}
