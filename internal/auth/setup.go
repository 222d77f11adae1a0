package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pagemill/cms-backend/internal/db"
)

func Init(gdb *gorm.DB) error {
	if err := db.EnsureSchema(gdb, "app_auth"); err != nil {
		return fmt.Errorf("ensure schema app_auth: %w", err)
	}
	if err := gdb.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("migrate auth tables: %w", err)
	}
	return nil
}
