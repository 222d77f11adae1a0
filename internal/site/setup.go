package site

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pagemill/cms-backend/internal/db"
)

func Init(gdb *gorm.DB) error {
	if err := db.EnsureSchema(gdb, "app_site"); err != nil {
		return fmt.Errorf("ensure schema app_site: %w", err)
	}
	if err := gdb.AutoMigrate(&Setting{}); err != nil {
		return fmt.Errorf("migrate site tables: %w", err)
	}
	return nil
}
