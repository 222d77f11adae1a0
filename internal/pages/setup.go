package pages

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pagemill/cms-backend/internal/db"
)

func Init(gdb *gorm.DB) error {
	if err := db.EnsureSchema(gdb, "app_cms"); err != nil {
		return fmt.Errorf("ensure schema app_cms: %w", err)
	}
	if err := gdb.AutoMigrate(&Page{}); err != nil {
		return fmt.Errorf("migrate page tables: %w", err)
	}
	return nil
}
