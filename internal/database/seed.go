package database

import (
	"log"

	"github.com/Sana-Rashid-135/coach/internal/models"
	"gorm.io/gorm"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existingUser models.User
	result := db.Where("phone = ?", "+15550100").First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	user := models.User{
		Phone:                "+15550100",
		Name:                 "Dev User",
		Timezone:             "America/Chicago",
		PreferredCheckinTime: "07:00",
	}

	if err := db.Create(&user).Error; err != nil {
		return err
	}

	log.Printf("Seeded dev user %d (%s)", user.ID, user.Phone)
	return nil
}
