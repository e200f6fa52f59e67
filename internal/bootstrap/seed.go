package bootstrap

import (
	"log"

	"anoa.com/rewardshub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.AwardEvent{},
		&entity.UserBalance{},
		&entity.DailyCheckin{},
		&entity.ReferralApplication{},
		&entity.SpotlightCandidate{},
		&entity.SpotlightClaimRequest{},
		&entity.OrphanEvidence{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Super administrator"},
		{Name: entity.RoleModerator, Description: "Reviews spotlight claims"},
		{Name: entity.RoleMember, Description: "Regular member"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser makes the given identity an admin so it can moderate claims in development.
func SeedAdminUser(db *gorm.DB, adminID uuid.UUID, email string) error {
	if adminID == uuid.Nil {
		return nil
	}

	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var existing []entity.User
	if err := db.Where("id = ?", adminID).Limit(1).Find(&existing).Error; err != nil {
		return err
	}

	if len(existing) > 0 {
		if existing[0].RoleID != nil && *existing[0].RoleID == adminRole.ID {
			return nil
		}
		log.Printf("promoting user %s to admin", adminID)
		return db.Model(&entity.User{}).Where("id = ?", adminID).Update("role_id", adminRole.ID).Error
	}

	admin := entity.User{
		ID:          adminID,
		Email:       email,
		DisplayName: "Administrator",
		RoleID:      &adminRole.ID,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("admin user %s seeded", adminID)
	return nil
}

// SeedSpotlight creates a first active spotlight when the catalog is empty.
func SeedSpotlight(db *gorm.DB, reward int64) error {
	var count int64
	if err := db.Model(&entity.SpotlightCandidate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	spotlight := entity.SpotlightCandidate{
		Title:        "Tool of the week",
		ToolName:     "Notion",
		Description:  "Sign up with the same email you use here and upload a screenshot of your workspace.",
		CTAURL:       "https://www.notion.so/signup",
		PointsReward: reward,
		IsActive:     true,
	}
	if err := db.Create(&spotlight).Error; err != nil {
		return err
	}

	log.Printf("default spotlight %s seeded", spotlight.ID)
	return nil
}
