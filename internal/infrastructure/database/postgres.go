package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/config"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // surfaces gorm.ErrDuplicatedKey on unique violations
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info().Msg("connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		// User-related entities
		&entity.User{},
		&entity.Role{},
		&entity.Permission{},

		// Tenancy entities
		&entity.Company{},
		&entity.CompanyMembership{},

		// Portfolio entities
		&entity.Property{},
		&entity.Unit{},
		&entity.Tenant{},
		&entity.Lease{},

		// Billing entities
		&entity.Invoice{},
		&entity.InvoiceLineItem{},
		&entity.Payment{},
		&entity.NumberSequence{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("database migrations completed")
	return nil
}

// SeedDefaultData seeds the database with default data (roles, permissions, admin user)
func SeedDefaultData(db *gorm.DB) error {
	log.Info().Msg("seeding default data")

	// Create default permissions
	permissions := []entity.Permission{
		{Name: "view-dashboard", GuardName: "web"},
		{Name: "manage-properties", GuardName: "web"},
		{Name: "manage-tenants", GuardName: "web"},
		{Name: "manage-leases", GuardName: "web"},
		{Name: "manage-invoices", GuardName: "web"},
		{Name: "manage-payments", GuardName: "web"},
		{Name: "run-sweeps", GuardName: "web"},
		{Name: "manage-users", GuardName: "web"},
		{Name: "manage-companies", GuardName: "web"},
		{Name: "view-reports", GuardName: "web"},
	}

	for i := range permissions {
		var existing entity.Permission
		if err := db.Where("name = ?", permissions[i].Name).First(&existing).Error; err != nil {
			if err := db.Create(&permissions[i]).Error; err != nil {
				log.Warn().Err(err).Str("permission", permissions[i].Name).Msg("failed to create permission")
			}
		}
	}

	// Reload permissions with IDs
	var allPermissions []entity.Permission
	db.Find(&allPermissions)

	pick := func(names ...string) []entity.Permission {
		var out []entity.Permission
		for _, name := range names {
			for _, p := range allPermissions {
				if p.Name == name {
					out = append(out, p)
					break
				}
			}
		}
		return out
	}

	// Create super-admin role with all permissions
	var superAdminRole entity.Role
	if err := db.Where("name = ?", "super-admin").First(&superAdminRole).Error; err != nil {
		superAdminRole = entity.Role{
			Name:        "super-admin",
			GuardName:   "web",
			Permissions: allPermissions,
		}
		if err := db.Create(&superAdminRole).Error; err != nil {
			log.Warn().Err(err).Msg("failed to create super-admin role")
		}
	}

	// Create landlord role with everything except cross-company administration
	var landlordRole entity.Role
	if err := db.Where("name = ?", "landlord").First(&landlordRole).Error; err != nil {
		landlordRole = entity.Role{
			Name:      "landlord",
			GuardName: "web",
			Permissions: pick(
				"view-dashboard",
				"manage-properties",
				"manage-tenants",
				"manage-leases",
				"manage-invoices",
				"manage-payments",
				"run-sweeps",
				"manage-users",
				"view-reports",
			),
		}
		if err := db.Create(&landlordRole).Error; err != nil {
			log.Warn().Err(err).Msg("failed to create landlord role")
		}
	}

	// Create caretaker role with day-to-day billing permissions
	var caretakerRole entity.Role
	if err := db.Where("name = ?", "caretaker").First(&caretakerRole).Error; err != nil {
		caretakerRole = entity.Role{
			Name:      "caretaker",
			GuardName: "web",
			Permissions: pick(
				"view-dashboard",
				"manage-tenants",
				"manage-invoices",
				"manage-payments",
			),
		}
		if err := db.Create(&caretakerRole).Error; err != nil {
			log.Warn().Err(err).Msg("failed to create caretaker role")
		}
	}

	// Create default user role with basic permissions (for new registrants)
	var userRole entity.Role
	if err := db.Where("name = ?", "user").First(&userRole).Error; err != nil {
		userRole = entity.Role{
			Name:      "user",
			GuardName: "web",
			Permissions: pick(
				"view-dashboard",
				"manage-properties",
				"manage-tenants",
				"manage-leases",
				"manage-invoices",
				"manage-payments",
			),
		}
		if err := db.Create(&userRole).Error; err != nil {
			log.Warn().Err(err).Msg("failed to create user role")
		}
	}

	// Create super admin user if configured via environment variables
	adminEmail := viper.GetString("ADMIN_EMAIL")
	adminPassword := viper.GetString("ADMIN_PASSWORD")
	adminName := viper.GetString("ADMIN_NAME")

	if adminEmail != "" && adminPassword != "" {
		var existingAdmin entity.User
		if err := db.Where("email = ?", adminEmail).First(&existingAdmin).Error; err != nil {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
			if err != nil {
				log.Warn().Err(err).Msg("failed to hash admin password")
			} else {
				var saRole entity.Role
				if err := db.Where("name = ?", "super-admin").First(&saRole).Error; err == nil {
					if adminName == "" {
						adminName = "Super Admin"
					}
					// Split admin name into first and last name
					firstName := adminName
					lastName := ""
					for i, c := range adminName {
						if c == ' ' {
							firstName = adminName[:i]
							lastName = adminName[i+1:]
							break
						}
					}
					adminUser := entity.User{
						ID:        uuid.New(),
						FirstName: firstName,
						LastName:  lastName,
						Email:     adminEmail,
						Password:  string(hashedPassword),
						Roles:     []entity.Role{saRole},
					}
					if err := db.Create(&adminUser).Error; err != nil {
						log.Warn().Err(err).Msg("failed to create super admin user")
					} else {
						log.Info().Str("email", adminEmail).Msg("super admin user created")
					}
				}
			}
		} else {
			log.Info().Str("email", adminEmail).Msg("super admin user already exists")
		}
	}

	log.Info().Msg("default data seeding completed")
	return nil
}
