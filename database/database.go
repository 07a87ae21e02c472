package database

import (
	"fmt"

	"site-builder/config"
	"site-builder/internal/domain/site"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open connects to the database behind dsn. driver is "postgres" or
// "sqlite"; for sqlite dsn is a file path or ":memory:".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite has a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table of the site model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&site.Site{},
		&site.Page{},
		&site.Section{},
		&site.SectionItem{},
		&site.Social{},
		&site.HeaderLink{},
		&site.Template{},
	)
}

func InitDB() {
	db, err := Open(config.DB_DRIVER, config.DB_URL)
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to connect to database")
	}

	DB = db

	if err := Migrate(DB); err != nil {
		logrus.WithError(err).Fatal("❌ AutoMigrate error")
	}

	logrus.WithField("driver", config.DB_DRIVER).Info("✅ Connected and migrated successfully")
}
