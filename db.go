package main

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"golang.org/x/crypto/bcrypt"

	"noiportal/models"
	"noiportal/pkg/noi"
)

var (
	db          *gorm.DB
	store       noi.RecordStore
	attachments *noi.AttachmentStore
	coordinator *noi.Coordinator
)

// authEnabled reports whether the portal runs with the registered-user layer.
// The flat-log deployment can run without a database at all; submissions are
// then recorded with an empty submitter identity.
func authEnabled() bool {
	return db != nil
}

func initDB() {
	dsn := cfg.Database.DSN
	if env := os.Getenv("DB_DSN"); env != "" {
		dsn = env
	}
	if dsn == "" {
		if cfg.Store.Backend == "csv" {
			log.Println("no DB_DSN set: running unauthenticated with the flat-log backend")
			return
		}
		log.Fatal("DB_DSN is not set and store.backend is gorm; a database DSN is required")
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}
	var err error
	db, err = gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("failed to connect %s database: %v", cfg.Database.Driver, err)
	}

	if cfg.Database.AutoMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.CreditNote{}); err != nil {
			log.Printf("migration warning (credit_notes): %v", err)
		}
	}
	seedDB()
}

// initCore wires the record store, attachment store and coordinator from the
// loaded configuration.
func initCore() {
	switch cfg.Store.Backend {
	case "csv":
		var seq noi.Sequencer
		if cfg.Store.IDScheme == "timestamp" {
			seq = &noi.TimestampSequencer{}
		}
		store = noi.NewCSVStore(cfg.Store.CSVPath, seq)
	default:
		gs := noi.NewGormStore(db)
		switch cfg.Store.IDScheme {
		case "serial":
			// acceptable for single-writer deployments only
			store = noi.WithSequencer(gs, &noi.SerialSequencer{Counter: gs})
		case "timestamp":
			store = noi.WithSequencer(gs, &noi.TimestampSequencer{})
		default:
			store = gs
		}
	}

	attachments = noi.NewAttachmentStore(cfg.Uploads.Dir)
	attachments.Thumbnails = cfg.Uploads.Thumbnails
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		log.Printf("failed to create upload dir %s: %v", cfg.Uploads.Dir, err)
	}
	coordinator = noi.NewCoordinator(store, attachments)
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Seed an administrator account once, with a forced first-run password
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{Username: "admin", RoleID: &rid}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
}
