package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/indureport/indureportgo/internal/config"
	"github.com/indureport/indureportgo/internal/database"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/store"
	"github.com/indureport/indureportgo/internal/utils"
)

func main() {
	fmt.Println("🌱 InduReport Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Report{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// Check if data already exists
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		fmt.Printf("⚠️  Database already has %d users. Clear it first? (y/N): ", userCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE reports CASCADE")
		db.Exec("TRUNCATE TABLE users CASCADE")
		fmt.Println("✅ Data cleared")
	}

	ctx := context.Background()
	users := store.NewUserStore(db)
	reports := store.NewReportStore(db)

	fmt.Println()
	fmt.Println("👤 Creating demo users...")

	demoUsers := []struct {
		username string
		password string
		email    string
		name     string
		role     models.Role
		company  string
	}{
		{"admin", "admin123", "admin@indureport.local", "Admin", models.RoleAdmin, ""},
		{"supervisor", "super123", "supervisor@indureport.local", "Sofia Vargas", models.RoleSupervisor, "NorthPlant"},
		{"operator", "oper123", "operator@indureport.local", "Marco Leone", models.RoleOperator, "NorthPlant"},
		{"operator2", "oper123", "operator2@indureport.local", "Jonas Weber", models.RoleOperator, "SouthPlant"},
	}

	created := make(map[string]*models.User)
	for _, du := range demoUsers {
		hash, err := utils.HashPassword(du.password)
		if err != nil {
			log.Fatalf("❌ Failed to hash password: %v", err)
		}
		u := &models.User{
			Username: du.username,
			Password: hash,
			Email:    du.email,
			Name:     du.name,
			Role:     du.role,
			Company:  du.company,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("❌ Failed to create user %s: %v", du.username, err)
		}
		created[du.username] = u
		fmt.Printf("   ✅ %s (%s / %s)\n", du.username, du.role, du.password)
	}

	fmt.Println()
	fmt.Println("📋 Creating demo reports...")

	now := time.Now().UTC()
	synced := now.Add(-30 * time.Minute)
	demoReports := []models.Report{
		{
			LocalID:     "demo-local-1",
			Title:       "Conveyor belt misalignment",
			Description: "Belt on line 2 drifting to the left, squealing near the drive pulley.",
			Type:        models.ReportTypeMaintenance,
			Area:        models.AreaProduction,
			Location:    "Line 2, drive end",
			MaintenanceType: models.MaintenanceCorrective,
			ShiftType:   models.ShiftMorning,
			Priority:    models.PriorityHigh,
			Status:      models.WorkStatusPending,
			CreatedBy:   created["operator"].ID,
			SyncStatus:  models.SyncSynced,
			SyncedAt:    &synced,
		},
		{
			LocalID:     "demo-local-2",
			Title:       "Oil spill near packaging station",
			Description: "Hydraulic oil pooling under the case packer, slip hazard cordoned off.",
			Type:        models.ReportTypeIncident,
			Area:        models.AreaPackaging,
			Location:    "Case packer 1",
			ShiftType:   models.ShiftAfternoon,
			NextShiftType: models.ShiftNight,
			Priority:    models.PriorityHigh,
			Status:      models.WorkStatusInProgress,
			CreatedBy:   created["operator"].ID,
			SyncStatus:  models.SyncSynced,
			SyncedAt:    &synced,
		},
		{
			Title:       "Relabel rack aisles",
			Description: "Aisle labels in the cold store are peeling; propose laminated replacements.",
			Type:        models.ReportTypeImprovement,
			Area:        models.AreaWarehouse,
			ShiftType:   models.ShiftNight,
			Priority:    models.PriorityLow,
			Status:      models.WorkStatusPending,
			CreatedBy:   created["operator2"].ID,
			SyncStatus:  models.SyncSynced,
			SyncedAt:    &synced,
		},
	}

	for i := range demoReports {
		if err := reports.Create(ctx, &demoReports[i]); err != nil {
			log.Fatalf("❌ Failed to create report: %v", err)
		}
		fmt.Printf("   ✅ %s\n", demoReports[i].Title)
	}

	fmt.Println()
	fmt.Println("✅ Demo data seeded")
}
