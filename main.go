package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SmartNuvem/smartpedidos-sub002/events"
	"github.com/SmartNuvem/smartpedidos-sub002/models"
	"github.com/SmartNuvem/smartpedidos-sub002/routes"
	"github.com/SmartNuvem/smartpedidos-sub002/worker"
)

func main() {
	logrus.Info("✅ Starting application...")

	// Load environment variables
	_ = godotenv.Load()

	// Init DB
	db := initDatabase()

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.Store{},
		&models.StoreHour{},
		&models.DeliveryArea{},
		&models.Category{},
		&models.Product{},
		&models.AvailabilityWindow{},
		&models.OptionGroup{},
		&models.OptionItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemOption{},
		&models.SalonTable{},
		&models.PrintJob{},
	); err != nil {
		logrus.Fatalf("❌ AutoMigrate failed: %v", err)
	}

	// Gin setup
	r := gin.Default()

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "X-Store-Slug"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Event hub shared by handlers and the recovery loop
	hub := events.NewHub()

	// Setup routes
	routes.SetupRoutes(r, db, hub)

	// Start the stuck-order recovery loop
	recovery := worker.NewStuckOrderRecovery(db, hub,
		envDuration("RECOVERY_INTERVAL_SECONDS", 60)*time.Second,
		envDuration("STUCK_ORDER_THRESHOLD_MINUTES", 5)*time.Minute,
	)
	go recovery.Start(context.Background())

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logrus.Infof("🚀 Server running on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("❌ Failed to start server: %v", err)
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase() *gorm.DB {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			logrus.Fatalf("❌ DB connection failed: %v", err)
		}
		return db
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, user, password, dbname, port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("❌ Failed to connect DB: %v", err)
	}
	return db
}

func envDuration(key string, fallback int) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
