package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/database"
	"github.com/traincheck/timetable-backend/internal/services"
)

// Removes every GTFS row (agency through stop_times). User accounts are kept.
func main() {
	var dbURLFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	// .env is optional; it keeps secrets off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	importer := services.NewGTFSImportService(database.NewGTFSRepository(db), config.DefaultFeedCatalog(), time.Minute, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := importer.TruncateTables(ctx); err != nil {
		log.Fatalf("failed to truncate GTFS tables: %v", err)
	}

	stats := services.NewStatsService(database.NewStatsRepository(db), logger)
	routes, err := stats.RouteTripCounts(ctx)
	if err != nil {
		log.Fatalf("failed to verify tables: %v", err)
	}
	fmt.Printf("GTFS data cleared. Routes remaining: %d\n", len(routes))
}
