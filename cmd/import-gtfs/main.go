package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/database"
	"github.com/traincheck/timetable-backend/internal/models"
	"github.com/traincheck/timetable-backend/internal/services"
)

func main() {
	var (
		feedName string
		filePath string
		list     bool
	)
	flag.StringVar(&feedName, "feed", "", "name of a catalog feed to download and import")
	flag.StringVar(&filePath, "file", "", "path of a local GTFS zip to import")
	flag.BoolVar(&list, "list", false, "print the feed catalog and exit")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	catalog, err := config.LoadFeedCatalog(cfg.GTFS.FeedsFile)
	if err != nil {
		logger.Fatalf("Failed to load feed catalog: %v", err)
	}

	if list {
		for _, f := range catalog.Feeds {
			fmt.Printf("%-12s %s\n", f.Name, f.URL)
		}
		return
	}

	if (feedName == "") == (filePath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -feed or -file is required")
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}

	importer := services.NewGTFSImportService(database.NewGTFSRepository(db), catalog, cfg.GTFS.DownloadTimeout, logger)

	var summary *models.ImportSummary
	if feedName != "" {
		summary, err = importer.ImportFeed(ctx, feedName)
	} else {
		summary, err = importer.ImportFile(ctx, filePath)
	}
	if err != nil {
		logger.WithError(err).Fatal("GTFS import failed")
	}

	fmt.Printf("Imported %s: %d agencies, %d routes, %d trips, %d stops, %d stop times in %dms\n",
		summary.Feed, summary.Agencies, summary.Routes, summary.Trips, summary.Stops, summary.StopTimes, summary.DurationMs)
}
