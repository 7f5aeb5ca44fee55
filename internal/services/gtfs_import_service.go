package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jamespfennell/gtfs"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/models"
)

// maxFeedSize bounds the downloaded archive
const maxFeedSize = 512 << 20

// GTFSStore replaces or clears the static feed tables
type GTFSStore interface {
	ReplaceStaticFeed(ctx context.Context, feed *models.StaticFeed) error
	TruncateTables(ctx context.Context) error
}

// GTFSImportService downloads, parses and loads GTFS static feeds
type GTFSImportService struct {
	store   GTFSStore
	catalog *config.FeedCatalog
	client  *http.Client
	logger  *logrus.Logger
}

// NewGTFSImportService creates a new GTFS import service
func NewGTFSImportService(store GTFSStore, catalog *config.FeedCatalog, timeout time.Duration, logger *logrus.Logger) *GTFSImportService {
	return &GTFSImportService{
		store:   store,
		catalog: catalog,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Feeds lists the importable feeds
func (s *GTFSImportService) Feeds() []config.Feed {
	return s.catalog.Feeds
}

// ImportFeed downloads the named catalog feed and replaces the stored data
func (s *GTFSImportService) ImportFeed(ctx context.Context, name string) (*models.ImportSummary, error) {
	feed, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, models.NewNotFound("feed %q is not in the catalog", name)
	}

	s.logger.WithFields(logrus.Fields{
		"feed": feed.Name,
		"url":  feed.URL,
	}).Info("Downloading GTFS feed")

	data, err := s.download(ctx, feed.URL)
	if err != nil {
		s.logger.WithError(err).WithField("feed", feed.Name).Error("GTFS download failed")
		return nil, models.NewStoreUnavailable(fmt.Sprintf("failed to download feed %s", feed.Name), err)
	}

	return s.importBytes(ctx, feed.Name, data)
}

// ImportFile loads a GTFS zip from the local filesystem
func (s *GTFSImportService) ImportFile(ctx context.Context, path string) (*models.ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewInvalidInput("failed to read %s: %v", path, err)
	}
	return s.importBytes(ctx, path, data)
}

// TruncateTables clears every GTFS table
func (s *GTFSImportService) TruncateTables(ctx context.Context) error {
	if err := s.store.TruncateTables(ctx); err != nil {
		return storeError(s.logger, "truncate GTFS tables", err)
	}
	s.logger.Info("GTFS tables truncated")
	return nil
}

func (s *GTFSImportService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > maxFeedSize {
		return nil, fmt.Errorf("feed exceeds %d bytes", maxFeedSize)
	}
	return data, nil
}

func (s *GTFSImportService) importBytes(ctx context.Context, name string, data []byte) (*models.ImportSummary, error) {
	start := time.Now()

	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, models.NewInvalidInput("invalid GTFS archive %s: %v", name, err)
	}
	if len(static.Warnings) > 0 {
		s.logger.WithFields(logrus.Fields{
			"feed":     name,
			"warnings": len(static.Warnings),
		}).Warn("GTFS feed parsed with warnings")
	}

	feed := convertStatic(static)
	if err := s.store.ReplaceStaticFeed(ctx, feed); err != nil {
		return nil, storeError(s.logger, "load GTFS feed", err)
	}

	summary := feed.Summarize(name)
	summary.DurationMs = time.Since(start).Milliseconds()

	s.logger.WithFields(logrus.Fields{
		"feed":        name,
		"agencies":    summary.Agencies,
		"routes":      summary.Routes,
		"trips":       summary.Trips,
		"stops":       summary.Stops,
		"stop_times":  summary.StopTimes,
		"duration_ms": summary.DurationMs,
	}).Info("GTFS feed imported")

	return &summary, nil
}

// convertStatic maps a parsed feed onto table rows
func convertStatic(static *gtfs.Static) *models.StaticFeed {
	feed := &models.StaticFeed{}

	for _, a := range static.Agencies {
		feed.Agencies = append(feed.Agencies, models.Agency{
			ID:       a.Id,
			Name:     a.Name,
			URL:      a.Url,
			Timezone: a.Timezone,
		})
	}

	singleAgencyID := ""
	if len(static.Agencies) == 1 {
		singleAgencyID = static.Agencies[0].Id
	}

	for _, r := range static.Routes {
		agencyID := singleAgencyID
		if r.Agency != nil && r.Agency.Id != "" {
			agencyID = r.Agency.Id
		}
		feed.Routes = append(feed.Routes, models.Route{
			ID:        r.Id,
			AgencyID:  agencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      int(r.Type),
		})
	}

	for _, svc := range static.Services {
		feed.Calendars = append(feed.Calendars, models.ServiceCalendar{
			ServiceID: svc.Id,
			Monday:    svc.Monday,
			Tuesday:   svc.Tuesday,
			Wednesday: svc.Wednesday,
			Thursday:  svc.Thursday,
			Friday:    svc.Friday,
			Saturday:  svc.Saturday,
			Sunday:    svc.Sunday,
			StartDate: svc.StartDate,
			EndDate:   svc.EndDate,
		})
		for _, d := range svc.AddedDates {
			feed.Exceptions = append(feed.Exceptions, models.CalendarException{
				ServiceID: svc.Id, Date: d, ExceptionType: models.ExceptionAdded,
			})
		}
		for _, d := range svc.RemovedDates {
			feed.Exceptions = append(feed.Exceptions, models.CalendarException{
				ServiceID: svc.Id, Date: d, ExceptionType: models.ExceptionRemoved,
			})
		}
	}

	for _, s := range static.Stops {
		feed.Stops = append(feed.Stops, models.Stop{
			ID:        s.Id,
			Name:      s.Name,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		})
	}

	for _, t := range static.Trips {
		if t.Route == nil || t.Service == nil {
			continue
		}
		feed.Trips = append(feed.Trips, models.Trip{
			ID:        t.ID,
			RouteID:   t.Route.Id,
			ServiceID: t.Service.Id,
		})
		for _, st := range t.StopTimes {
			if st.Stop == nil {
				continue
			}
			feed.StopTimes = append(feed.StopTimes, models.StopTime{
				TripID:        t.ID,
				StopSequence:  st.StopSequence,
				StopID:        st.Stop.Id,
				ArrivalTime:   int(st.ArrivalTime / time.Second),
				DepartureTime: int(st.DepartureTime / time.Second),
			})
		}
	}

	return feed
}
