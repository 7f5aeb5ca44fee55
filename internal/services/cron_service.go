package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/models"
)

// FeedImporter refreshes a catalog feed
type FeedImporter interface {
	ImportFeed(ctx context.Context, name string) (*models.ImportSummary, error)
}

// AttemptCleaner purges expired login attempts
type AttemptCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

const (
	jobFeedRefresh  = "gtfs_feed_refresh"
	jobLoginCleanup = "login_attempt_cleanup"

	feedRefreshTimeout  = 30 * time.Minute
	loginCleanupTimeout = time.Minute
)

type scheduledEntry struct {
	id   cron.EntryID
	spec string
}

// CronService manages scheduled background jobs. Schedules use six fields
// with seconds first: "0 30 3 * * *" runs at 03:30:00 every day.
type CronService struct {
	cron     *cron.Cron
	importer FeedImporter
	cleaner  AttemptCleaner
	logger   *logrus.Logger

	mu      sync.Mutex
	entries map[string]scheduledEntry

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCronService creates a new CronService. Schedules are evaluated in loc.
func NewCronService(importer FeedImporter, cleaner AttemptCleaner, loc *time.Location, logger *logrus.Logger) *CronService {
	if loc == nil {
		loc = time.UTC
	}

	cronLogger := cron.PrintfLogger(logger)
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &CronService{
		cron:     c,
		importer: importer,
		cleaner:  cleaner,
		logger:   logger,
		entries:  make(map[string]scheduledEntry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ScheduleFeedRefresh re-imports feed on the given schedule. An import replaces every
// GTFS table, so only one feed can be refreshed on a schedule.
func (s *CronService) ScheduleFeedRefresh(spec, feed string) error {
	if feed == "" {
		return fmt.Errorf("feed refresh needs a feed name")
	}
	return s.add(jobFeedRefresh, spec, func() { s.refreshFeedJob(feed) })
}

// ScheduleLoginCleanup purges expired login attempts on the given schedule
func (s *CronService) ScheduleLoginCleanup(spec string) error {
	return s.add(jobLoginCleanup, spec, s.loginCleanupJob)
}

func (s *CronService) add(name, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s is already scheduled", name)
	}

	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("failed to schedule %s job: %w", name, err)
	}
	s.entries[name] = scheduledEntry{id: id, spec: spec}

	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": spec,
	}).Info("Scheduled background job")
	return nil
}

// Start starts the scheduler
func (s *CronService) Start() {
	s.logger.WithField("jobs", len(s.Jobs())).Info("Starting cron service")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Cron service stopped")
}

// Jobs returns the registered jobs ordered by name
func (s *CronService) Jobs() []models.ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]models.ScheduledJob, 0, len(s.entries))
	for name, e := range s.entries {
		job := models.ScheduledJob{Name: name, Schedule: e.spec}
		entry := s.cron.Entry(e.id)
		if !entry.Next.IsZero() {
			next := entry.Next
			job.NextRun = &next
		}
		if !entry.Prev.IsZero() {
			prev := entry.Prev
			job.PrevRun = &prev
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

func (s *CronService) refreshFeedJob(feed string) {
	ctx, cancel := context.WithTimeout(s.ctx, feedRefreshTimeout)
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{"job": jobFeedRefresh, "feed": feed})
	log.Info("Starting scheduled feed refresh")
	startTime := time.Now()

	summary, err := s.importer.ImportFeed(ctx, feed)
	if err != nil {
		log.WithError(err).Error("Scheduled feed refresh failed")
		return
	}

	log.WithFields(logrus.Fields{
		"trips":      summary.Trips,
		"stop_times": summary.StopTimes,
		"duration":   time.Since(startTime).String(),
	}).Info("Scheduled feed refresh completed")
}

func (s *CronService) loginCleanupJob() {
	ctx, cancel := context.WithTimeout(s.ctx, loginCleanupTimeout)
	defer cancel()

	deleted, err := s.cleaner.CleanupExpired(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("job", jobLoginCleanup).Error("Login attempt cleanup failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"job":     jobLoginCleanup,
		"deleted": deleted,
	}).Debug("Login attempt cleanup completed")
}
