package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/database"
	"github.com/traincheck/timetable-backend/internal/services"
	"github.com/traincheck/timetable-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	tokens *jwt.Service
}

// setupTestServer wires the real services over a sqlmock database
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db := &database.PostgresDB{DB: sqlx.NewDb(sqlDB, "sqlmock")}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tokens := jwt.NewService("test-secret", time.Hour)

	timetableRepo := database.NewTimetableRepository(db)
	customTripRepo := database.NewCustomTripRepository(db)
	userRepo := database.NewUserRepository(db)
	statsRepo := database.NewStatsRepository(db)
	gtfsRepo := database.NewGTFSRepository(db)
	loginAttemptRepo := database.NewLoginAttemptRepository(db)

	timetableCfg := config.TimetableConfig{DefaultLimit: 10, MaxLimit: 50, LocalTimezone: "Europe/Warsaw"}
	authService := services.NewAuthService(userRepo, tokens, bcrypt.MinCost, logger)
	importer := services.NewGTFSImportService(gtfsRepo, config.DefaultFeedCatalog(), time.Second, logger)
	limiter := services.NewRateLimitService(loginAttemptRepo, services.DefaultRateLimitConfig(), logger)

	jobs := services.NewCronService(importer, limiter, time.UTC, logger)
	require.NoError(t, jobs.ScheduleLoginCleanup("0 0 * * * *"))

	set := Set{
		Timetable: NewTimetableHandler(
			services.NewTimetableService(timetableRepo, timetableCfg, logger),
			services.NewCalendarService(timetableRepo, logger),
			logger,
		),
		Auth:  NewAuthHandler(authService, limiter, logger),
		Stats: NewStatsHandler(services.NewStatsService(statsRepo, logger), logger),
		Admin: NewAdminHandler(
			services.NewCustomTripService(customTripRepo, timetableCfg.LocalTimezone, logger),
			authService,
			importer,
			jobs,
			logger,
		),
	}

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), set, tokens)

	return &testServer{router: router, mock: mock, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewBuffer(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, username, role string) string {
	t.Helper()
	token, err := s.tokens.GenerateAccessToken(username, role)
	require.NoError(t, err)
	return token
}

// expectLoginAllowed queues the two rate limit lookups that precede a login
func (s *testServer) expectLoginAllowed(username string) {
	s.mock.ExpectQuery(`SELECT COUNT(.+) FROM login_attempts`).
		WithArgs(username, "username", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).AddRow(0, time.Now()))
	s.mock.ExpectQuery(`SELECT COUNT(.+) FROM login_attempts`).
		WithArgs(sqlmock.AnyArg(), "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).AddRow(0, time.Now()))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

