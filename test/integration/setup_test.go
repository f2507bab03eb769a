package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	auditrepo "github.com/Ramsey-B/laurel/internal/repositories/audit"
	clientrepo "github.com/Ramsey-B/laurel/internal/repositories/client"
	dependentsrepo "github.com/Ramsey-B/laurel/internal/repositories/dependents"
	"github.com/Ramsey-B/laurel/internal/repositories/duplicatecandidate"
	enrollmentrepo "github.com/Ramsey-B/laurel/internal/repositories/enrollment"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/detection"
	"github.com/Ramsey-B/laurel/pkg/logging"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/names"
)

// testContext wires repositories against a real database. Tests are skipped
// unless LAUREL_TEST_DB carries a Postgres DSN with the schema migrated.
type testContext struct {
	ctx            context.Context
	db             database.DB
	clientRepo     *clientrepo.Repository
	candidateRepo  *duplicatecandidate.Repository
	enrollmentRepo *enrollmentrepo.Repository
	dependentsRepo *dependentsrepo.Repository
	auditor        *auditrepo.Recorder
	detection      *detection.Service
	detector       *detection.Detector
}

func setupTestContext(t *testing.T) *testContext {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dsn := os.Getenv("LAUREL_TEST_DB")
	if dsn == "" {
		t.Skip("LAUREL_TEST_DB not set")
	}

	sqlxDB, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlxDB.Close() })

	logger := logging.NewNop()
	db := database.NewDatabaseInstance(sqlxDB, logger)

	tc := &testContext{
		ctx:            context.Background(),
		db:             db,
		clientRepo:     clientrepo.NewRepository(db, logger),
		candidateRepo:  duplicatecandidate.NewRepository(db, logger),
		enrollmentRepo: enrollmentrepo.NewRepository(db, logger),
		dependentsRepo: dependentsrepo.NewRepository(db, logger),
		auditor:        auditrepo.NewRecorder(db, logger),
	}

	scorer := names.NewScorer(names.DefaultNicknames())
	tc.detector = detection.NewDetector(scorer, detection.DefaultThreshold)
	tc.detection = detection.NewService(logger, tc.detector, tc.clientRepo, tc.candidateRepo, nil, detection.DefaultConfig())

	return tc
}

func (tc *testContext) createClient(t *testing.T, firstName, lastName string, mutate func(*models.Client)) *models.Client {
	t.Helper()

	c := &models.Client{
		FirstName: firstName,
		LastName:  lastName,
		Source:    models.SourceManual,
	}
	if mutate != nil {
		mutate(c)
	}

	created, err := tc.clientRepo.Create(tc.ctx, c)
	require.NoError(t, err)
	return created
}

func (tc *testContext) createEnrollment(t *testing.T, clientID, programID string, start time.Time, end *time.Time) *models.ClientProgramEnrollment {
	t.Helper()

	created, err := tc.enrollmentRepo.Create(tc.ctx, &models.ClientProgramEnrollment{
		ClientID:  clientID,
		ProgramID: programID,
		StartDate: start,
		EndDate:   end,
		Status:    models.EnrollmentStatusActive,
	})
	require.NoError(t, err)
	return created
}

func uniqueEmail() *string {
	email := uuid.New().String()[:8] + "@example.test"
	return &email
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}
