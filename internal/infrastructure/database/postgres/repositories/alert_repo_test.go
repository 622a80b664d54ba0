package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/foia-tracker/internal/domain/alert"
	"github.com/turtacn/foia-tracker/internal/domain/jurisdiction"
	"github.com/turtacn/foia-tracker/internal/infrastructure/database/postgres"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

var alertCols = []string{
	"id", "request_id", "agency", "jurisdiction", "kind", "threshold_id", "level",
	"due_date", "generated_at", "message", "guidance_text",
}

type AlertRepoTestSuite struct {
	suite.Suite
	mock sqlmock.Sqlmock
	db   *sql.DB
	repo alert.Repository
}

func (s *AlertRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)

	log := logging.NewNopLogger()
	s.repo = NewPostgresAlertRepo(postgres.NewConnectionWithDB(s.db, log), log)
}

func (s *AlertRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *AlertRepoTestSuite) newAlert() *alert.Alert {
	sub := alert.Subject{RequestID: "req-1", Agency: "Home Office", Jurisdiction: jurisdiction.UK, Deadline: day(2024, 1, 31)}
	return alert.New(sub, alert.Threshold{ID: "T-5", Kind: alert.KindUpcoming, OffsetDays: 5, Level: alert.LevelWarning}, day(2024, 1, 26))
}

func (s *AlertRepoTestSuite) TestInsert_New() {
	a := s.newAlert()

	s.mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (request_id, threshold_id) DO NOTHING")).
		WithArgs(a.ID, "req-1", "Home Office", "UK", "upcoming", "T-5", "warning",
			a.DueDate, a.GeneratedAt, a.Message, a.GuidanceText).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := s.repo.Insert(context.Background(), a)
	s.Require().NoError(err)
	s.True(inserted)
}

func (s *AlertRepoTestSuite) TestInsert_AlreadyRecorded() {
	a := s.newAlert()

	s.mock.ExpectExec("INSERT INTO alerts").WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := s.repo.Insert(context.Background(), a)
	s.Require().NoError(err)
	s.False(inserted)
}

func (s *AlertRepoTestSuite) TestInsert_Error() {
	s.mock.ExpectExec("INSERT INTO alerts").WillReturnError(sql.ErrConnDone)

	_, err := s.repo.Insert(context.Background(), s.newAlert())
	s.True(errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func (s *AlertRepoTestSuite) TestExists() {
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM alerts WHERE request_id = $1 AND threshold_id = $2)")).
		WithArgs("req-1", "overdue").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.repo.Exists(context.Background(), "req-1", "overdue")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *AlertRepoTestSuite) TestListByRequest() {
	a := s.newAlert()

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM alerts WHERE request_id = $1 ORDER BY generated_at DESC")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows(alertCols).AddRow(
			a.ID, a.RequestID, a.Agency, "UK", "upcoming", "T-5", "warning",
			a.DueDate, a.GeneratedAt, a.Message, a.GuidanceText))

	list, err := s.repo.ListByRequest(context.Background(), "req-1")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(a, list[0])
}

func (s *AlertRepoTestSuite) TestList_Filters() {
	since := day(2024, 1, 1)

	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM alerts WHERE request_id = $1 AND kind = $2 AND generated_at >= $3")).
		WithArgs("req-1", "overdue", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(regexp.QuoteMeta("LIMIT $4 OFFSET $5")).
		WithArgs("req-1", "overdue", since, 100, 0).
		WillReturnRows(sqlmock.NewRows(alertCols))

	list, total, err := s.repo.List(context.Background(), alert.ListOptions{
		RequestID: "req-1", Kind: alert.KindOverdue, Since: since, Limit: 500,
	})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(list)
}

func TestAlertRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AlertRepoTestSuite))
}

//Personal.AI order the ending
