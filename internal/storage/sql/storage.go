package sqlstorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/lomoval/alarmd/internal/storage"
	"github.com/lomoval/alarmd/internal/util"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var (
	ErrConnectionFailed = errors.New("failed to connect")
	ErrUnknownDriver    = errors.New("unknown database driver")
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	// Path to the database file, sqlite only.
	Path string
}

type Storage struct {
	config Config
	db     *sqlx.DB
}

// alarmRow mirrors the alarms table; due_at is kept as text in the
// same format the web form submits.
type alarmRow struct {
	ID          int64  `db:"id"`
	Description string `db:"description"`
	DueAt       string `db:"due_at"`
	Recurrence  int    `db:"recurrence"`
}

func New(config Config) *Storage {
	return &Storage{config: config}
}

func (s *Storage) Connect(ctx context.Context) error {
	dsn, err := s.dsn()
	if err != nil {
		return err
	}
	db, err := sqlx.ConnectContext(ctx, s.config.Driver, dsn)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return s.createTables(ctx)
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddAlarm(ctx context.Context, a *storage.Alarm) error {
	if a.Description == "" {
		return storage.ErrEmptyDescription
	}
	return s.db.GetContext(
		ctx,
		&a.ID,
		s.db.Rebind("INSERT INTO alarms(description, due_at, recurrence) VALUES(?, ?, ?) RETURNING id"),
		a.Description, util.FormatDateTime(a.DueAt), int(a.Recurrence))
}

func (s *Storage) LoadAlarms(ctx context.Context) ([]storage.Alarm, error) {
	var rows []alarmRow
	err := s.db.SelectContext(ctx, &rows, "SELECT id, description, due_at, recurrence FROM alarms")
	if err != nil {
		return nil, fmt.Errorf("failed to load alarms: %w", err)
	}

	alarms := make([]storage.Alarm, 0, len(rows))
	for _, row := range rows {
		dueAt, err := util.ParseDateTime(row.DueAt)
		if err != nil {
			log.Errorf("skipping alarm %d with bad due time %q: %v", row.ID, row.DueAt, err)
			continue
		}
		alarms = append(alarms, storage.Alarm{
			ID:          row.ID,
			Description: row.Description,
			DueAt:       dueAt,
			Recurrence:  storage.Recurrence(row.Recurrence),
		})
	}
	return alarms, nil
}

func (s *Storage) UpdateAlarmDueAt(ctx context.Context, id int64, dueAt time.Time) error {
	res, err := s.db.ExecContext(
		ctx,
		s.db.Rebind("UPDATE alarms SET due_at=? WHERE id=?"),
		util.FormatDateTime(dueAt), id)
	if err != nil {
		return fmt.Errorf("failed to update alarm %d: %w", id, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("failed to update alarm with id %d: %w", id, storage.ErrNotFoundAlarm)
	}
	return nil
}

func (s *Storage) dsn() (string, error) {
	switch s.config.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.config.Host, s.config.Port, s.config.Database, s.config.Username, s.config.Password), nil
	case DriverSqlite:
		return s.config.Path, nil
	default:
		return "", fmt.Errorf("%q: %w", s.config.Driver, ErrUnknownDriver)
	}
}

func (s *Storage) createTables(ctx context.Context) error {
	idColumn := "id BIGSERIAL PRIMARY KEY"
	if s.config.Driver == DriverSqlite {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS alarms (%s, "+
			"description TEXT NOT NULL, "+
			"due_at TEXT NOT NULL, "+
			"recurrence INTEGER NOT NULL DEFAULT 0)", idColumn))
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
