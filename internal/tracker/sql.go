package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// registers the postgres driver
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/mission"
)

const createInstrument = `CREATE TABLE IF NOT EXISTS instrument (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	short_name TEXT NOT NULL,
	full_name TEXT NOT NULL,
	description TEXT NOT NULL
)`

const createScienceFile = `CREATE TABLE IF NOT EXISTS science_file (
	file_key TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	bucket TEXT NOT NULL,
	instrument_id INTEGER NOT NULL REFERENCES instrument (id),
	instrument_configuration_id INTEGER NOT NULL REFERENCES instrument_configuration (id),
	level TEXT NOT NULL,
	mode TEXT,
	version TEXT NOT NULL,
	file_time TIMESTAMP NOT NULL,
	processed_at TIMESTAMP NOT NULL
)`

const insertInstrument = `INSERT INTO instrument (id, name, short_name, full_name, description)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`

const insertScienceFile = `INSERT INTO science_file (file_key, filename, bucket, instrument_id,
instrument_configuration_id, level, mode, version, file_time, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (file_key) DO UPDATE SET processed_at = EXCLUDED.processed_at`

// SQL is a PostgreSQL tracker
type SQL struct {
	db      *sql.DB
	mission *mission.Mission
}

// OpenSQL connects to the database at dsn
func OpenSQL(dsn string, m *mission.Mission) (*SQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tracker database")
	}
	return NewSQL(db, m), nil
}

// NewSQL returns a tracker using db
func NewSQL(db *sql.DB, m *mission.Mission) *SQL {
	return &SQL{db: db, mission: m}
}

// Close closes the database
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) createConfiguration() string {
	cols := make([]string, 0, len(s.mission.Instruments())+1)
	cols = append(cols, "\tid INTEGER PRIMARY KEY")
	for i := range s.mission.Instruments() {
		cols = append(cols, fmt.Sprintf("\t%s INTEGER REFERENCES instrument (id)", mission.SlotName(i)))
	}
	return "CREATE TABLE IF NOT EXISTS instrument_configuration (\n" + strings.Join(cols, ",\n") + "\n)"
}

func (s *SQL) insertConfiguration() string {
	n := len(s.mission.Instruments())
	cols := make([]string, n+1)
	params := make([]string, n+1)
	cols[0], params[0] = "id", "$1"
	for i := 0; i < n; i++ {
		cols[i+1] = mission.SlotName(i)
		params[i+1] = fmt.Sprintf("$%d", i+2)
	}
	return fmt.Sprintf("INSERT INTO instrument_configuration (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
		strings.Join(cols, ", "), strings.Join(params, ", "))
}

// Setup creates the tables and loads the instruments and configurations
func (s *SQL) Setup(ctx context.Context) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin setup")
	}

	if err := s.setup(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit setup")
	}
	return nil
}

func (s *SQL) setup(ctx context.Context, tx *sql.Tx) error {

	for _, ddl := range []string{createInstrument, s.createConfiguration(), createScienceFile} {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return errors.Wrap(err, "failed to create tracker tables")
		}
	}

	for _, inst := range s.mission.Instruments() {
		_, err := tx.ExecContext(ctx, insertInstrument, inst.ID, inst.Name, inst.ShortName, inst.FullName, inst.Description)
		if err != nil {
			return errors.Wrapf(err, "failed to insert instrument %s", inst.Name)
		}
	}

	q := s.insertConfiguration()
	for _, c := range s.mission.Configurations() {
		args := make([]interface{}, 0, len(c.Slots)+1)
		args = append(args, c.ID)
		for _, slot := range c.Slots {
			if slot == mission.NoInstrument {
				args = append(args, nil)
				continue
			}
			args = append(args, slot)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrapf(err, "failed to insert configuration %d", c.ID)
		}
	}
	return nil
}

// Register inserts a science file row, refreshing processed_at on repeats
func (s *SQL) Register(ctx context.Context, rec FileRecord) error {

	var mode sql.NullString
	if rec.Mode != "" {
		mode = sql.NullString{String: rec.Mode, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, insertScienceFile,
		rec.FileKey, rec.Filename, rec.Bucket, rec.InstrumentID, rec.ConfigurationID,
		rec.Level, mode, rec.Version, rec.FileTime.UTC(), rec.ProcessedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "failed to register science file")
	}
	return nil
}
