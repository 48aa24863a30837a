package tracker

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSQLSchema(t *testing.T) {

	s := NewSQL(nil, testMission(t))

	ddl := s.createConfiguration()
	for _, col := range []string{"id INTEGER PRIMARY KEY", "instrument_1_id INTEGER", "instrument_2_id INTEGER"} {
		if !strings.Contains(ddl, col) {
			t.Errorf("expected %q in %v", col, ddl)
		}
	}
	if strings.Contains(ddl, "instrument_3_id") {
		t.Errorf("unexpected third slot in %v", ddl)
	}

	want := "INSERT INTO instrument_configuration (id, instrument_1_id, instrument_2_id) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING"
	if q := s.insertConfiguration(); q != want {
		t.Errorf("expected %v, got %v", want, q)
	}
}

func TestSQLSetup(t *testing.T) {

	tt := []struct {
		name    string
		failing string
		err     string
	}{
		{name: "happy"},
		{name: "create_fails", failing: "CREATE TABLE IF NOT EXISTS instrument (", err: "failed to create tracker tables"},
		{name: "configuration_fails", failing: "INSERT INTO instrument_configuration", err: "failed to insert configuration 1"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("could not open sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectBegin()
			steps := []struct {
				query string
				args  []interface{}
			}{
				{query: "CREATE TABLE IF NOT EXISTS instrument ("},
				{query: "CREATE TABLE IF NOT EXISTS instrument_configuration ("},
				{query: "CREATE TABLE IF NOT EXISTS science_file ("},
				{query: "INSERT INTO instrument ", args: []interface{}{1, "meddea", "med", "MEDDEA Spectrometer", "MEDDEA Spectrometer (MEDDEA)"}},
				{query: "INSERT INTO instrument ", args: []interface{}{2, "sharp", "shp", "SHARP Imager", "SHARP Imager (SHARP)"}},
				{query: "INSERT INTO instrument_configuration", args: []interface{}{1, 1, nil}},
				{query: "INSERT INTO instrument_configuration", args: []interface{}{2, 2, nil}},
				{query: "INSERT INTO instrument_configuration", args: []interface{}{3, 1, 2}},
			}

			failed := false
			for _, st := range steps {
				e := mock.ExpectExec(regexp.QuoteMeta(st.query))
				if st.args != nil {
					args := make([]driver.Value, len(st.args))
					for i, a := range st.args {
						args[i] = a
					}
					e = e.WithArgs(args...)
				}
				if st.query == tc.failing {
					e.WillReturnError(errors.New("permission denied"))
					failed = true
					break
				}
				e.WillReturnResult(sqlmock.NewResult(0, 1))
			}
			if failed {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			err = NewSQL(db, testMission(t)).Setup(context.Background())
			if err != nil {
				if msg := err.Error(); tc.err == "" || !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
			} else if tc.err != "" {
				t.Errorf("expected error %q, got none", tc.err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestSQLRegister(t *testing.T) {

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("could not open sqlmock: %v", err)
	}
	defer db.Close()

	rec := FileRecord{
		FileKey:         "padre_shp_1s_l1_20230205T000006_v1.0.0.cdf",
		Filename:        "padre_shp_1s_l1_20230205T000006_v1.0.0.cdf",
		Bucket:          "padre-sharp",
		InstrumentID:    2,
		ConfigurationID: 2,
		Level:           "l1",
		Mode:            "1s",
		Version:         "1.0.0",
		FileTime:        time.Date(2023, 2, 5, 0, 0, 6, 0, time.UTC),
		ProcessedAt:     time.Date(2023, 2, 5, 1, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO science_file")).
		WithArgs(rec.FileKey, rec.Filename, rec.Bucket, 2, 2, "l1", "1s", "1.0.0", rec.FileTime, rec.ProcessedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO science_file")).
		WillReturnError(errors.New("connection refused"))

	s := NewSQL(db, testMission(t))
	if err := s.Register(context.Background(), rec); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err = s.Register(context.Background(), rec)
	if err == nil || !strings.Contains(err.Error(), "failed to register science file: connection refused") {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
