package storage

import (
	"database/sql"
	"time"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Storage keeps the payment watermark and an archive of published notes in
// a sqlite database.
type Storage struct {
	db *sql.DB
}

// NewStorage opens the database at path and creates the tables if needed.
func NewStorage(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open database %s", path)
	}

	s := Storage{db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return &s, nil
}

func (s *Storage) init() error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS watermark (
		name            TEXT PRIMARY KEY,
		last_payment_id TEXT NOT NULL,
		updated         INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS note (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		published  INTEGER NOT NULL,
		payment_id TEXT NOT NULL,
		content    TEXT NOT NULL
	);`
	if _, err := s.db.Exec(sqlStmt); err != nil {
		return errors.Errorf("could not create tables: %s", err)
	}
	return nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

const paymentWatermark = "payment"

// LastPaymentID returns the stored watermark, or the empty string if none
// was stored yet.
func (s *Storage) LastPaymentID() (string, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT last_payment_id FROM watermark WHERE name = ?`, paymentWatermark,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Errorf("could not read watermark: %s", err)
	}
	return id, nil
}

// SetLastPaymentID stores the watermark.
func (s *Storage) SetLastPaymentID(id string) error {
	const upsert = `
	INSERT INTO watermark (name, last_payment_id, updated) VALUES (?, ?, ?)
	ON CONFLICT(name) DO
		UPDATE SET
			last_payment_id = excluded.last_payment_id,
			updated = excluded.updated
	`
	if _, err := s.db.Exec(upsert, paymentWatermark, id, time.Now().UTC().Unix()); err != nil {
		return errors.Errorf("could not store watermark: %s", err)
	}
	return nil
}

// Note is a published note.
type Note struct {
	DBID      int64
	Published time.Time
	// PaymentID is the id of the payment that triggered the note. It is empty
	// for notes published without a payment.
	PaymentID string
	Content   string
}

// InsertNote archives a published note and returns its database id.
func (s *Storage) InsertNote(note Note) (int64, error) {
	dbtx, err := s.db.Begin()
	if err != nil {
		return 0, errors.WithStack(err)
	}

	stmt, err := dbtx.Prepare(`
		INSERT INTO note (published, payment_id, content) VALUES (?, ?, ?)
	`)
	if err != nil {
		dbtx.Rollback()
		return 0, errors.WithStack(err)
	}

	defer func() {
		if err := stmt.Close(); err != nil {
			log.Printf("error in smt.Close()=%v", err)
		}
	}()

	res, err := stmt.Exec(note.Published.UTC().Unix(), note.PaymentID, note.Content)
	if err != nil {
		dbtx.Rollback()
		return 0, errors.Errorf("could not insert a note into table `note`: %s", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		dbtx.Rollback()
		return 0, errors.WithStack(err)
	}

	if err := dbtx.Commit(); err != nil {
		return 0, errors.WithStack(err)
	}

	return id, nil
}

// Notes returns the most recent archived notes, newest first.
func (s *Storage) Notes(limit int) (res []Note, err error) {
	rows, err := s.db.Query(`
		SELECT id, published, payment_id, content
		FROM note
		ORDER BY published DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error in note query")
	}
	defer rows.Close()

	for rows.Next() {
		var note Note
		var publishedSeconds int64
		if err := rows.Scan(&note.DBID, &publishedSeconds, &note.PaymentID, &note.Content); err != nil {
			return nil, errors.Errorf("error reading row: %s", err)
		}
		note.Published = time.Unix(publishedSeconds, 0).UTC()
		res = append(res, note)
	}
	return res, errors.WithStack(rows.Err())
}
