package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a recorded generation round.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusClosed    Status = "closed"
)

// Generation is one recorded round trip.
type Generation struct {
	ID         uuid.UUID  `json:"id"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	ResultURL  string     `json:"result_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// GenerationRepository records generation rounds.
type GenerationRepository struct {
	db *sql.DB
}

// Generations returns the generation repository for this store.
func (s *Store) Generations() *GenerationRepository {
	return &GenerationRepository{db: s.db}
}

// Create records a new pending round together with the snapshot that was
// sent for it.
func (r *GenerationRepository) Create(id uuid.UUID, snapshot []byte, at time.Time) (*Generation, error) {
	g := &Generation{ID: id, Status: StatusPending, CreatedAt: at}
	_, err := r.db.Exec(
		`INSERT INTO generations (id, status, snapshot, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), string(g.Status), snapshot, at,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting generation %s: %w", id, err)
	}
	return g, nil
}

// Finish moves a round to a terminal status.
func (r *GenerationRepository) Finish(id uuid.UUID, status Status, resultURL, errMsg string, at time.Time) error {
	res, err := r.db.Exec(
		`UPDATE generations SET status = ?, result_url = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), resultURL, errMsg, at, id.String(),
	)
	if err != nil {
		return fmt.Errorf("updating generation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close marks a succeeded round as dismissed. The result URL is kept.
func (r *GenerationRepository) Close(id uuid.UUID, at time.Time) error {
	res, err := r.db.Exec(
		`UPDATE generations SET status = ?, finished_at = ? WHERE id = ?`,
		string(StatusClosed), at, id.String(),
	)
	if err != nil {
		return fmt.Errorf("closing generation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const generationColumns = `id, status, error, result_url, created_at, finished_at`

func scanGeneration(row interface{ Scan(...any) error }) (*Generation, error) {
	g := &Generation{}
	var id, status string
	var finished sql.NullTime
	if err := row.Scan(&id, &status, &g.Error, &g.ResultURL, &g.CreatedAt, &finished); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing generation id %q: %w", id, err)
	}
	g.ID = parsed
	g.Status = Status(status)
	if finished.Valid {
		t := finished.Time
		g.FinishedAt = &t
	}
	return g, nil
}

// GetByID retrieves a round by its id.
func (r *GenerationRepository) GetByID(id uuid.UUID) (*Generation, error) {
	g, err := scanGeneration(r.db.QueryRow(
		`SELECT `+generationColumns+` FROM generations WHERE id = ?`, id.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// Snapshot returns the PNG snapshot sent for a round.
func (r *GenerationRepository) Snapshot(id uuid.UUID) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT snapshot FROM generations WHERE id = ?`, id.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// List returns the most recent rounds first. A limit <= 0 returns all.
func (r *GenerationRepository) List(limit int) ([]*Generation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT `+generationColumns+` FROM generations ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gens := []*Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

// Export is an image written from the result overlay.
type Export struct {
	ID           int64      `json:"id"`
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
	View         string     `json:"view"`
	Path         string     `json:"path"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AddExport records a written export. generationID may be uuid.Nil.
func (r *GenerationRepository) AddExport(generationID uuid.UUID, view, path string, at time.Time) (*Export, error) {
	var gen any
	if generationID != uuid.Nil {
		gen = generationID.String()
	}
	res, err := r.db.Exec(
		`INSERT INTO exports (generation_id, view, path, created_at) VALUES (?, ?, ?, ?)`,
		gen, view, path, at,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting export: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	e := &Export{ID: id, View: view, Path: path, CreatedAt: at}
	if generationID != uuid.Nil {
		g := generationID
		e.GenerationID = &g
	}
	return e, nil
}

// Exports lists exports, most recent first.
func (r *GenerationRepository) Exports() ([]*Export, error) {
	rows, err := r.db.Query(
		`SELECT id, generation_id, view, path, created_at FROM exports ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exports := []*Export{}
	for rows.Next() {
		e := &Export{}
		var gen sql.NullString
		if err := rows.Scan(&e.ID, &gen, &e.View, &e.Path, &e.CreatedAt); err != nil {
			return nil, err
		}
		if gen.Valid {
			id, err := uuid.Parse(gen.String)
			if err != nil {
				return nil, fmt.Errorf("parsing generation id %q: %w", gen.String, err)
			}
			e.GenerationID = &id
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
