package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"campus-events/internal/apperr"
	"campus-events/internal/model"
)

const eventColumns = `id, title, description, department, date, venue,
	latitude, longitude, registration_link, status, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.EventRecord, error) {
	var (
		e        model.EventRecord
		lat, lng *float64
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Department, &e.Date, &e.Venue,
		&lat, &lng, &e.RegistrationLink, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	// the table constraint keeps the pair together
	if lat != nil && lng != nil {
		e.Coordinates = &model.Coordinates{Latitude: *lat, Longitude: *lng}
	}
	return e, nil
}

func (s *Store) InsertEvent(ctx context.Context, e *model.EventRecord) error {
	var lat, lng *float64
	if e.Coordinates != nil {
		lat, lng = &e.Coordinates.Latitude, &e.Coordinates.Longitude
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id,title,description,department,date,venue,
		                     latitude,longitude,registration_link,status,created_by,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.Title, e.Description, e.Department, e.Date, e.Venue,
		lat, lng, e.RegistrationLink, e.Status, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	return remote("insert event", err)
}

// ListEvents returns every event in the given status, soonest first.
func (s *Store) ListEvents(ctx context.Context, status model.Status) ([]model.EventRecord, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE status = $1 ORDER BY date ASC, id`, status)
}

// ListEventsForReview returns the events in the given status, newest submission first.
func (s *Store) ListEventsForReview(ctx context.Context, status model.Status) ([]model.EventRecord, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE status = $1 ORDER BY created_at DESC, id`, status)
}

func (s *Store) list(ctx context.Context, q string, args ...any) ([]model.EventRecord, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, remote("list events", err)
	}
	defer rows.Close()

	out := []model.EventRecord{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, remote("list events", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, remote("list events", err)
	}
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*model.EventRecord, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("event %s not found", id)
	}
	if err != nil {
		return nil, remote("get event", err)
	}
	return &e, nil
}

// UpdateEventStatus moves an event from one status to another only if it is
// still in the expected status. A missing row yields a NotFoundError, a row in
// any other status a ConflictError.
func (s *Store) UpdateEventStatus(ctx context.Context, id string, from, to model.Status, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET status=$3, updated_at=$4 WHERE id=$1 AND status=$2`,
		id, from, to, at,
	)
	if err != nil {
		return remote("update event status", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current model.Status
	err = s.pool.QueryRow(ctx, `SELECT status FROM events WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NewNotFound("event %s not found", id)
	}
	if err != nil {
		return remote("update event status", err)
	}
	return apperr.NewConflict("event %s is %s, expected %s", id, current, from)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return remote("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("event %s not found", id)
	}
	return nil
}
