package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"meetix.org/internal/events"
)

var _ events.Store = (*EventStore)(nil)

type EventStore struct {
	db *sql.DB
}

const eventColumns = `id, event_type, title, description, start_at, end_at, location, img_url, event_url,
	remote, max_attendees, paid, price_cents, organizer_id, generate_certificate, created_at, updated_at`

func (s *EventStore) Create(ctx context.Context, e *events.Event) error {
	_, err := s.db.ExecContext(ctx, `
		insert into event(`+eventColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, e.ID, string(e.Type), e.Title, nullIfEmpty(e.Description), e.Start, e.End, nullIfEmpty(e.Location),
		e.ImgURL, nullIfEmpty(e.EventURL), e.Remote, nullInt(e.MaxAttendees), e.Paid, e.PriceCents,
		e.OrganizerID, e.GenerateCertificate, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *EventStore) Find(ctx context.Context, id string) (events.Event, error) {
	if !validID(id) {
		return events.Event{}, events.ErrEventNotFound
	}
	e, err := scanEvent(s.db.QueryRowContext(ctx, `select `+eventColumns+` from event where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return events.Event{}, events.ErrEventNotFound
	}
	return e, err
}

func (s *EventStore) List(ctx context.Context) ([]events.Event, error) {
	return s.query(ctx, `select `+eventColumns+` from event order by start_at, id`)
}

func (s *EventStore) ListByOrganizer(ctx context.Context, organizerID string) ([]events.Event, error) {
	if !validID(organizerID) {
		return nil, nil
	}
	return s.query(ctx, `select `+eventColumns+` from event where organizer_id = $1 order by start_at, id`, organizerID)
}

func (s *EventStore) ListStartingAfter(ctx context.Context, t time.Time) ([]events.Event, error) {
	return s.query(ctx, `select `+eventColumns+` from event where start_at > $1 order by start_at, id`, t)
}

func (s *EventStore) Update(ctx context.Context, e *events.Event) error {
	if !validID(e.ID) {
		return events.ErrEventNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		update event set
			event_type = $2, title = $3, description = $4, start_at = $5, end_at = $6, location = $7,
			img_url = $8, event_url = $9, remote = $10, max_attendees = $11, paid = $12, price_cents = $13,
			generate_certificate = $14, updated_at = $15
		where id = $1
	`, e.ID, string(e.Type), e.Title, nullIfEmpty(e.Description), e.Start, e.End, nullIfEmpty(e.Location),
		e.ImgURL, nullIfEmpty(e.EventURL), e.Remote, nullInt(e.MaxAttendees), e.Paid, e.PriceCents,
		e.GenerateCertificate, e.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOneRow(res, events.ErrEventNotFound)
}

// Delete removes the event; grants and coupons go with it through the foreign keys.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return events.ErrEventNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from event where id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, events.ErrEventNotFound)
}

func (s *EventStore) query(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []events.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (events.Event, error) {
	var (
		e                               events.Event
		eventType                       string
		description, location, eventURL sql.NullString
		maxAttendees                    sql.NullInt64
	)
	err := row.Scan(&e.ID, &eventType, &e.Title, &description, &e.Start, &e.End, &location, &e.ImgURL, &eventURL,
		&e.Remote, &maxAttendees, &e.Paid, &e.PriceCents, &e.OrganizerID, &e.GenerateCertificate,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return events.Event{}, err
	}
	e.Type = events.Type(eventType)
	e.Description = description.String
	e.Location = location.String
	e.EventURL = eventURL.String
	if maxAttendees.Valid {
		n := int(maxAttendees.Int64)
		e.MaxAttendees = &n
	}
	return e, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
