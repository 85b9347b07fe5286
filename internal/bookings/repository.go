package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence interface for bookings.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, f ListFilter) ([]*Booking, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error)
	Delete(ctx context.Context, id string) error
}

// ListFilter narrows and orders the booking list. Zero Status means no
// filter; Sort is "asc" or "desc" (default desc, by creation time).
type ListFilter struct {
	Status Status
	Sort   string
}

// querier captures the pgxpool methods the store uses; pgxmock satisfies it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists bookings in the relational database.
type PostgresStore struct {
	db querier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithQuerier allows injecting mocks for tests.
func NewPostgresStoreWithQuerier(q querier) *PostgresStore {
	return &PostgresStore{db: q}
}

const bookingColumns = `id, patient_name, patient_phone, patient_email,
	pickup_address, dropoff_address, appointment_date, appointment_time,
	service_type, special_needs, notes, service_time_window, weight,
	additional_passengers, pickup_details, pickup_other_details,
	dropoff_details, dropoff_other_details, dead_miles, trip_distance,
	trip_type, third_address, leg_distance, total_distance, wait_time,
	rush_fee, requested_by_name, certification_accepted, status,
	created_at, updated_at`

// Create inserts a new row and fills in the store-assigned timestamps.
func (s *PostgresStore) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (
			id, patient_name, patient_phone, patient_email,
			pickup_address, dropoff_address, appointment_date, appointment_time,
			service_type, special_needs, notes, service_time_window, weight,
			additional_passengers, pickup_details, pickup_other_details,
			dropoff_details, dropoff_other_details, dead_miles, trip_distance,
			trip_type, third_address, leg_distance, total_distance, wait_time,
			rush_fee, requested_by_name, certification_accepted, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		b.ID, b.PatientName, b.PatientPhone, b.PatientEmail,
		b.PickupAddress, b.DropoffAddress, b.AppointmentDate, b.AppointmentTime,
		b.ServiceType, b.SpecialNeeds, b.Notes, b.ServiceTimeWindow, b.Weight,
		b.AdditionalPassengers, b.PickupDetails, b.PickupOtherDetails,
		b.DropoffDetails, b.DropoffOtherDetails, b.DeadMiles, b.TripDistance,
		b.TripType, b.ThirdAddress, b.LegDistance, b.TotalDistance, b.WaitTime,
		b.RushFee, b.RequestedByName, b.CertificationAccepted, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one booking.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

// List returns bookings matching the filter, ordered by creation time.
func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*Booking, error) {
	direction := "DESC"
	if f.Sort == "asc" {
		direction = "ASC"
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at ` + direction

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus writes a new status and returns the updated row.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns, id, status)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bookings: update failed: %w", err)
	}
	return b, nil
}

// Delete removes one booking.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bookings: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.PatientName, &b.PatientPhone, &b.PatientEmail,
		&b.PickupAddress, &b.DropoffAddress, &b.AppointmentDate, &b.AppointmentTime,
		&b.ServiceType, &b.SpecialNeeds, &b.Notes, &b.ServiceTimeWindow, &b.Weight,
		&b.AdditionalPassengers, &b.PickupDetails, &b.PickupOtherDetails,
		&b.DropoffDetails, &b.DropoffOtherDetails, &b.DeadMiles, &b.TripDistance,
		&b.TripType, &b.ThirdAddress, &b.LegDistance, &b.TotalDistance, &b.WaitTime,
		&b.RushFee, &b.RequestedByName, &b.CertificationAccepted, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

var _ Store = (*PostgresStore)(nil)
