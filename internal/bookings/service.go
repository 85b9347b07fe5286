package bookings

import (
	"context"
	"fmt"

	"github.com/jcelest/orange-medical-transport/internal/dedupe"
	"github.com/jcelest/orange-medical-transport/internal/notify"
	"github.com/jcelest/orange-medical-transport/internal/observability/metrics"
	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// Dispatcher sends the booking-created notifications. Implementations must
// never fail the booking: the result reports what went out.
type Dispatcher interface {
	BookingCreated(ctx context.Context, b notify.BookingDetails) notify.Result
}

// Service owns the booking lifecycle: intake, listing, status transitions
// and deletion.
type Service struct {
	store    Store
	notifier Dispatcher
	guard    *dedupe.Guard
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewService wires a Service. notifier and guard may be nil.
func NewService(store Store, notifier Dispatcher, guard *dedupe.Guard, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, notifier: notifier, guard: guard, metrics: m, logger: logger}
}

// CreateResult is the outcome of a booking submission.
type CreateResult struct {
	Booking   *Booking
	EmailSent bool
	Duplicate bool
}

// Create validates the request, persists the booking and fans out
// notifications. Notification failures are reported via EmailSent, never as
// an error: once the row is written the submission has succeeded.
func (s *Service) Create(ctx context.Context, req *CreateBookingRequest) (*CreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fingerprint := dedupe.Fingerprint(req.PatientPhone, req.AppointmentDate, req.AppointmentTime)
	if id, seen := s.guard.Seen(ctx, fingerprint); seen {
		s.logger.Info("duplicate submission suppressed", "existing_booking_id", id)
		s.metrics.ObserveDuplicateSuppressed()
		existing, err := s.store.GetByID(ctx, id)
		if err != nil {
			// The original row is gone; fall through and create normally.
			s.logger.Warn("duplicate lookup failed, creating anyway", "error", err)
		} else {
			return &CreateResult{Booking: existing, Duplicate: true}, nil
		}
	}

	b := NewFromRequest(req)
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	s.metrics.ObserveBookingCreated()
	s.guard.Remember(ctx, fingerprint, b.ID)
	s.logger.Info("booking created", "booking_id", b.ID, "date", b.AppointmentDate, "time", b.AppointmentTime)

	result := &CreateResult{Booking: b}
	if s.notifier != nil {
		nr := s.notifier.BookingCreated(ctx, detailsFromBooking(b))
		result.EmailSent = nr.EmailSent
	}
	return result, nil
}

// Get fetches one booking.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.store.GetByID(ctx, id)
}

// List returns bookings matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Booking, error) {
	return s.store.List(ctx, f)
}

// UpdateStatus moves a booking to a new status, enforcing the transition
// graph: pending may confirm or cancel, confirmed may complete.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, status)
	}
	updated, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking status updated", "booking_id", id, "from", current.Status, "to", status)
	return updated, nil
}

// Delete removes one booking.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("booking deleted", "booking_id", id)
	return nil
}

func detailsFromBooking(b *Booking) notify.BookingDetails {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return notify.BookingDetails{
		PatientName:     b.PatientName,
		PatientPhone:    b.PatientPhone,
		PatientEmail:    b.PatientEmail,
		PickupAddress:   b.PickupAddress,
		DropoffAddress:  b.DropoffAddress,
		AppointmentDate: b.AppointmentDate,
		AppointmentTime: b.AppointmentTime,
		ServiceType:     b.ServiceType,

		SpecialNeeds:         deref(b.SpecialNeeds),
		Notes:                deref(b.Notes),
		ServiceTimeWindow:    deref(b.ServiceTimeWindow),
		Weight:               deref(b.Weight),
		AdditionalPassengers: deref(b.AdditionalPassengers),
		PickupDetails:        deref(b.PickupDetails),
		PickupOtherDetails:   deref(b.PickupOtherDetails),
		DropoffDetails:       deref(b.DropoffDetails),
		DropoffOtherDetails:  deref(b.DropoffOtherDetails),
		DeadMiles:            deref(b.DeadMiles),
		TripDistance:         deref(b.TripDistance),
		TripType:             deref(b.TripType),
		ThirdAddress:         deref(b.ThirdAddress),
		LegDistance:          deref(b.LegDistance),
		TotalDistance:        deref(b.TotalDistance),
		WaitTime:             deref(b.WaitTime),
		RushFee:              deref(b.RushFee),
		RequestedByName:      deref(b.RequestedByName),
	}
}
