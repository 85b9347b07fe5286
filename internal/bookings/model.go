package bookings

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a booking. Bookings start pending and may
// move to confirmed or cancelled; confirmed bookings may complete. completed
// and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a booking may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted
	}
	return false
}

// DefaultServiceType backstops the insert when a submission somehow carries
// an empty service type.
const DefaultServiceType = "1 Wheelchair"

// Booking is a single transport request. Optional fields persist as NULL
// when absent, never as the empty string.
type Booking struct {
	ID              string `json:"id"`
	PatientName     string `json:"patientName"`
	PatientPhone    string `json:"patientPhone"`
	PatientEmail    string `json:"patientEmail"`
	PickupAddress   string `json:"pickupAddress"`
	DropoffAddress  string `json:"dropoffAddress"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	ServiceType     string `json:"serviceType"`

	SpecialNeeds          *string `json:"specialNeeds"`
	Notes                 *string `json:"notes"`
	ServiceTimeWindow     *string `json:"serviceTimeWindow"`
	Weight                *string `json:"weight"`
	AdditionalPassengers  *string `json:"additionalPassengers"`
	PickupDetails         *string `json:"pickupDetails"`
	PickupOtherDetails    *string `json:"pickupOtherDetails"`
	DropoffDetails        *string `json:"dropoffDetails"`
	DropoffOtherDetails   *string `json:"dropoffOtherDetails"`
	DeadMiles             *string `json:"deadMiles"`
	TripDistance          *string `json:"tripDistance"`
	TripType              *string `json:"tripType"`
	ThirdAddress          *string `json:"thirdAddress"`
	LegDistance           *string `json:"legDistance"`
	TotalDistance         *string `json:"totalDistance"`
	WaitTime              *string `json:"waitTime"`
	RushFee               *string `json:"rushFee"`
	RequestedByName       *string `json:"requestedByName"`
	CertificationAccepted *bool   `json:"certificationAccepted"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateBookingRequest is the POST /bookings payload. Optional fields arrive
// as plain strings; empty means "not provided" and is stored as NULL.
type CreateBookingRequest struct {
	PatientName     string `json:"patientName"`
	PatientPhone    string `json:"patientPhone"`
	PatientEmail    string `json:"patientEmail"`
	PickupAddress   string `json:"pickupAddress"`
	DropoffAddress  string `json:"dropoffAddress"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	ServiceType     string `json:"serviceType"`

	SpecialNeeds          string `json:"specialNeeds"`
	Notes                 string `json:"notes"`
	ServiceTimeWindow     string `json:"serviceTimeWindow"`
	Weight                string `json:"weight"`
	AdditionalPassengers  string `json:"additionalPassengers"`
	PickupDetails         string `json:"pickupDetails"`
	PickupOtherDetails    string `json:"pickupOtherDetails"`
	DropoffDetails        string `json:"dropoffDetails"`
	DropoffOtherDetails   string `json:"dropoffOtherDetails"`
	DeadMiles             string `json:"deadMiles"`
	TripDistance          string `json:"tripDistance"`
	TripType              string `json:"tripType"`
	ThirdAddress          string `json:"thirdAddress"`
	LegDistance           string `json:"legDistance"`
	TotalDistance         string `json:"totalDistance"`
	WaitTime              string `json:"waitTime"`
	RushFee               string `json:"rushFee"`
	RequestedByName       string `json:"requestedByName"`
	CertificationAccepted *bool  `json:"certificationAccepted"`
}

// Validate checks that every required field is present. Only presence is
// enforced; phone and email format checks belong to the form, not the API.
func (r *CreateBookingRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"patientName", r.PatientName},
		{"patientPhone", r.PatientPhone},
		{"patientEmail", r.PatientEmail},
		{"pickupAddress", r.PickupAddress},
		{"dropoffAddress", r.DropoffAddress},
		{"appointmentDate", r.AppointmentDate},
		{"appointmentTime", r.AppointmentTime},
		{"serviceType", r.ServiceType},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}

// NewFromRequest builds a pending Booking with a fresh id and NULLed-out
// absent optionals. Timestamps are assigned by the store.
func NewFromRequest(r *CreateBookingRequest) *Booking {
	serviceType := r.ServiceType
	if serviceType == "" {
		serviceType = DefaultServiceType
	}
	return &Booking{
		ID:              uuid.New().String(),
		PatientName:     r.PatientName,
		PatientPhone:    r.PatientPhone,
		PatientEmail:    r.PatientEmail,
		PickupAddress:   r.PickupAddress,
		DropoffAddress:  r.DropoffAddress,
		AppointmentDate: r.AppointmentDate,
		AppointmentTime: r.AppointmentTime,
		ServiceType:     serviceType,

		SpecialNeeds:          nilIfEmpty(r.SpecialNeeds),
		Notes:                 nilIfEmpty(r.Notes),
		ServiceTimeWindow:     nilIfEmpty(r.ServiceTimeWindow),
		Weight:                nilIfEmpty(r.Weight),
		AdditionalPassengers:  nilIfEmpty(r.AdditionalPassengers),
		PickupDetails:         nilIfEmpty(r.PickupDetails),
		PickupOtherDetails:    nilIfEmpty(r.PickupOtherDetails),
		DropoffDetails:        nilIfEmpty(r.DropoffDetails),
		DropoffOtherDetails:   nilIfEmpty(r.DropoffOtherDetails),
		DeadMiles:             nilIfEmpty(r.DeadMiles),
		TripDistance:          nilIfEmpty(r.TripDistance),
		TripType:              nilIfEmpty(r.TripType),
		ThirdAddress:          nilIfEmpty(r.ThirdAddress),
		LegDistance:           nilIfEmpty(r.LegDistance),
		TotalDistance:         nilIfEmpty(r.TotalDistance),
		WaitTime:              nilIfEmpty(r.WaitTime),
		RushFee:               nilIfEmpty(r.RushFee),
		RequestedByName:       nilIfEmpty(r.RequestedByName),
		CertificationAccepted: r.CertificationAccepted,

		Status: StatusPending,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
