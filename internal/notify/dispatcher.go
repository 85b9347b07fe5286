package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jcelest/orange-medical-transport/internal/observability/metrics"
	"github.com/jcelest/orange-medical-transport/pkg/logging"
)

// BookingDetails carries the fields the notification templates render.
// Optional fields are empty strings when not provided.
type BookingDetails struct {
	PatientName     string
	PatientPhone    string
	PatientEmail    string
	PickupAddress   string
	DropoffAddress  string
	AppointmentDate string
	AppointmentTime string
	ServiceType     string

	SpecialNeeds         string
	Notes                string
	ServiceTimeWindow    string
	Weight               string
	AdditionalPassengers string
	PickupDetails        string
	PickupOtherDetails   string
	DropoffDetails       string
	DropoffOtherDetails  string
	DeadMiles            string
	TripDistance         string
	TripType             string
	ThirdAddress         string
	LegDistance          string
	TotalDistance        string
	WaitTime             string
	RushFee              string
	RequestedByName      string
}

// serviceTypeLabels maps form values to display labels. Values already in
// display form map to themselves.
var serviceTypeLabels = map[string]string{
	"ambulatory":    "Ambulatory",
	"wheelchair":    "Wheelchair",
	"stretcher":     "Stretcher",
	"1 Wheelchair":  "1 Wheelchair",
	"2 Wheelchairs": "2 Wheelchairs",
	"Ambulatory":    "Ambulatory",
	"Stretcher":     "Stretcher",
}

func serviceLabel(s string) string {
	if label, ok := serviceTypeLabels[s]; ok {
		return label
	}
	return s
}

// Channel outcomes. A skip (missing configuration) and a failure (attempted
// but errored) are both non-fatal; the distinction matters only for logs and
// metrics.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Channel names used in logs and metrics.
const (
	ChannelStaffEmail   = "staff_email"
	ChannelStaffSMS     = "staff_sms"
	ChannelPatientEmail = "patient_email"
)

// Result summarizes one fan-out. EmailSent mirrors the client-visible flag:
// at least one email (staff or patient confirmation) went out.
type Result struct {
	EmailSent bool
	SMSSent   bool
}

// Dispatcher fans a new booking out to the staff email, the staff SMS and
// the patient confirmation email. The three attempts run concurrently and
// independently; the dispatcher waits for all of them to settle and never
// returns an error, because booking durability must not depend on mail or
// SMS availability.
type Dispatcher struct {
	email        EmailSender
	sms          SMSSender
	staffEmail   string
	staffPhone   string
	contactPhone string
	timeout      time.Duration
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
}

// DispatcherConfig wires a Dispatcher. Email and SMS may be nil; the
// corresponding channels are then skipped.
type DispatcherConfig struct {
	Email          EmailSender
	SMS            SMSSender
	StaffEmail     string
	StaffPhone     string
	ContactPhone   string // phone rendered in message bodies
	ChannelTimeout time.Duration
	Metrics        *metrics.BookingMetrics
	Logger         *logging.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = 10 * time.Second
	}
	if cfg.ContactPhone == "" {
		cfg.ContactPhone = "407-429-1209"
	}
	return &Dispatcher{
		email:        cfg.Email,
		sms:          cfg.SMS,
		staffEmail:   cfg.StaffEmail,
		staffPhone:   cfg.StaffPhone,
		contactPhone: cfg.ContactPhone,
		timeout:      cfg.ChannelTimeout,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// BookingCreated attempts the three notifications concurrently and waits for
// all outcomes. One slow or failing channel cannot suppress the others.
func (d *Dispatcher) BookingCreated(ctx context.Context, b BookingDetails) Result {
	outcomes := make([]string, 3)

	var wg sync.WaitGroup
	run := func(idx int, channel string, attempt func(context.Context) (string, error)) {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		outcome, err := attempt(cctx)
		outcomes[idx] = outcome
		switch outcome {
		case OutcomeSkipped:
			d.logger.Info("notification skipped", "channel", channel)
		case OutcomeFailed:
			d.logger.Error("notification failed", "channel", channel, "error", err)
		default:
			d.logger.Info("notification sent", "channel", channel)
		}
		d.metrics.ObserveNotification(channel, outcome)
	}

	wg.Add(3)
	go run(0, ChannelStaffEmail, func(ctx context.Context) (string, error) {
		return d.sendStaffEmail(ctx, b)
	})
	go run(1, ChannelStaffSMS, func(ctx context.Context) (string, error) {
		return d.sendStaffSMS(ctx, b)
	})
	go run(2, ChannelPatientEmail, func(ctx context.Context) (string, error) {
		return d.sendPatientConfirmation(ctx, b)
	})
	wg.Wait()

	return Result{
		EmailSent: outcomes[0] == OutcomeSent || outcomes[2] == OutcomeSent,
		SMSSent:   outcomes[1] == OutcomeSent,
	}
}

func (d *Dispatcher) sendStaffEmail(ctx context.Context, b BookingDetails) (string, error) {
	if d.email == nil || d.staffEmail == "" {
		return OutcomeSkipped, nil
	}
	msg := EmailMessage{
		To:      d.staffEmail,
		Subject: fmt.Sprintf("New Booking: %s - %s %s", b.PatientName, b.AppointmentDate, b.AppointmentTime),
		HTML:    staffEmailHTML(b),
	}
	if err := d.email.Send(ctx, msg); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSent, nil
}

func (d *Dispatcher) sendStaffSMS(ctx context.Context, b BookingDetails) (string, error) {
	if d.sms == nil || d.staffPhone == "" {
		return OutcomeSkipped, nil
	}
	if err := d.sms.SendSMS(ctx, d.staffPhone, d.smsBody(b)); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSent, nil
}

func (d *Dispatcher) sendPatientConfirmation(ctx context.Context, b BookingDetails) (string, error) {
	if d.email == nil {
		return OutcomeSkipped, nil
	}
	msg := EmailMessage{
		To:      b.PatientEmail,
		ToName:  b.PatientName,
		Subject: fmt.Sprintf("Booking Confirmation - %s %s", b.AppointmentDate, b.AppointmentTime),
		HTML:    d.patientEmailHTML(b),
	}
	if err := d.email.Send(ctx, msg); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSent, nil
}

func (d *Dispatcher) smsBody(b BookingDetails) string {
	return fmt.Sprintf("New booking: %s - %s at %s. Pickup: %s. Call %s for details.",
		b.PatientName, b.AppointmentDate, b.AppointmentTime, b.PickupAddress, d.contactPhone)
}

// staffEmailHTML renders the internal summary with every optional detail the
// caller provided.
func staffEmailHTML(b BookingDetails) string {
	extra := optionalLines([]optionalField{
		{"Service time", b.ServiceTimeWindow},
		{"Weight", suffixIfSet(b.Weight, " lbs")},
		{"Additional passengers", b.AdditionalPassengers},
		{"Pickup details", b.PickupDetails},
		{"Pickup other", b.PickupOtherDetails},
		{"Dropoff details", b.DropoffDetails},
		{"Dropoff other", b.DropoffOtherDetails},
		{"Dead miles", b.DeadMiles},
		{"Trip distance", b.TripDistance},
		{"Trip type", b.TripType},
		{"3rd address", b.ThirdAddress},
		{"Leg distance", b.LegDistance},
		{"Total distance", b.TotalDistance},
		{"Wait time", b.WaitTime},
		{"Rush fee", b.RushFee},
		{"Requested by", b.RequestedByName},
		{"Special needs", b.SpecialNeeds},
		{"Notes", b.Notes},
	})

	var sb strings.Builder
	sb.WriteString("<h2>New Medical Transport Booking</h2>")
	sb.WriteString(fmt.Sprintf("<p><strong>Patient Name:</strong> %s</p>", b.PatientName))
	sb.WriteString(fmt.Sprintf("<p><strong>Phone:</strong> %s</p>", b.PatientPhone))
	sb.WriteString(fmt.Sprintf("<p><strong>Email:</strong> %s</p>", b.PatientEmail))
	sb.WriteString(fmt.Sprintf("<p><strong>Pickup:</strong> %s</p>", b.PickupAddress))
	sb.WriteString(fmt.Sprintf("<p><strong>Dropoff:</strong> %s</p>", b.DropoffAddress))
	sb.WriteString(fmt.Sprintf("<p><strong>Date:</strong> %s</p>", b.AppointmentDate))
	sb.WriteString(fmt.Sprintf("<p><strong>Time:</strong> %s</p>", b.AppointmentTime))
	sb.WriteString(fmt.Sprintf("<p><strong>Service Type:</strong> %s</p>", serviceLabel(b.ServiceType)))
	if len(extra) > 0 {
		sb.WriteString("<p><strong>Additional details:</strong><br/>")
		sb.WriteString(strings.Join(extra, "<br/>"))
		sb.WriteString("</p>")
	}
	return sb.String()
}

// patientEmailHTML renders the confirmation the patient receives.
func (d *Dispatcher) patientEmailHTML(b BookingDetails) string {
	extra := optionalLines([]optionalField{
		{"Service time", b.ServiceTimeWindow},
		{"Weight", suffixIfSet(b.Weight, " lbs")},
		{"Trip type", b.TripType},
		{"Requested by", b.RequestedByName},
	})

	var sb strings.Builder
	sb.WriteString("<h2>Your Booking Confirmation - Orange Medical Transport</h2>")
	sb.WriteString(fmt.Sprintf("<p>Dear %s,</p>", b.PatientName))
	sb.WriteString("<p>We have received your transportation request. Here are the details:</p>")
	sb.WriteString("<ul>")
	sb.WriteString(fmt.Sprintf("<li><strong>Date:</strong> %s</li>", b.AppointmentDate))
	sb.WriteString(fmt.Sprintf("<li><strong>Time:</strong> %s</li>", b.AppointmentTime))
	sb.WriteString(fmt.Sprintf("<li><strong>Service:</strong> %s</li>", serviceLabel(b.ServiceType)))
	sb.WriteString(fmt.Sprintf("<li><strong>Pickup:</strong> %s</li>", b.PickupAddress))
	sb.WriteString(fmt.Sprintf("<li><strong>Dropoff:</strong> %s</li>", b.DropoffAddress))
	for _, line := range extra {
		sb.WriteString("<li>" + line + "</li>")
	}
	sb.WriteString("</ul>")
	sb.WriteString(fmt.Sprintf("<p>We will contact you shortly to confirm. If you have questions, call us at <strong>%s</strong>.</p>", d.contactPhone))
	sb.WriteString("<p>Thank you for choosing Orange Medical Transport!</p>")
	return sb.String()
}

type optionalField struct {
	label string
	value string
}

func optionalLines(fields []optionalField) []string {
	var out []string
	for _, f := range fields {
		if f.value != "" {
			out = append(out, fmt.Sprintf("<strong>%s:</strong> %s", f.label, f.value))
		}
	}
	return out
}

func suffixIfSet(v, suffix string) string {
	if v == "" {
		return ""
	}
	return v + suffix
}
