package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSMSSender captures SMS sends for assertions.
type recordingSMSSender struct {
	mu   sync.Mutex
	sent []string // "to|body"
	err  error
}

func (r *recordingSMSSender) SendSMS(_ context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, to+"|"+body)
	return nil
}

func (r *recordingSMSSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func testDetails() BookingDetails {
	return BookingDetails{
		PatientName:     "Jane Doe",
		PatientPhone:    "4075551234",
		PatientEmail:    "jane@example.com",
		PickupAddress:   "100 Main St",
		DropoffAddress:  "200 Clinic Rd",
		AppointmentDate: "2026-09-15",
		AppointmentTime: "10:30",
		ServiceType:     "wheelchair",
	}
}

func newTestDispatcher(email EmailSender, sms SMSSender) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Email:          email,
		SMS:            sms,
		StaffEmail:     "dispatch@example.com",
		StaffPhone:     "4070000000",
		ChannelTimeout: time.Second,
	})
}

func TestBookingCreatedAllChannels(t *testing.T) {
	email := &recordingEmailSender{}
	sms := &recordingSMSSender{}
	d := newTestDispatcher(email, sms)

	result := d.BookingCreated(context.Background(), testDetails())
	assert.True(t, result.EmailSent)
	assert.True(t, result.SMSSent)

	sent := email.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, 1, sms.count())

	recipients := map[string]EmailMessage{}
	for _, m := range sent {
		recipients[m.To] = m
	}
	staff, ok := recipients["dispatch@example.com"]
	require.True(t, ok, "staff email missing")
	assert.Contains(t, staff.Subject, "Jane Doe")
	assert.Contains(t, staff.HTML, "100 Main St")
	assert.Contains(t, staff.HTML, "Wheelchair")

	patient, ok := recipients["jane@example.com"]
	require.True(t, ok, "patient confirmation missing")
	assert.Contains(t, patient.Subject, "2026-09-15")
	assert.Contains(t, patient.HTML, "Jane Doe")
	assert.Contains(t, patient.HTML, "407-429-1209")
}

func TestBookingCreatedNoEmailTransport(t *testing.T) {
	sms := &recordingSMSSender{}
	d := newTestDispatcher(nil, sms)

	result := d.BookingCreated(context.Background(), testDetails())
	assert.False(t, result.EmailSent)
	assert.True(t, result.SMSSent)
	assert.Equal(t, 1, sms.count())
}

func TestBookingCreatedSMSFailureDoesNotAffectEmail(t *testing.T) {
	email := &recordingEmailSender{}
	sms := &recordingSMSSender{err: errors.New("twilio down")}
	d := newTestDispatcher(email, sms)

	result := d.BookingCreated(context.Background(), testDetails())
	assert.True(t, result.EmailSent)
	assert.False(t, result.SMSSent)
	assert.Len(t, email.messages(), 2)
}

func TestBookingCreatedStaffEmailFailureStillCountsPatientEmail(t *testing.T) {
	// Sender that fails only for the staff recipient.
	email := &selectiveEmailSender{failTo: "dispatch@example.com"}
	d := newTestDispatcher(email, nil)

	result := d.BookingCreated(context.Background(), testDetails())
	assert.True(t, result.EmailSent)
}

func TestBookingCreatedNoStaffRecipients(t *testing.T) {
	email := &recordingEmailSender{}
	d := NewDispatcher(DispatcherConfig{
		Email:          email,
		ChannelTimeout: time.Second,
	})

	result := d.BookingCreated(context.Background(), testDetails())
	// Staff email and SMS skipped; only the patient confirmation goes out.
	assert.True(t, result.EmailSent)
	assert.False(t, result.SMSSent)
	sent := email.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].To)
}

func TestStaffEmailIncludesOptionalDetails(t *testing.T) {
	b := testDetails()
	b.Weight = "180"
	b.Notes = "call before arrival"
	b.TripType = "round-trip"

	html := staffEmailHTML(b)
	assert.Contains(t, html, "Additional details")
	assert.Contains(t, html, "180 lbs")
	assert.Contains(t, html, "call before arrival")
	assert.Contains(t, html, "round-trip")
}

func TestStaffEmailOmitsAbsentOptionals(t *testing.T) {
	html := staffEmailHTML(testDetails())
	assert.NotContains(t, html, "Additional details")
	assert.NotContains(t, html, "lbs")
}

func TestSMSBody(t *testing.T) {
	d := newTestDispatcher(nil, nil)
	body := d.smsBody(testDetails())
	assert.Equal(t, "New booking: Jane Doe - 2026-09-15 at 10:30. Pickup: 100 Main St. Call 407-429-1209 for details.", body)
}

func TestServiceLabel(t *testing.T) {
	assert.Equal(t, "Wheelchair", serviceLabel("wheelchair"))
	assert.Equal(t, "Ambulatory", serviceLabel("ambulatory"))
	assert.Equal(t, "Stretcher", serviceLabel("stretcher"))
	assert.Equal(t, "1 Wheelchair", serviceLabel("1 Wheelchair"))
	assert.Equal(t, "custom", serviceLabel("custom"))
}

// selectiveEmailSender fails sends to a single recipient.
type selectiveEmailSender struct {
	mu     sync.Mutex
	failTo string
	sent   []EmailMessage
}

func (s *selectiveEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.To == s.failTo {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}
