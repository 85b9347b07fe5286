package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcelest/orange-medical-transport/internal/dedupe"
	"github.com/jcelest/orange-medical-transport/internal/notify"
)

// fakeDispatcher records the fan-out calls and returns a canned result.
type fakeDispatcher struct {
	result notify.Result
	calls  []notify.BookingDetails
}

func (f *fakeDispatcher) BookingCreated(_ context.Context, b notify.BookingDetails) notify.Result {
	f.calls = append(f.calls, b)
	return f.result
}

func newTestService(dispatcher Dispatcher) (*Service, *InMemoryStore) {
	store := NewInMemoryStore()
	return NewService(store, dispatcher, nil, nil, nil), store
}

func TestCreatePersistsBeforeNotifying(t *testing.T) {
	fd := &fakeDispatcher{result: notify.Result{EmailSent: true, SMSSent: true}}
	svc, store := newTestService(fd)

	result, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Booking.Status)
	assert.True(t, result.EmailSent)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, store.Len())

	require.Len(t, fd.calls, 1)
	assert.Equal(t, "Jane Doe", fd.calls[0].PatientName)
	assert.Equal(t, "2026-09-15", fd.calls[0].AppointmentDate)
}

func TestCreateNotificationFailureDoesNotFailBooking(t *testing.T) {
	fd := &fakeDispatcher{result: notify.Result{}} // nothing delivered
	svc, store := newTestService(fd)

	result, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.Equal(t, 1, store.Len())
}

func TestCreateRejectsIncompleteRequest(t *testing.T) {
	fd := &fakeDispatcher{}
	svc, store := newTestService(fd)

	req := validRequest()
	req.PatientPhone = ""
	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, fd.calls)
}

func TestCreateWithoutDispatcher(t *testing.T) {
	svc, _ := newTestService(nil)
	result, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
}

func TestCreateMapsOptionalFieldsToDetails(t *testing.T) {
	fd := &fakeDispatcher{}
	svc, _ := newTestService(fd)

	req := validRequest()
	req.Weight = "180"
	req.TripType = "round-trip"
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, fd.calls, 1)
	assert.Equal(t, "180", fd.calls[0].Weight)
	assert.Equal(t, "round-trip", fd.calls[0].TripType)
	assert.Empty(t, fd.calls[0].Notes)
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	svc, _ := newTestService(nil)
	result, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	id := result.Booking.ID

	// pending -> completed skips confirmation.
	_, err = svc.UpdateStatus(context.Background(), id, StatusCompleted)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	updated, err := svc.UpdateStatus(context.Background(), id, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	updated, err = svc.UpdateStatus(context.Background(), id, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)

	// completed is terminal.
	_, err = svc.UpdateStatus(context.Background(), id, StatusCancelled)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	svc, _ := newTestService(nil)
	result, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), result.Booking.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusMissingBooking(t *testing.T) {
	svc, _ := newTestService(nil)
	_, err := svc.UpdateStatus(context.Background(), "nope", StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, store := newTestService(nil)
	result, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), result.Booking.ID))
	assert.Equal(t, 0, store.Len())

	assert.ErrorIs(t, svc.Delete(context.Background(), result.Booking.ID), ErrNotFound)
}

func TestCreateSuppressesDuplicateInsideWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	guard := dedupe.NewGuard(client, time.Minute, nil)

	fd := &fakeDispatcher{result: notify.Result{EmailSent: true}}
	store := NewInMemoryStore()
	svc := NewService(store, fd, guard, nil, nil)

	first, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	// Only the first submission was stored and notified.
	assert.Equal(t, 1, store.Len())
	assert.Len(t, fd.calls, 1)

	// A different appointment slot is not a duplicate.
	req := validRequest()
	req.AppointmentTime = "15:00"
	third, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Duplicate)
	assert.Equal(t, 2, store.Len())
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _ := newTestService(nil)

	first, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), first.Booking.ID, StatusConfirmed)
	require.NoError(t, err)

	confirmed, err := svc.List(context.Background(), ListFilter{Status: StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.Booking.ID, confirmed[0].ID)

	pending, err := svc.List(context.Background(), ListFilter{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.Booking.ID, pending[0].ID)

	all, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
