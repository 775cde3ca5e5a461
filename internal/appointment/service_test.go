package appointment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-appointment-scheduling/internal/redis"
)

type fixture struct {
	store  *memStore
	locker *inlineLocker
	pub    *recordingPublisher
	svc    *Service

	ann Doctor
	bob Patient
	eve Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  newMemStore(),
		locker: &inlineLocker{},
		pub:    &recordingPublisher{},
	}
	f.ann = f.store.addDoctor("Ann Smith", "Cardiology", "09:00", "11:00", "15:00")
	f.bob = f.store.addPatient("Bob Jones", "bob@example.com", "555-0100")
	f.eve = f.store.addPatient("Eve Adams", "eve@example.com", "555-0199")

	f.svc = NewService(f.store, f.store, f.store, f.locker, f.pub, zerolog.Nop())
	f.svc.now = func() time.Time { return slotAt("2024-05-01", "08:00") }
	return f
}

func TestBookThenSlotIsTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Book(ctx, BookRequest{DoctorID: f.ann.ID, PatientID: f.bob.ID, Time: slotAt("2024-06-01", "09:00")})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Fatalf("status = %v, want scheduled", appt.Status)
	}

	v, err := f.svc.Validate(ctx, f.ann.ID, mustDate("2024-06-01"), NewTimeOfDay(9, 0))
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if v != SlotUnavailable {
		t.Fatalf("Validate() after booking = %v, want SlotUnavailable", v)
	}

	_, err = f.svc.Book(ctx, BookRequest{DoctorID: f.ann.ID, PatientID: f.eve.ID, Time: slotAt("2024-06-01", "09:00")})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("second Book() err = %v, want ErrSlotUnavailable", err)
	}

	if got := f.pub.types(); !reflect.DeepEqual(got, []events.Type{events.AppointmentBooked}) {
		t.Fatalf("published = %v", got)
	}
	if len(f.store.events) != 1 || f.store.events[0].EventType != string(events.AppointmentBooked) {
		t.Fatalf("event log = %+v", f.store.events)
	}
	if want := redisclient.DoctorDayKey(f.ann.ID, mustDate("2024-06-01")); f.locker.keys[0] != want {
		t.Fatalf("lock key = %q, want %q", f.locker.keys[0], want)
	}
}

func TestBookRejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"missing doctor", BookRequest{PatientID: f.bob.ID, Time: slotAt("2024-06-01", "09:00")}, ErrInvalidAppointment},
		{"past time", BookRequest{DoctorID: f.ann.ID, PatientID: f.bob.ID, Time: slotAt("2024-04-01", "09:00")}, ErrInvalidAppointment},
		{"off template", BookRequest{DoctorID: f.ann.ID, PatientID: f.bob.ID, Time: slotAt("2024-06-01", "10:00")}, ErrSlotUnavailable},
		{"unknown doctor", BookRequest{DoctorID: uuid.New(), PatientID: f.bob.ID, Time: slotAt("2024-06-01", "09:00")}, ErrDoctorNotFound},
		{"unknown patient", BookRequest{DoctorID: f.ann.ID, PatientID: uuid.New(), Time: slotAt("2024-06-01", "09:00")}, ErrPatientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Book() err = %v, want %v", err, tt.want)
			}
		})
	}

	if len(f.store.appointments) != 0 {
		t.Fatalf("store has %d appointments, want 0", len(f.store.appointments))
	}
}

func TestBookLockErrors(t *testing.T) {
	f := newFixture(t)
	req := BookRequest{DoctorID: f.ann.ID, PatientID: f.bob.ID, Time: slotAt("2024-06-01", "09:00")}

	f.locker.err = redisclient.ErrLockNotAcquired
	if _, err := f.svc.Book(context.Background(), req); !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("Book() err = %v, want ErrSlotBusy", err)
	}

	f.locker.err = errors.New("redis: connection refused")
	if _, err := f.svc.Book(context.Background(), req); !errors.Is(err, ErrPersistence) {
		t.Fatalf("Book() err = %v, want ErrPersistence", err)
	}
}

func TestBookPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	_, err := f.svc.Book(context.Background(), BookRequest{DoctorID: f.ann.ID, PatientID: f.bob.ID, Time: slotAt("2024-06-01", "15:00")})
	if err != nil {
		t.Fatalf("Book() error: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)

	got, err := f.svc.Update(ctx, appt.ID, UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-01", "09:30")}, f.bob.ID)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !got.Time.Equal(slotAt("2024-06-01", "09:30")) {
		t.Fatalf("time = %v", got.Time)
	}
	if stored := f.store.appointments[appt.ID]; !stored.Time.Equal(got.Time) {
		t.Fatalf("stored time = %v, want %v", stored.Time, got.Time)
	}
}

func TestUpdateByOtherPatientIsForbidden(t *testing.T) {
	f := newFixture(t)
	appt := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)

	tests := []struct {
		name    string
		req     UpdateRequest
		lockErr error
	}{
		{"valid request", UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-02", "09:00")}, nil},
		{"past time", UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-01-02", "09:00")}, nil},
		{"no doctor", UpdateRequest{Time: slotAt("2024-06-02", "09:00")}, nil},
		{"bad status", UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-02", "09:00"), Status: 7}, nil},
		{"completed status", UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-02", "09:00"), Status: StatusCompleted}, nil},
		{"day locked", UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-02", "09:00")}, redisclient.ErrLockNotAcquired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.locker.err = tt.lockErr
			_, err := f.svc.Update(context.Background(), appt.ID, tt.req, f.eve.ID)
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("Update() err = %v, want ErrForbidden", err)
			}
			if stored := f.store.appointments[appt.ID]; !reflect.DeepEqual(stored, appt) {
				t.Fatalf("appointment changed: %+v", stored)
			}
		})
	}
	if len(f.pub.types()) != 0 {
		t.Fatalf("published %v, want nothing", f.pub.types())
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	for _, req := range []UpdateRequest{
		{DoctorID: f.ann.ID, Time: slotAt("2024-06-02", "09:00")},
		{DoctorID: f.ann.ID, Time: slotAt("2024-01-02", "09:00")},
		{Time: slotAt("2024-06-02", "09:00")},
	} {
		if _, err := f.svc.Update(context.Background(), uuid.New(), req, f.bob.ID); !errors.Is(err, ErrAppointmentNotFound) {
			t.Fatalf("Update(%+v) err = %v, want ErrAppointmentNotFound", req, err)
		}
	}
}

func TestUpdateConflictWindow(t *testing.T) {
	f := newFixture(t)
	mine := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)
	f.store.addAppointment(f.ann.ID, f.eve.ID, slotAt("2024-06-01", "11:00"), StatusScheduled)

	tests := []struct {
		name    string
		clock   string
		wantErr error
	}{
		{"59 minutes before", "10:01", ErrSlotUnavailable},
		{"exact overlap", "11:00", ErrSlotUnavailable},
		{"59 minutes after", "11:59", ErrSlotUnavailable},
		{"one hour before", "10:00", nil},
		{"one hour after", "12:00", nil},
		{"own slot", "09:00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.store.appointments[mine.ID] = mine
			_, err := f.svc.Update(context.Background(), mine.ID, UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-01", tt.clock)}, f.bob.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update(%s) err = %v, want %v", tt.clock, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateRejects(t *testing.T) {
	f := newFixture(t)
	appt := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)
	done := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-03", "09:00"), StatusCompleted)

	tests := []struct {
		name string
		id   uuid.UUID
		req  UpdateRequest
		want error
	}{
		{"missing", uuid.New(), UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-05", "09:00")}, ErrAppointmentNotFound},
		{"unknown doctor", appt.ID, UpdateRequest{DoctorID: uuid.New(), Time: slotAt("2024-06-05", "09:00")}, ErrDoctorNotFound},
		{"past time", appt.ID, UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-01-05", "09:00")}, ErrInvalidAppointment},
		{"bad status", appt.ID, UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-05", "09:00"), Status: 7}, ErrInvalidAppointment},
		{"completed", done.ID, UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-05", "09:00")}, ErrInvalidTransition},
		{"self-completion", appt.ID, UpdateRequest{DoctorID: f.ann.ID, Time: slotAt("2024-06-05", "09:00"), Status: StatusCompleted}, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(context.Background(), tt.id, tt.req, f.bob.ID)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Update() err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)

	if err := f.svc.Cancel(ctx, uuid.New(), f.bob.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Cancel(missing) err = %v, want ErrNotFound", err)
	}
	if err := f.svc.Cancel(ctx, appt.ID, f.eve.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Cancel(other patient) err = %v, want ErrForbidden", err)
	}
	if err := f.svc.Cancel(ctx, appt.ID, f.bob.ID); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if _, ok := f.store.appointments[appt.ID]; ok {
		t.Fatalf("appointment still stored after cancel")
	}

	free, err := f.svc.Availability(ctx, f.ann.ID, mustDate("2024-06-01"))
	if err != nil {
		t.Fatalf("Availability() error: %v", err)
	}
	if len(free) != 3 {
		t.Fatalf("Availability() after cancel = %v, want full template", free)
	}
}

func TestChangeStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)

	if err := f.svc.ChangeStatus(ctx, appt.ID, StatusCompleted); err != nil {
		t.Fatalf("ChangeStatus() error: %v", err)
	}
	if got := f.store.appointments[appt.ID].Status; got != StatusCompleted {
		t.Fatalf("status = %v, want completed", got)
	}

	// repeating is a no-op
	if err := f.svc.ChangeStatus(ctx, appt.ID, StatusCompleted); err != nil {
		t.Fatalf("ChangeStatus() again error: %v", err)
	}
	if err := f.svc.ChangeStatus(ctx, appt.ID, StatusScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ChangeStatus(back) err = %v, want ErrInvalidTransition", err)
	}
	if err := f.svc.ChangeStatus(ctx, uuid.New(), StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ChangeStatus(missing) err = %v, want ErrNotFound", err)
	}

	if got := f.pub.types(); !reflect.DeepEqual(got, []events.Type{events.AppointmentCompleted}) {
		t.Fatalf("published = %v", got)
	}
}

func TestQueryForDoctorOnDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.addAppointment(f.ann.ID, f.bob.ID, slotAt("2024-06-01", "15:00"), StatusScheduled)
	f.store.addAppointment(f.ann.ID, f.eve.ID, slotAt("2024-06-01", "09:00"), StatusScheduled)
	f.store.addAppointment(f.ann.ID, f.eve.ID, slotAt("2024-06-02", "09:00"), StatusScheduled)

	views, err := f.svc.QueryForDoctorOnDate(ctx, f.ann.ID, mustDate("2024-06-01"), "")
	if err != nil {
		t.Fatalf("QueryForDoctorOnDate() error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}
	first := views[0]
	if first.PatientName != "Eve Adams" || first.DoctorName != "Ann Smith" {
		t.Fatalf("first view = %+v", first)
	}
	if first.TimeOnly != NewTimeOfDay(9, 0) || !first.Date.Equal(mustDate("2024-06-01")) || !first.EndTime.Equal(slotAt("2024-06-01", "10:00")) {
		t.Fatalf("derived fields = %v %v %v", first.Date, first.TimeOnly, first.EndTime)
	}

	views, err = f.svc.QueryForDoctorOnDate(ctx, f.ann.ID, mustDate("2024-06-01"), "JONES")
	if err != nil {
		t.Fatalf("QueryForDoctorOnDate() error: %v", err)
	}
	if len(views) != 1 || views[0].PatientID != f.bob.ID {
		t.Fatalf("filtered views = %+v", views)
	}

	if _, err := f.svc.QueryForDoctorOnDate(ctx, uuid.New(), mustDate("2024-06-01"), ""); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("unknown doctor err = %v, want ErrDoctorNotFound", err)
	}
}
