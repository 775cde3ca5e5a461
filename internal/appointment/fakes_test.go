package appointment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-appointment-scheduling/internal/redis"
)

// memStore is a map-backed implementation of all three repositories.
type memStore struct {
	mu           sync.Mutex
	doctors      map[uuid.UUID]Doctor
	patients     map[uuid.UUID]Patient
	appointments map[uuid.UUID]Appointment
	events       []EventLog

	failWith error // returned by every call when set
}

func newMemStore() *memStore {
	return &memStore{
		doctors:      make(map[uuid.UUID]Doctor),
		patients:     make(map[uuid.UUID]Patient),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

func (m *memStore) addDoctor(name, specialty string, times ...string) Doctor {
	parsed, err := ParseTimesOfDay(times)
	if err != nil {
		panic(err)
	}
	d := Doctor{
		ID:             uuid.New(),
		Name:           name,
		Email:          strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@clinic.test",
		Specialty:      specialty,
		AvailableTimes: parsed,
	}
	m.doctors[d.ID] = d
	return d
}

func (m *memStore) addPatient(name, email, phone string) Patient {
	p := Patient{ID: uuid.New(), Name: name, Email: email, Phone: phone}
	m.patients[p.ID] = p
	return p
}

func (m *memStore) addAppointment(doctorID, patientID uuid.UUID, at time.Time, status Status) Appointment {
	a := Appointment{ID: uuid.New(), DoctorID: doctorID, PatientID: patientID, Time: at, Status: status}
	m.appointments[a.ID] = a
	return a
}

func sortedDoctors(in map[uuid.UUID]Doctor, keep func(Doctor) bool) []Doctor {
	var out []Doctor
	for _, d := range in {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memStore) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

func (m *memStore) GetDoctorByEmail(_ context.Context, email string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if strings.EqualFold(d.Email, email) {
			return &d, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *memStore) ListDoctors(context.Context) ([]Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedDoctors(m.doctors, func(Doctor) bool { return true }), nil
}

func (m *memStore) FindDoctorsByName(_ context.Context, name string) ([]Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedDoctors(m.doctors, func(d Doctor) bool { return containsFold(d.Name, name) }), nil
}

func (m *memStore) FindDoctorsBySpecialty(_ context.Context, specialty string) ([]Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedDoctors(m.doctors, func(d Doctor) bool { return strings.EqualFold(d.Specialty, specialty) }), nil
}

func (m *memStore) CreateDoctor(_ context.Context, d *Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.doctors {
		if strings.EqualFold(other.Email, d.Email) {
			return ErrDuplicate
		}
	}
	m.doctors[d.ID] = *d
	return nil
}

func (m *memStore) UpdateDoctor(_ context.Context, d *Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[d.ID]; !ok {
		return ErrDoctorNotFound
	}
	m.doctors[d.ID] = *d
	return nil
}

func (m *memStore) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	for aid, a := range m.appointments {
		if a.DoctorID == id {
			delete(m.appointments, aid)
		}
	}
	delete(m.doctors, id)
	return nil
}

func (m *memStore) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *memStore) GetPatientByEmail(_ context.Context, email string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *memStore) FindPatientByEmailOrPhone(_ context.Context, email, phone string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if strings.EqualFold(p.Email, email) || p.Phone == phone {
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *memStore) CreatePatient(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = *p
	return nil
}

func (m *memStore) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memStore) ListAppointmentsByDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && !a.Time.Before(from) && a.Time.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (m *memStore) CreateAppointment(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.appointments {
		if other.DoctorID == a.DoctorID && other.Time.Equal(a.Time) {
			return ErrDuplicate
		}
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *memStore) UpdateAppointment(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return ErrAppointmentNotFound
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *memStore) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	m.appointments[id] = a
	return nil
}

func (m *memStore) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *memStore) details(keep func(Appointment) bool) []AppointmentDetail {
	var out []AppointmentDetail
	for _, a := range m.appointments {
		if !keep(a) {
			continue
		}
		d := m.doctors[a.DoctorID]
		p := m.patients[a.PatientID]
		out = append(out, AppointmentDetail{
			Appointment:    a,
			DoctorName:     d.Name,
			PatientName:    p.Name,
			PatientEmail:   p.Email,
			PatientPhone:   p.Phone,
			PatientAddress: p.Address,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func (m *memStore) ListDoctorDetailsBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details(func(a Appointment) bool {
		return a.DoctorID == doctorID && !a.Time.Before(from) && a.Time.Before(to)
	}), nil
}

func (m *memStore) ListPatientDetails(_ context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details(func(a Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *memStore) ListDetailsBetween(_ context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details(func(a Appointment) bool { return !a.Time.Before(from) && a.Time.Before(to) }), nil
}

func (m *memStore) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// inlineLocker runs fn directly, or fails with err when set.
type inlineLocker struct {
	err  error
	keys []string
}

func (l *inlineLocker) WithDoctorDayLock(ctx context.Context, doctorID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, redisclient.DoctorDayKey(doctorID, day))
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

var errStoreDown = errors.New("connection refused")

func mustDate(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func slotAt(date, clock string) time.Time {
	t, err := ParseTimeOfDay(clock)
	if err != nil {
		panic(err)
	}
	return t.On(mustDate(date))
}
