package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
	"github.com/hackgods/clinic-appointment-scheduling/internal/config"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
	"github.com/hackgods/clinic-appointment-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL  string
	Slots       int // distinct doctor/time targets
	Contenders  int // concurrent bookings fired at each target
	DaysAhead   int
	ReadWorkers int
}

type target struct {
	DoctorID uuid.UUID
	At       time.Time
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

type Simulator struct {
	config   SimConfig
	tokens   *auth.Tokens
	client   *http.Client
	log      zerolog.Logger
	patients []uuid.UUID

	booking      OperationMetrics
	availability OperationMetrics
}

func main() {
	var sc SimConfig
	flag.StringVar(&sc.APIBaseURL, "api", "http://localhost:8080", "API base URL")
	flag.IntVar(&sc.Slots, "slots", 50, "number of doctor/time targets")
	flag.IntVar(&sc.Contenders, "contenders", 8, "concurrent bookings per target")
	flag.IntVar(&sc.DaysAhead, "days", 30, "book up to this many days ahead")
	flag.IntVar(&sc.ReadWorkers, "readers", 4, "concurrent availability readers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel, "simulate")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	sim := &Simulator{
		config: sc,
		tokens: auth.NewTokens(cfg.SigningKey(), time.Hour),
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	targets, err := sim.load(context.Background(), pool)
	if err != nil {
		log.Fatal().Err(err).Msg("load data")
	}
	log.Info().Int("targets", len(targets)).Int("patients", len(sim.patients)).Msg("data loaded")

	doubleBooked := sim.run(targets)
	sim.report(doubleBooked)
	if doubleBooked > 0 {
		os.Exit(1)
	}
}

// load picks random future template slots and the patients that will contend for them.
func (s *Simulator) load(ctx context.Context, pool *pgxpool.Pool) ([]target, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM patients ORDER BY random() LIMIT $1`, s.config.Contenders*4)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		s.patients = append(s.patients, id)
	}
	rows.Close()
	if len(s.patients) < s.config.Contenders {
		return nil, fmt.Errorf("need at least %d patients, found %d", s.config.Contenders, len(s.patients))
	}

	rows, err = pool.Query(ctx, `SELECT id, available_times FROM doctors WHERE cardinality(available_times) > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type doctor struct {
		id    uuid.UUID
		times []appointment.TimeOfDay
	}
	var doctors []doctor
	for rows.Next() {
		var d doctor
		var raw []string
		if err := rows.Scan(&d.id, &raw); err != nil {
			return nil, err
		}
		if d.times, err = appointment.ParseTimesOfDay(raw); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, fmt.Errorf("no doctors with available times; run seed first")
	}

	today := appointment.DayOf(appointment.Naive(time.Now()))
	seen := make(map[target]struct{})
	targets := make([]target, 0, s.config.Slots)
	for attempts := 0; len(targets) < s.config.Slots && attempts < s.config.Slots*10; attempts++ {
		d := doctors[rand.Intn(len(doctors))]
		day := today.AddDate(0, 0, 1+rand.Intn(s.config.DaysAhead))
		t := target{DoctorID: d.id, At: d.times[rand.Intn(len(d.times))].On(day)}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}
	return targets, nil
}

// run fires Contenders simultaneous bookings at every target and returns how
// many targets ended up with more than one successful booking.
func (s *Simulator) run(targets []target) int {
	stopReaders := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < s.config.ReadWorkers; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stopReaders:
					return
				default:
				}
				t := targets[rand.Intn(len(targets))]
				s.checkAvailability(t)
			}
		}()
	}

	var doubleBooked int64
	for _, t := range targets {
		var wins int64
		var wg sync.WaitGroup
		start := make(chan struct{})

		for i := 0; i < s.config.Contenders; i++ {
			patient := s.patients[rand.Intn(len(s.patients))]
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if s.book(t, patient) {
					atomic.AddInt64(&wins, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if wins > 1 {
			atomic.AddInt64(&doubleBooked, 1)
			s.log.Error().Stringer("doctor_id", t.DoctorID).Time("at", t.At).Int64("wins", wins).Msg("double booking")
		}
	}

	close(stopReaders)
	readers.Wait()
	return int(doubleBooked)
}

func (s *Simulator) book(t target, patient uuid.UUID) bool {
	body, _ := json.Marshal(map[string]string{
		"doctor_id":        t.DoctorID.String(),
		"appointment_time": t.At.Format("2006-01-02T15:04"),
	})

	status, latency := s.do(http.MethodPost, "/appointments", auth.Patient{ID: patient}, body)
	s.booking.Record(latency, status)
	return status == http.StatusCreated
}

func (s *Simulator) checkAvailability(t target) {
	path := fmt.Sprintf("/doctors/%s/availability?date=%s", t.DoctorID, appointment.FormatDate(t.At))
	status, latency := s.do(http.MethodGet, path, auth.Patient{ID: s.patients[0]}, nil)
	s.availability.Record(latency, status)
}

func (s *Simulator) do(method, path string, p auth.Principal, body []byte) (int, time.Duration) {
	token, err := s.tokens.Issue(p, "")
	if err != nil {
		return 0, 0
	}

	req, err := http.NewRequest(method, s.config.APIBaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, 0
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, latency
}

func (s *Simulator) report(doubleBooked int) {
	for name, m := range map[string]*OperationMetrics{"booking": &s.booking, "availability": &s.availability} {
		avg, p50, p95 := m.Stats()
		s.log.Info().
			Str("operation", name).
			Int64("total", atomic.LoadInt64(&m.Total)).
			Int64("success", atomic.LoadInt64(&m.Success)).
			Int64("conflict", atomic.LoadInt64(&m.Conflict)).
			Int64("error", atomic.LoadInt64(&m.Error)).
			Dur("avg", avg).
			Dur("p50", p50).
			Dur("p95", p95).
			Msg("results")
	}
	s.log.Info().Int("double_booked_slots", doubleBooked).Msg("simulation complete")
}
