package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/events"
)

type Source interface {
	ListDetailsBetween(ctx context.Context, from, to time.Time) ([]appointment.AppointmentDetail, error)
	InsertEvent(ctx context.Context, ev appointment.EventLog) error
}

// Job publishes one reminder per scheduled appointment on the current day.
type Job struct {
	source    Source
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
	timeout   time.Duration
}

func NewJob(source Source, publisher events.Publisher, log zerolog.Logger) *Job {
	return &Job{
		source:    source,
		publisher: publisher,
		log:       log.With().Str("component", "reminder").Logger(),
		now:       func() time.Time { return appointment.Naive(time.Now()) },
		timeout:   time.Minute,
	}
}

// RunOnce sends today's reminders and returns how many were published.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	day := appointment.DayOf(j.now())
	details, err := j.source.ListDetailsBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, fmt.Errorf("list today's appointments: %w", err)
	}

	sent := 0
	for _, d := range details {
		if d.Status != appointment.StatusScheduled {
			continue
		}

		ev := events.Event{
			Type:            events.AppointmentReminder,
			AppointmentID:   d.ID,
			DoctorID:        d.DoctorID,
			PatientID:       d.PatientID,
			AppointmentTime: d.Time,
			Status:          int(d.Status),
			OccurredAt:      time.Now().UTC(),
		}
		if err := j.publisher.Publish(ctx, ev); err != nil {
			j.log.Warn().Err(err).Stringer("appointment_id", d.ID).Msg("publish reminder")
			continue
		}
		sent++

		payload, err := json.Marshal(ev)
		if err != nil {
			j.log.Error().Err(err).Stringer("appointment_id", d.ID).Msg("marshal reminder payload")
			payload = nil
		}
		id := d.ID
		if err := j.source.InsertEvent(ctx, appointment.EventLog{
			EventType:     string(ev.Type),
			AppointmentID: &id,
			Payload:       payload,
			CreatedAt:     ev.OccurredAt,
		}); err != nil {
			j.log.Error().Err(err).Stringer("appointment_id", d.ID).Msg("insert reminder event log")
		}
	}

	return sent, nil
}

// Schedule registers the job on a cron spec and starts the scheduler.
// The returned stop function waits for a running job to finish.
func (j *Job) Schedule(ctx context.Context, spec string) (stop func(), err error) {
	cronLog := cron.PrintfLogger(&j.log)
	c := cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))

	_, err = c.AddFunc(spec, func() {
		start := time.Now()
		n, err := j.RunOnce(ctx)
		if err != nil {
			j.log.Error().Err(err).Msg("reminder run failed")
			return
		}
		j.log.Info().Int("sent", n).Dur("took", time.Since(start)).Msg("reminder run complete")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", spec, err)
	}

	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
