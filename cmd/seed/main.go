package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/auth"
	"github.com/hackgods/clinic-appointment-scheduling/internal/config"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
	"github.com/hackgods/clinic-appointment-scheduling/internal/logger"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	doctors := flag.Int("doctors", 50, "number of doctors to create")
	patients := flag.Int("patients", 2000, "number of patients to create")
	password := flag.String("password", "password123", "password for every seeded account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel, "seed")
	log.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	// one hash for every account; bcrypt per row would dominate the run
	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	faker := gofakeit.New(0)
	run := context.Background()

	if err := seedAdmin(run, pool, hash); err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	if err := seedDoctors(run, pool, faker, hash, *doctors, log); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(run, pool, faker, hash, *patients, log); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, hash string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO admins (username, password_hash)
		VALUES ('admin', $1)
		ON CONFLICT (username) DO NOTHING
	`, hash)
	return err
}

// templateTimes picks a few distinct whole or half hours between 08:00 and 17:30.
func templateTimes(faker *gofakeit.Faker) []string {
	n := faker.Number(2, 6)
	seen := make(map[appointment.TimeOfDay]struct{}, n)
	times := make([]appointment.TimeOfDay, 0, n)
	for len(times) < n {
		t := appointment.NewTimeOfDay(faker.Number(8, 17), 30*faker.Number(0, 1))
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return appointment.FormatTimesOfDay(times)
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, hash string, count int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for i := 0; i < count; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, name, email, phone, specialty, available_times, password_hash, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			`,
				uuid.New(),
				"Dr. "+faker.Name(),
				fmt.Sprintf("doctor%d@clinic.test", i+1),
				faker.Phone(),
				specialties[faker.Number(0, len(specialties)-1)],
				templateTimes(faker),
				hash,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, hash string, count int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				addr := faker.Address()
				_, err := tx.Exec(ctx, `
					INSERT INTO patients (id, name, email, phone, address, password_hash, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, now(), now())
				`,
					uuid.New(),
					faker.Name(),
					fmt.Sprintf("patient%d@example.test", i+1),
					fmt.Sprintf("+1555%07d", i+1),
					addr.Address,
					hash,
				)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return nil
}
