package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/clinic")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.EventsDriver != EventsNone {
		t.Fatalf("EventsDriver = %q, want %q", cfg.EventsDriver, EventsNone)
	}
	if cfg.LockTTL != 5*time.Second {
		t.Fatalf("LockTTL = %s, want 5s", cfg.LockTTL)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.ReminderSchedule != "0 7 * * *" {
		t.Fatalf("ReminderSchedule = %q", cfg.ReminderSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/clinic")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("LOCK_TTL", "7")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("REDIS_URL", "redis://svc:pw@cache:6380")
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("DBMaxConns = %d, want 25", cfg.DBMaxConns)
	}
	if cfg.LockTTL != 7*time.Second {
		t.Fatalf("LockTTL = %s, want 7s", cfg.LockTTL)
	}
	if cfg.JWTTTL != 90*time.Minute {
		t.Fatalf("JWTTTL = %s, want 90m", cfg.JWTTTL)
	}
	if cfg.RedisAddr != "cache:6380" || cfg.RedisUsername != "svc" || cfg.RedisPassword != "pw" {
		t.Fatalf("redis = %q %q %q", cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{PostgresDSN: "x", EventsDriver: EventsNone}, false},
		{"missing dsn", Config{EventsDriver: EventsNone}, true},
		{"prod without secret", Config{Env: "prod", PostgresDSN: "x", EventsDriver: EventsNone}, true},
		{"amqp without url", Config{PostgresDSN: "x", EventsDriver: EventsAMQP}, true},
		{"kafka without brokers", Config{PostgresDSN: "x", EventsDriver: EventsKafka}, true},
		{"unknown driver", Config{PostgresDSN: "x", EventsDriver: "nats"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
