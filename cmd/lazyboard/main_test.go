package main

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Joseda-hg/lazyboard/internal/config"
	"github.com/Joseda-hg/lazyboard/internal/db"
)

func TestFlagOverridesApply(t *testing.T) {
	cfg := config.Default()
	flagOverrides{backend: config.BackendRedis, redis: "localhost:6379", port: 9000, web: true}.apply(&cfg, "/data/lazyboard.db")

	if cfg.DBPath != "/data/lazyboard.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if !cfg.WebEnabled || cfg.WebPort != 9000 {
		t.Fatalf("expected web on port 9000, got %v %d", cfg.WebEnabled, cfg.WebPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected overridden config to validate: %v", err)
	}

	cfg.DBPath = "/custom.db"
	flagOverrides{}.apply(&cfg, "/data/lazyboard.db")
	if cfg.DBPath != "/custom.db" {
		t.Fatalf("expected configured db path to survive, got %q", cfg.DBPath)
	}
}

func TestLogLastSaved(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	kv := db.NewKV(conn)
	cfg := config.Default()

	logLastSaved(kv, cfg)
	if entry := hook.LastEntry(); entry == nil || entry.Message != "no saved board, starting from the demo board" {
		t.Fatalf("expected missing board to be reported, got %+v", entry)
	}

	before := time.Now().UTC().Add(-time.Second)
	if err := kv.Set(context.Background(), cfg.Storage.Key, []byte("{}")); err != nil {
		t.Fatalf("set: %v", err)
	}
	logLastSaved(kv, cfg)

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "board loaded" || entry.Level != log.InfoLevel {
		t.Fatalf("expected board loaded entry, got %+v", entry)
	}
	stamp, err := time.Parse(time.RFC3339, entry.Data["updated_at"].(string))
	if err != nil {
		t.Fatalf("parse updated_at: %v", err)
	}
	if stamp.Before(before.Truncate(time.Second)) {
		t.Fatalf("expected a fresh timestamp, got %v", stamp)
	}
}
