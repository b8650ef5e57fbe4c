package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sitelog/internal/config"
	"sitelog/internal/persistence"
)

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range []BackendType{SQLiteBackend, MemoryBackend} {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Errorf("sheets is not a storage backend")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "postgres"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	app := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "a.db", DataDir: "d", AMQPURL: "amqp://x"}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "a.db" || cfg.DataDirectory != "d" || cfg.AMQPURL != "amqp://x" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "redis"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestCreateMemoryBackendSeedsFromDir(t *testing.T) {
	dir := t.TempDir()
	blob := []byte(`[{"name":"A","subCategories":[]}]`)
	if err := os.WriteFile(filepath.Join(dir, persistence.CategoriesKey+".json"), blob, 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()
	if res.Publisher != nil {
		t.Fatalf("publisher should be nil without AMQP_URL")
	}
	got, ok, err := res.Store.Load(context.Background(), persistence.CategoriesKey)
	if err != nil || !ok || string(got) != string(blob) {
		t.Fatalf("seeded blob not loaded: %q ok=%v err=%v", got, ok, err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sitelog.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	ctx := context.Background()
	if err := res.Store.Save(ctx, persistence.EntriesKey, []byte("[]")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}
