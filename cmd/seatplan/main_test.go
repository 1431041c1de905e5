package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/seatplan-core/internal/infrastructure/config"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/logging"
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// writeConfig writes a YAML config into a temp dir and points SEATPLAN_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("SEATPLAN_CONFIG", configPath)
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SEATPLAN_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	writeConfig(t, `
service:
  id: test-service

database:
  path: ""

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_StartupAndShutdown starts with MQTT and InfluxDB disabled and
// stops cleanly when the context ends.
func TestRun_StartupAndShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	writeConfig(t, `
service:
  id: test-service
  timezone: "Europe/London"

database:
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

api:
  host: "127.0.0.1"
  port: 18089

seating:
  zone_profile: "concert"
`)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("SEATPLAN_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("SEATPLAN_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// memoryZones is a ZoneSource backed by a map of profiles.
type memoryZones map[string][]seating.PartZone

func (m memoryZones) LoadZones(_ context.Context, profile string) ([]seating.PartZone, error) {
	zones, ok := m[profile]
	if !ok {
		return nil, seating.ErrProfileNotFound
	}
	return zones, nil
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

// TestEngineFactory_MissingProfile verifies a missing profile falls back to
// the default zones.
func TestEngineFactory_MissingProfile(t *testing.T) {
	cfg := config.SeatingConfig{ZoneProfile: "absent", MaxPullChain: 3, ConsistencyThreshold: 0.7}

	factory, err := newEngineFactory(context.Background(), memoryZones{}, cfg, testLogger())
	if err != nil {
		t.Fatalf("newEngineFactory() error: %v", err)
	}

	engine := factory(4)
	if engine == nil {
		t.Fatal("factory returned nil engine")
	}
	want := seating.DefaultZones(4).Zone(seating.PartSoprano)
	got := engine.Zones().Zone(seating.PartSoprano)
	if got == nil || want == nil || got.PreferredRows[0] != want.PreferredRows[0] {
		t.Errorf("soprano zone = %+v, want default %+v", got, want)
	}
}

// TestEngineFactory_StoredProfile verifies stored zones override the defaults.
func TestEngineFactory_StoredProfile(t *testing.T) {
	stored := memoryZones{
		"concert": {
			{
				Part:          seating.PartBass,
				AllowedRows:   seating.RowRange{Min: 1, Max: 3},
				Side:          seating.SideRight,
				PreferredRows: []int{1},
			},
		},
	}
	cfg := config.SeatingConfig{ZoneProfile: "concert", MaxPullChain: 3, ConsistencyThreshold: 0.7}

	factory, err := newEngineFactory(context.Background(), stored, cfg, testLogger())
	if err != nil {
		t.Fatalf("newEngineFactory() error: %v", err)
	}

	bass := factory(3).Zones().Zone(seating.PartBass)
	if bass == nil || len(bass.PreferredRows) != 1 || bass.PreferredRows[0] != 1 {
		t.Errorf("bass zone = %+v, want preferred row 1", bass)
	}
}

// TestEngineFactory_InvalidProfile verifies a profile rejected by zone
// validation falls back to the default zones instead of failing.
func TestEngineFactory_InvalidProfile(t *testing.T) {
	stored := memoryZones{
		"broken": {{Part: seating.PartTenor}},
	}
	cfg := config.SeatingConfig{ZoneProfile: "broken", MaxPullChain: 3, ConsistencyThreshold: 0.7}

	factory, err := newEngineFactory(context.Background(), stored, cfg, testLogger())
	if err != nil {
		t.Fatalf("newEngineFactory() error: %v", err)
	}

	tenor := factory(4).Zones().Zone(seating.PartTenor)
	want := seating.DefaultZones(4).Zone(seating.PartTenor)
	if tenor == nil || tenor.AllowedRows != want.AllowedRows {
		t.Errorf("tenor zone = %+v, want default %+v", tenor, want)
	}
}
