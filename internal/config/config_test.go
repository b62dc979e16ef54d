package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleYAML = `
grpc:
  addr: ":6000"
log:
  level: debug
seed:
  source: file
  accounts:
    - id: user1
      secret: password123
      balance: "1000.0"
    - id: user2
      secret: s2
kafka:
  brokers: ["k1:9092"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GRPC.Addr != ":6000" || cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Kafka.Topic != DefaultKafkaTopic || !cfg.KafkaEnabled() {
		t.Fatalf("unexpected kafka config %+v", cfg.Kafka)
	}
	if cfg.MySQL.MaxOpenConns != 100 || cfg.Journal.Path != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Seed.Accounts) != 2 || cfg.Seed.Accounts[0].Balance != "1000.0" {
		t.Fatalf("unexpected seed %+v", cfg.Seed)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_GRPC_ADDR", ":7000")
	t.Setenv("LEDGER_KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("LEDGER_JOURNAL_PATH", "/tmp/journal.log")
	t.Setenv("LEDGER_BCRYPT_COST", "5")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GRPC.Addr != ":7000" || cfg.Journal.Path != "/tmp/journal.log" || cfg.Identity.BcryptCost != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("LEDGER_LOG_FORMAT=json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv 會寫入行程環境，交給 t.Setenv 在結束時還原
	t.Setenv("LEDGER_LOG_FORMAT", "")
	os.Unsetenv("LEDGER_LOG_FORMAT")

	cfg, err := Load(writeConfig(t, sampleYAML), envFile, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadValidation(t *testing.T) {
	if _, err := Load(writeConfig(t, "seed:\n  source: redis\n")); err == nil {
		t.Fatal("expected unknown source error")
	}
	if _, err := Load(writeConfig(t, "seed:\n  source: postgres\n")); err == nil {
		t.Fatal("expected missing dsn error")
	}
	if _, err := Load(writeConfig(t, "seed:\n  source: mysql\n")); err == nil {
		t.Fatal("expected missing host error")
	}
	t.Setenv("LEDGER_MYSQL_PORT", "abc")
	if _, err := Load(writeConfig(t, sampleYAML)); err == nil {
		t.Fatal("expected invalid port error")
	}
}

func TestStaticSource(t *testing.T) {
	source := NewStaticSource([]SeedAccount{
		{ID: "user1", Secret: "password123", Balance: "1000.0"},
		{ID: "user2"},
	})
	seeds, err := source.LoadAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(seeds) != 2 || !seeds[0].Balance.Equal(decimal.NewFromInt(1000)) || !seeds[1].Balance.IsZero() {
		t.Fatalf("unexpected seeds %+v", seeds)
	}

	bad := NewStaticSource([]SeedAccount{{ID: "x", Balance: "ten"}})
	if _, err := bad.LoadAllAccounts(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
