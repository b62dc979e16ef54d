// Package config 載入服務設定：YAML 檔 → .env → LEDGER_* 環境變數 → 預設值。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-mini-ledger/pkg/logging"
	"github.com/JoeShih716/go-mini-ledger/pkg/mysql"
)

// 開戶資料來源
const (
	SeedSourceFile     = "file"
	SeedSourceMySQL    = "mysql"
	SeedSourcePostgres = "postgres"
)

const (
	DefaultGRPCAddr   = ":50051"
	DefaultKafkaTopic = "transaction_committed"
	envPrefix         = "LEDGER_"
)

type Config struct {
	GRPC     GRPCConfig     `yaml:"grpc"`
	Log      logging.Config `yaml:"log"`
	Seed     SeedConfig     `yaml:"seed"`
	MySQL    mysql.Config   `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Journal  JournalConfig  `yaml:"journal"`
	Identity IdentityConfig `yaml:"identity"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

// SeedConfig 啟動時的開戶資料
type SeedConfig struct {
	Source   string        `yaml:"source"`   // file, mysql, postgres
	Accounts []SeedAccount `yaml:"accounts"` // source 為 file 時使用
}

// SeedAccount 金額以字串表示，避免 YAML 轉成 float
type SeedAccount struct {
	ID      string `yaml:"id"`
	Secret  string `yaml:"secret"`
	Balance string `yaml:"balance"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// KafkaConfig Brokers 為空時不發布事件
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// JournalConfig Path 為空時不寫稽核日誌
type JournalConfig struct {
	Path string `yaml:"path"`
}

type IdentityConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Load 讀取設定檔
//
// 參數:
//
//	path: YAML 設定檔路徑
//	envFiles: 要載入的 .env 檔；不存在的檔案會被略過，已存在的環境變數不會被覆蓋
//
// 回傳:
//
//	Config: 套用覆寫與預設值後的設定
//	error: 讀檔、解析或驗證錯誤
func Load(path string, envFiles ...string) (Config, error) {
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv 以 LEDGER_* 環境變數覆寫設定
func (c *Config) applyEnv() error {
	setString(&c.GRPC.Addr, "GRPC_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Seed.Source, "SEED_SOURCE")
	setString(&c.MySQL.Host, "MYSQL_HOST")
	setString(&c.MySQL.User, "MYSQL_USER")
	setString(&c.MySQL.Password, "MYSQL_PASSWORD")
	setString(&c.MySQL.DBName, "MYSQL_DBNAME")
	setString(&c.Postgres.DSN, "POSTGRES_DSN")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")
	setString(&c.Journal.Path, "JOURNAL_PATH")

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if err := setInt(&c.MySQL.Port, "MYSQL_PORT"); err != nil {
		return err
	}
	return setInt(&c.Identity.BcryptCost, "BCRYPT_COST")
}

// applyDefaults 補全未設定的欄位
func (c *Config) applyDefaults() {
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = DefaultGRPCAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Seed.Source == "" {
		c.Seed.Source = SeedSourceFile
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = DefaultKafkaTopic
	}
	c.MySQL = c.MySQL.WithDefaults()
}

// Validate 檢查設定是否完整
func (c *Config) Validate() error {
	switch c.Seed.Source {
	case SeedSourceFile:
	case SeedSourceMySQL:
		if c.MySQL.Host == "" {
			return errors.New("config: mysql.host is required when seed.source is mysql")
		}
	case SeedSourcePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required when seed.source is postgres")
		}
	default:
		return fmt.Errorf("config: unknown seed.source %q", c.Seed.Source)
	}
	return nil
}

// KafkaEnabled 是否需要發布事件
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
