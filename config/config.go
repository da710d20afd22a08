package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"onmydesk/utils"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBatchSize   = 10
	DefaultLockTimeout = 10 * time.Second
	DefaultDBAlias     = "default"

	processorLockName = "onmydesk-report-processor-lock"
	schedulerLockName = "onmydesk-scheduler-processor-lock"
)

type Config struct {
	TempDir   string              `yaml:"temp_dir"`
	LogDir    string              `yaml:"log_dir"`
	BatchSize int                 `yaml:"batch_size"`
	Store     Database            `yaml:"store"`
	Databases map[string]Database `yaml:"databases"`
	Lock      LockConfig          `yaml:"lock"`
	Storage   StorageConfig       `yaml:"storage"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Server    ServerConfig        `yaml:"server"`
	Reports   []ReportConfig      `yaml:"reports"`
}

// Database is a database/sql driver name + DSN pair.
// Drivers: mysql, postgres, pgx, sqlite3, sqlite.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LockConfig struct {
	Processor      string `yaml:"processor"`
	Scheduler      string `yaml:"scheduler"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (l LockConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

type StorageConfig struct {
	Driver  string   `yaml:"driver"` // none, fs, s3
	FSRoot  string   `yaml:"fs_root"`
	BaseURL string   `yaml:"base_url"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket            string `yaml:"bucket"`
	Region            string `yaml:"region"`
	Endpoint          string `yaml:"endpoint"`
	PathStyle         bool   `yaml:"path_style"`
	Prefix            string `yaml:"prefix"`
	AccessKeyID       string `yaml:"access_key_id"`
	SecretAccessKey   string `yaml:"secret_access_key"`
	LinkExpiryMinutes int    `yaml:"link_expiry_minutes"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile collector target, optional
}

type ServerConfig struct {
	Listen               string `yaml:"listen"`
	JWTSecret            string `yaml:"jwt_secret"`
	JWTExpirationMinutes int    `yaml:"jwt_expiration_minutes"`
	UserFile             string `yaml:"user_file"`
	HashMacro            string `yaml:"hash_macro"`
	Salt                 string `yaml:"salt"`
}

// ReportConfig décrit un rapport SQL défini dans config.yaml.
type ReportConfig struct {
	Key      string        `yaml:"key"`
	Name     string        `yaml:"name"`
	Database string        `yaml:"database"`
	Query    string        `yaml:"query"`
	Params   []string      `yaml:"params"`
	Header   []string      `yaml:"header"`
	Footer   []string      `yaml:"footer"`
	Outputs  []string      `yaml:"outputs"`
	Fields   []FieldConfig `yaml:"fields"`
}

type FieldConfig struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	Type     string `yaml:"type"` // string, int, date
	Required bool   `yaml:"required"`
}

var (
	outputFormats  = map[string]bool{"csv": true, "tsv": true, "xlsx": true}
	storageDrivers = map[string]bool{"none": true, "fs": true, "s3": true}
	fieldTypes     = map[string]bool{"string": true, "int": true, "date": true}
)

// Load lit le fichier YAML (relatif à la racine du projet), applique les
// valeurs par défaut et valide le résultat.
func Load(file string) (*Config, error) {
	data, err := os.ReadFile(utils.ResolvePath(file))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.LogDir == "" {
		c.LogDir = "log"
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite3"
	}
	if c.Store.DSN == "" {
		c.Store.DSN = "onmydesk.db"
	}
	if c.Lock.Processor == "" {
		c.Lock.Processor = filepath.Join(os.TempDir(), processorLockName)
	}
	if c.Lock.Scheduler == "" {
		c.Lock.Scheduler = filepath.Join(os.TempDir(), schedulerLockName)
	}
	if c.Lock.TimeoutSeconds == 0 {
		c.Lock.TimeoutSeconds = int(DefaultLockTimeout / time.Second)
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "none"
	}
	if c.Storage.S3.LinkExpiryMinutes == 0 {
		c.Storage.S3.LinkExpiryMinutes = 15
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.JWTExpirationMinutes == 0 {
		c.Server.JWTExpirationMinutes = 60
	}
	if c.Server.UserFile == "" {
		c.Server.UserFile = "users.yaml"
	}
	if c.Server.HashMacro == "" {
		c.Server.HashMacro = "{sha256}({password}{salt}{globalsalt})"
	}
	for i := range c.Reports {
		r := &c.Reports[i]
		if r.Database == "" {
			r.Database = DefaultDBAlias
		}
		if len(r.Outputs) == 0 {
			r.Outputs = []string{"tsv"}
		}
		if r.Name == "" {
			r.Name = r.Key
		}
		for j := range r.Fields {
			if r.Fields[j].Type == "" {
				r.Fields[j].Type = "string"
			}
		}
	}
}

func (c *Config) Validate() error {
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Lock.TimeoutSeconds < 0 {
		return fmt.Errorf("lock.timeout_seconds must be positive, got %d", c.Lock.TimeoutSeconds)
	}
	if !storageDrivers[c.Storage.Driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket required for s3 driver")
	}
	seen := map[string]bool{}
	for _, r := range c.Reports {
		if r.Key == "" {
			return fmt.Errorf("report without key")
		}
		if seen[r.Key] {
			return fmt.Errorf("report %s defined twice", r.Key)
		}
		seen[r.Key] = true
		if r.Query == "" {
			return fmt.Errorf("report %s: empty query", r.Key)
		}
		if _, ok := c.Databases[r.Database]; !ok {
			return fmt.Errorf("report %s: unknown database %q", r.Key, r.Database)
		}
		for _, o := range r.Outputs {
			if !outputFormats[o] {
				return fmt.Errorf("report %s: unknown output %q", r.Key, o)
			}
		}
		for _, f := range r.Fields {
			if f.Name == "" || !fieldTypes[f.Type] {
				return fmt.Errorf("report %s: invalid field %q (type %q)", r.Key, f.Name, f.Type)
			}
		}
	}
	return nil
}
