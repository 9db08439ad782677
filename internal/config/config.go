package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mdouchement/todolist/internal/logger"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of the environment variables overriding the configuration.
// Nested keys are separated by a double underscore (e.g. TODOLIST_SESSION__SECRET).
const EnvPrefix = "TODOLIST_"

// Environments and their default database file.
const (
	Development = "development"
	Testing     = "testing"
	Production  = "production"
)

var databases = map[string]string{
	Development: "todolist-dev.db",
	Testing:     "todolist-test.db",
	Production:  "todolist.db",
}

var defaults = map[string]any{
	"address":         "localhost:5000",
	"base_url":        "",
	"environment":     Development,
	"database.driver": "storm",
	"database.codec":  "msgpack",
	"no_registration": false,
	"session.ttl":     "720h",
	"log.level":       "info",
	"log.max_size":    20,
	"log.max_backups": 2,
	"log.max_age":     10,
}

type (
	// A Config holds the application settings.
	Config struct {
		Address        string
		BaseURL        string
		Environment    string
		NoRegistration bool
		Database       Database
		Session        Session
		Log            logger.Options
	}

	// Database settings.
	Database struct {
		Driver string
		DSN    string
		Codec  string
		Path   string
	}

	// Session settings.
	Session struct {
		Secret string
		TTL    time.Duration
	}
)

// Load reads the configuration from the given file (YAML or TOML), then from the environment.
// An empty filename only loads the defaults and the environment.
func Load(filename string) (*Config, error) {
	konf := koanf.New(".")
	if err := konf.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, "could not load defaults")
	}

	if filename != "" {
		if err := loadFile(konf, filename); err != nil {
			return nil, err
		}
	}

	err := konf.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not load environment")
	}

	return parse(konf)
}

func loadFile(konf *koanf.Koanf, filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return errors.Wrap(err, "could not read configuration")
		}

		m := map[string]any{}
		if err = toml.Unmarshal(data, &m); err != nil {
			return errors.Wrap(err, "could not parse configuration")
		}

		return errors.Wrap(konf.Load(confmap.Provider(m, ""), nil), "could not load configuration")
	case ".yml", ".yaml", "":
		return errors.Wrap(konf.Load(file.Provider(filename), yaml.Parser()), "could not load configuration")
	default:
		return errors.Errorf("unsupported configuration format: %s", filename)
	}
}

func parse(konf *koanf.Koanf) (*Config, error) {
	c := &Config{
		Address:        konf.String("address"),
		BaseURL:        strings.TrimSuffix(konf.String("base_url"), "/"),
		Environment:    konf.String("environment"),
		NoRegistration: konf.Bool("no_registration"),
		Database: Database{
			Driver: konf.String("database.driver"),
			DSN:    konf.String("database.dsn"),
			Codec:  konf.String("database.codec"),
			Path:   konf.String("database_path"),
		},
		Session: Session{
			Secret: konf.String("session.secret"),
			TTL:    konf.Duration("session.ttl"),
		},
		Log: logger.Options{
			Level:      konf.String("log.level"),
			File:       konf.String("log.file"),
			MaxSize:    konf.Int("log.max_size"),
			MaxBackups: konf.Int("log.max_backups"),
			MaxAge:     konf.Int("log.max_age"),
		},
	}

	if _, ok := databases[c.Environment]; !ok {
		return nil, errors.Errorf("unknown environment: %s", c.Environment)
	}
	if c.Session.TTL <= 0 {
		return nil, errors.New("session.ttl must be a positive duration")
	}

	return c, nil
}

// DSN returns the data source name of the configured database.
// Without explicit DSN, the storm driver uses the environment's database file under database_path.
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	name := databases[c.Environment]
	if c.Database.Path == "" {
		return name
	}
	return filepath.Join(c.Database.Path, name)
}
