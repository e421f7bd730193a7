package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Server Server `yaml:"server"`
	OpenAI OpenAI `yaml:"openai"`
	Auth   Auth   `yaml:"auth"`
}

type Server struct {
	Port          int      `yaml:"port"`
	Storage       string   `yaml:"storage"` // postgres, memory
	PostgresDsn   string   `yaml:"postgresDsn"`
	StoreTimeout  Duration `yaml:"storeTimeout"`
	RedisAddr     string   `yaml:"redisAddr"`
	RedisPassword string   `yaml:"redisPassword"`
	RedisDB       int      `yaml:"redisDB"`
	EnableTrace   bool     `yaml:"enableTrace"`
	TraceEndpoint string   `yaml:"traceEndpoint"`
}

type OpenAI struct {
	APIKey        string   `yaml:"apiKey"`
	Model         string   `yaml:"model"`
	Timeout       Duration `yaml:"timeout"`
	RetryInterval Duration `yaml:"retryInterval"`
	MaxAttempts   int      `yaml:"maxAttempts"`
}

type Auth struct {
	URL     string   `yaml:"url"`
	APIKey  string   `yaml:"apiKey"`
	Timeout Duration `yaml:"timeout"`
}

// Duration reads YAML values such as "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Default() Config {
	return Config{
		Server: Server{
			Port:         3000,
			Storage:      StoragePostgres,
			StoreTimeout: Duration(10 * time.Second),
		},
		OpenAI: OpenAI{
			Model:         "gpt-3.5-turbo",
			Timeout:       Duration(30 * time.Second),
			RetryInterval: Duration(2 * time.Second),
			MaxAttempts:   5,
		},
		Auth: Auth{
			Timeout: Duration(10 * time.Second),
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when it does
// not exist), a .env file in the working directory and finally the process environment.
func Load(path string) (Config, error) {
	config := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil && err != io.EOF {
			return Config{}, errors.Wrapf(err, "failed to parse %s", path)
		}
	case !os.IsNotExist(err):
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "failed to load .env")
	}

	if err := applyEnv(&config); err != nil {
		return Config{}, err
	}
	return config, config.Validate()
}

func applyEnv(config *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid PORT %q", v)
		}
		config.Server.Port = port
	}
	setString(&config.Server.Storage, "STORAGE")
	setString(&config.Server.PostgresDsn, "DATABASE_URL")
	setString(&config.Server.RedisAddr, "REDIS_ADDR")
	if v := os.Getenv("TRACE_ENDPOINT"); v != "" {
		config.Server.TraceEndpoint = v
		config.Server.EnableTrace = true
	}
	setString(&config.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&config.OpenAI.Model, "OPENAI_MODEL")
	setString(&config.Auth.URL, "SUPABASE_URL")
	setString(&config.Auth.APIKey, "SUPABASE_KEY")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("OpenAI API key is not set")
	}
	switch c.Server.Storage {
	case StoragePostgres:
		if c.Server.PostgresDsn == "" {
			return errors.New("postgres storage requires a DSN")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Server.Storage)
	}
	if c.OpenAI.MaxAttempts < 1 {
		return errors.New("openai.maxAttempts must be at least 1")
	}
	return nil
}
