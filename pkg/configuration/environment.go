package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgchart/pkg/logging"
)

const Production = "production"

const (
	SourceFile     = "file"
	SourceAPI      = "api"
	SourcePostgres = "postgres"

	StateStoreMemory = "memory"
	StateStoreRedis  = "redis"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking first in the working
// directory and then in the nearest directory holding a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := existing(envFiles, "")
	if len(existingFiles) == 0 {
		if root := moduleRoot(); root != "" {
			existingFiles = existing(envFiles, root)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

func existing(files []string, dir string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"orgchart"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// OrgChartOptions selects the employee source and tunes the chart.
type OrgChartOptions struct {
	Source     string        `env:"ORGCHART_SOURCE" envDefault:"file"`
	File       string        `env:"ORGCHART_FILE" envDefault:"data/employees.json"`
	APIURL     string        `env:"ORGCHART_API_URL"`
	APIPath    string        `env:"ORGCHART_API_PATH" envDefault:"/api/employees"`
	APIToken   string        `env:"ORGCHART_API_TOKEN"`
	APITimeout time.Duration `env:"ORGCHART_API_TIMEOUT" envDefault:"10s"`

	StateStore string        `env:"ORGCHART_STATE_STORE" envDefault:"memory"`
	StateTTL   time.Duration `env:"ORGCHART_STATE_TTL" envDefault:"24h"`

	DefaultDirection string   `env:"ORGCHART_DEFAULT_DIRECTION" envDefault:"TB"`
	RootKeywords     []string `env:"ORGCHART_ROOT_KEYWORDS" envSeparator:"," envDefault:"VC,CEO,CHAIRMAN,PRESIDENT,DIRECTOR"`
}

func (o *OrgChartOptions) Validate() error {
	o.Source = strings.ToLower(strings.TrimSpace(o.Source))
	switch o.Source {
	case SourceFile:
		if strings.TrimSpace(o.File) == "" {
			return fmt.Errorf("ORGCHART_FILE is required when ORGCHART_SOURCE=file")
		}
	case SourceAPI:
		if strings.TrimSpace(o.APIURL) == "" {
			return fmt.Errorf("ORGCHART_API_URL is required when ORGCHART_SOURCE=api")
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("invalid ORGCHART_SOURCE=%q (expected file|api|postgres)", o.Source)
	}

	o.StateStore = strings.ToLower(strings.TrimSpace(o.StateStore))
	switch o.StateStore {
	case StateStoreMemory, StateStoreRedis:
	default:
		return fmt.Errorf("invalid ORGCHART_STATE_STORE=%q (expected memory|redis)", o.StateStore)
	}
	if o.StateTTL < 0 {
		return fmt.Errorf("ORGCHART_STATE_TTL must be non-negative, got %s", o.StateTTL)
	}

	o.DefaultDirection = strings.ToUpper(strings.TrimSpace(o.DefaultDirection))
	switch o.DefaultDirection {
	case "TB", "LR":
	default:
		return fmt.Errorf("invalid ORGCHART_DEFAULT_DIRECTION=%q (expected TB|LR)", o.DefaultDirection)
	}

	keywords := make([]string, 0, len(o.RootKeywords))
	for _, k := range o.RootKeywords {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	o.RootKeywords = keywords
	return nil
}

type LogOptions struct {
	AppName string `env:"LOG_APP_NAME" envDefault:"orgchart"`
	LogPath string `env:"LOG_PATH" envDefault:"./logs/app.log"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"orgchart"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int  `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	OrgChart      OrgChartOptions
	Log           LogOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	RedisURL         string   `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int      `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string   `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string   `env:"-"`
	CorsOrigins      []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"error"`
	// Incoming requests keep this header's value as their id; a uuid v4 is generated otherwise
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load builds a fresh configuration from the environment and the given env
// files. Commands that must not panic use it instead of Use.
func Load(envFiles ...string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		tried := make([]string, 0, len(envFiles))
		for _, file := range envFiles {
			tried = append(tried, filepath.Join(wd, file))
		}
		logrus.WithField("tried", tried).Warn("no .env files found")
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.OrgChart.Validate(); err != nil {
		return fmt.Errorf("orgchart configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Log.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			c.Logger().WithError(err).Warn("failed to close log file")
		}
	}
}
