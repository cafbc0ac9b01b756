package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0"

// Search modes.
const (
	SearchModeForm = "form" // type the title into the search box
	SearchModeURL  = "url"  // open the search result page directly
)

type Config struct {
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string `mapstructure:"user_agent"`
	Site                  struct {
		URL    string `mapstructure:"url"`     // site root opened by the browser
		APIURL string `mapstructure:"api_url"` // subject download endpoint
	} `mapstructure:"site"`
	Search struct {
		Mode           string `mapstructure:"mode"`
		InputSelector  string `mapstructure:"input_selector"`
		ResultSelector string `mapstructure:"result_selector"`
	} `mapstructure:"search"`
	Browser struct {
		Headless       bool     `mapstructure:"headless"`
		ExecutablePath string   `mapstructure:"executable_path"`
		InstallDriver  bool     `mapstructure:"install_driver"`
		WaitTimeout    string   `mapstructure:"wait_timeout"` // bound for every page wait
		ViewportWidth  int      `mapstructure:"viewport_width"`
		ViewportHeight int      `mapstructure:"viewport_height"`
		Args           []string `mapstructure:"args"`
	} `mapstructure:"browser"`
	Client struct {
		Retries    int    `mapstructure:"retries"`
		RetryDelay string `mapstructure:"retry_delay"`
	} `mapstructure:"client"`
	Server struct {
		Port              int    `mapstructure:"port"`
		Address           string `mapstructure:"address"`
		LegacyErrorStatus bool   `mapstructure:"legacy_error_status"` // answer lookup failures with 200; false maps them to 4xx/5xx
	} `mapstructure:"server"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	LogLevel string `mapstructure:"log_level"`
	Log      struct {
		Format     string `mapstructure:"format"` // "console" or "json"
		File       string `mapstructure:"file"`
		MaxSize    int    `mapstructure:"max_size"` // megabytes
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAge     int    `mapstructure:"max_age"` // days
		Compress   bool   `mapstructure:"compress"`
	} `mapstructure:"log"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("proxy_connection_string", "")
	v.SetDefault("client_timeout", "30s")
	v.SetDefault("user_agent", DefaultUserAgent)

	v.SetDefault("site.url", "https://moviebox.ng")
	v.SetDefault("site.api_url", "https://moviebox.ng/wefeed-h5-bff/web/subject/download")

	v.SetDefault("search.mode", SearchModeForm)
	v.SetDefault("search.input_selector", "input.pc-search-input")
	v.SetDefault("search.result_selector", "div.pc-card-btn")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.executable_path", "")
	v.SetDefault("browser.install_driver", false)
	v.SetDefault("browser.wait_timeout", "60s")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.args", []string{"--no-sandbox", "--disable-dev-shm-usage"})

	v.SetDefault("client.retries", 0)
	v.SetDefault("client.retry_delay", "1s")

	v.SetDefault("server.port", 5500)
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.legacy_error_status", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("log_level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}

// LoadConfig reads config.yaml from the working directory (or ./config),
// overlays APP_* environment variables and returns the result.
// When path is non-empty that file is read instead and must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable support
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional variables used by container platforms
	_ = v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "APP_SERVER_PORT", "PORT")
	_ = v.BindEnv("browser.executable_path", "APP_BROWSER_EXECUTABLE_PATH", "CHROME_EXECUTABLE_PATH")
	_ = v.BindEnv("sentry.dsn", "APP_SENTRY_DSN", "SENTRY_DSN")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

// ParseDuration parses a Go duration string, returning def when raw is empty.
// The boolean reports whether raw was usable.
func ParseDuration(raw string, def time.Duration) (time.Duration, bool) {
	if raw == "" {
		return def, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def, false
	}
	return d, true
}
