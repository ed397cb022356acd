package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SLOTMAILER"

	DefaultMinAgeLimit = 18
	DefaultTimezone    = "Asia/Kolkata"
	DefaultHTTPTimeout = 15
	DefaultCacheTTL    = 24

	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

var (
	ErrNotFound  = errors.New("config file not found")
	ErrMalformed = errors.New("malformed config file")
	ErrInvalid   = errors.New("invalid config")
)

// Variant selects which entry shape the config must use.
type Variant int

const (
	// VariantResolver expects {state, districts: [{district, receivers}]} entries.
	VariantResolver Variant = iota
	// VariantDirect expects {district_id, is_main_ok, district_name, recipients} entries.
	VariantDirect
)

type LoadOptions struct {
	Variant  Variant
	TestMode bool
}

// Load reads and validates the config file at path. A .env file in the working
// directory is loaded first; SLOTMAILER_* variables override file values, e.g.
// SLOTMAILER_CREDS_PROD_CREDS_PASSWORD.
func Load(path string, opts LoadOptions) (*Configuration, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, opts)
}

// Parse validates raw config bytes the same way Load does.
func Parse(data []byte, opts LoadOptions) (*Configuration, error) {
	// Ignored when there is no .env file; existing env vars win.
	_ = godotenv.Load()

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	applyDefaults(cfg)

	if err := validate(cfg, opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Configuration) {
	if cfg.MinAgeLimit == 0 {
		cfg.MinAgeLimit = DefaultMinAgeLimit
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.CatalogCache.Addr != "" && cfg.CatalogCache.TTLHours == 0 {
		cfg.CatalogCache.TTLHours = DefaultCacheTTL
	}
	for _, p := range []*SMTP{&cfg.Creds.Prod, &cfg.Creds.Test} {
		if p.Transport == "" {
			p.Transport = TransportSMTP
		}
	}
}

// Location is the timezone dates and log timestamps are computed in.
func (c *Configuration) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func (c *Configuration) CacheTTL() time.Duration {
	return time.Duration(c.CatalogCache.TTLHours) * time.Hour
}
