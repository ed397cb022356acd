package config

// Configuration mirrors the JSON config file.
type Configuration struct {
	Cfg               []DistrictEntry `mapstructure:"cfg"`
	Creds             Creds           `mapstructure:"creds"`
	APIPrefix         string          `mapstructure:"api_prefix"`
	AppointmentPrefix string          `mapstructure:"appointment_prefix"`
	MinAgeLimit       int             `mapstructure:"min_age_limit"`
	Timezone          string          `mapstructure:"timezone"`
	HTTPTimeout       int             `mapstructure:"http_timeout_seconds"`
	CatalogCache      CatalogCache    `mapstructure:"catalog_cache"`
	PushgatewayURL    string          `mapstructure:"pushgateway_url"`
}

// DistrictEntry is either a state with district patterns (resolver variant)
// or a single district addressed by id (direct variant).
type DistrictEntry struct {
	State     string          `mapstructure:"state"`
	Districts []DistrictQuery `mapstructure:"districts"`

	DistrictID   int      `mapstructure:"district_id"`
	IsMainOK     bool     `mapstructure:"is_main_ok"`
	DistrictName string   `mapstructure:"district_name"`
	Recipients   []string `mapstructure:"recipients"`
}

type DistrictQuery struct {
	District  string   `mapstructure:"district"`
	Receivers []string `mapstructure:"receivers"`
}

type Creds struct {
	Prod SMTP `mapstructure:"prod_creds"`
	Test SMTP `mapstructure:"test_creds"`
}

// SMTP is one delivery profile. Transport "ses" sends through AWS SES from
// Username in Region; Server, Port and Password are unused there.
type SMTP struct {
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Server    string `mapstructure:"server"`
	Port      int    `mapstructure:"port"`
	Transport string `mapstructure:"transport"`
	Region    string `mapstructure:"region"`
}

type CatalogCache struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// Profile returns the delivery profile for the run mode.
func (c *Configuration) Profile(testMode bool) SMTP {
	if testMode {
		return c.Creds.Test
	}
	return c.Creds.Prod
}

// AllRecipients lists every recipient of the config in order of appearance.
func (c *Configuration) AllRecipients() []string {
	var out []string
	for _, e := range c.Cfg {
		out = append(out, e.Recipients...)
		for _, d := range e.Districts {
			out = append(out, d.Receivers...)
		}
	}
	return out
}
