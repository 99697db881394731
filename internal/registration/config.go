package registration

import (
	"fmt"
	"strings"
	"time"

	"eventreg-backend/internal/auth"
	"eventreg-backend/internal/gforms/structure"
)

const (
	TypeCompetitor = "competitor"
	TypeAttendee   = "attendee"

	DefaultType = TypeCompetitor
)

// FormPair is the two identifiers of one form: the editor id the Forms API
// knows it by and the id of its published view page.
type FormPair struct {
	FormID       string `json:"form_id"`
	PublishedID  string `json:"published_id"`
	CollectEmail bool   `json:"collect_email"`
}

type ScraperConfig struct {
	Retries           int     `json:"retries"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type Config struct {
	// Forms is keyed by registration type.
	Forms  map[string]FormPair   `json:"forms"`
	Google structure.Credentials `json:"google"`

	TimeoutSeconds  int `json:"timeout_seconds"`
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
	CacheSize       int `json:"cache_size"`
	// RefreshCron rebuilds cached views on a schedule ("@every 30m"), empty
	// leaves them to expire.
	RefreshCron string `json:"refresh_cron"`

	// AllowUnresolved forwards answers keyed by identifiers the live page
	// does not know instead of rejecting the submission.
	AllowUnresolved bool `json:"allow_unresolved"`
	DebugRoutes     bool `json:"debug_routes"`

	Scraper ScraperConfig `json:"scraper"`
	Auth    auth.Config   `json:"auth"`

	// DumpHttpDir receives every outbound page fetch and submission when
	// set, for debugging forms whose questions do not resolve.
	DumpHttpDir string `json:"dump_http_dir"`
}

func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// envOverrides names the environment variables deployments set instead of
// writing a config file.
var envOverrides = []struct {
	name  string
	apply func(c *Config, value string)
}{
	{"GOOGLE_FORM_ID", func(c *Config, v string) { c.setForm(TypeCompetitor, func(p *FormPair) { p.FormID = v }) }},
	{"GOOGLE_FORM_PUBLISHED_ID", func(c *Config, v string) { c.setForm(TypeCompetitor, func(p *FormPair) { p.PublishedID = v }) }},
	{"ATTENDEE_FORM_ID", func(c *Config, v string) { c.setForm(TypeAttendee, func(p *FormPair) { p.FormID = v }) }},
	{"ATTENDEE_FORM_PUBLISHED_ID", func(c *Config, v string) { c.setForm(TypeAttendee, func(p *FormPair) { p.PublishedID = v }) }},
	{"GOOGLE_SERVICE_ACCOUNT_EMAIL", func(c *Config, v string) { c.Google.ClientEmail = v }},
	{"GOOGLE_SERVICE_ACCOUNT_KEY", func(c *Config, v string) { c.Google.PrivateKey = v }},
}

func (c *Config) setForm(formType string, set func(p *FormPair)) {
	if c.Forms == nil {
		c.Forms = map[string]FormPair{}
	}
	pair := c.Forms[formType]
	set(&pair)
	c.Forms[formType] = pair
}

// ApplyEnv overrides config values with non-empty environment variables,
// lookup is os.LookupEnv outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, o := range envOverrides {
		value, ok := lookup(o.name)
		if !ok || value == "" {
			continue
		}
		o.apply(c, value)
	}
}

func normalizeType(formType string) string {
	formType = strings.ToLower(strings.TrimSpace(formType))
	if formType == "" {
		return DefaultType
	}
	return formType
}

func (c Config) pair(formType string) (string, FormPair, error) {
	formType = normalizeType(formType)
	pair, ok := c.Forms[formType]
	if !ok && formType != TypeCompetitor && formType != TypeAttendee {
		return formType, FormPair{}, newError(ErrUnknownType, fmt.Sprintf("%q", formType), nil)
	}
	if pair.FormID == "" || pair.PublishedID == "" {
		return formType, FormPair{}, newError(
			ErrConfig,
			fmt.Sprintf("form configuration for '%s' not found", formType),
			nil,
		)
	}
	return formType, pair, nil
}
