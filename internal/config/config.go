// Package config loads the watcher configuration from json5 files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"slotwatch/internal/notify"
	"slotwatch/internal/state"
	"slotwatch/pkg/configutil"
)

var ErrInvalid = errors.New("invalid config")

type NexmoConfig struct {
	ApiKey    string `json:"api_key"`
	ApiSecret string `json:"api_secret"`
	// From is the sender number or alphanumeric sender id.
	From    string `json:"from"`
	BaseUrl string `json:"base_url"`
}

type BrowserConfig struct {
	// Driver is "http" (default) or "chrome".
	Driver           string `json:"driver"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	MinIntervalMs    int    `json:"min_interval_ms"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	UserAgent        string `json:"user_agent"`
	// ExecPath and Headful only apply to the chrome driver.
	ExecPath string `json:"exec_path"`
	Headful  bool   `json:"headful"`
}

func (c BrowserConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c BrowserConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

type Config struct {
	EntryUrl        string `json:"entry_url"`
	LicenceNumber   string `json:"licence_number"`
	ReferenceNumber string `json:"reference_number"`

	Nexmo        NexmoConfig        `json:"nexmo"`
	Smtp         notify.SmtpConfig  `json:"smtp"`
	EmailSubject string             `json:"email_subject"`
	Recipients   []notify.Recipient `json:"recipients"`

	State   state.Config  `json:"state"`
	Browser BrowserConfig `json:"browser"`
	// Schedule is the cron spec used by `slotwatch watch`.
	Schedule string `json:"schedule"`
}

// FromEnv reads the .env style variables (LOGIN_URI, TO, ...), unset variables
// leave their fields empty.
func FromEnv(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		value, _ := lookup(key)
		return value
	}

	config := Config{
		EntryUrl:        get("LOGIN_URI"),
		LicenceNumber:   get("LICENCE_NUMBER"),
		ReferenceNumber: get("CANDIDATE_NUMBER"),
		Nexmo: NexmoConfig{
			ApiKey:    get("NEXMO_API_KEY"),
			ApiSecret: get("NEXMO_API_SECRET"),
			From:      get("FROM"),
		},
	}
	for _, key := range []string{"TO", "TO_SECONDARY"} {
		to := get(key)
		if to == "" {
			continue
		}
		config.Recipients = append(config.Recipients, notify.Recipient{
			Channel: notify.ChannelSMS,
			Address: to,
		})
	}
	return config
}

// Load reads `path` (and its .local override) and overlays the environment
// on top of it. A missing file is fine as long as the environment fills in
// the required fields.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	file, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	config, err := configutil.Overlay(file, FromEnv(lookup))
	if err != nil {
		return Config{}, err
	}
	config.setDefaults()

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) setDefaults() {
	if c.Browser.Driver == "" {
		c.Browser.Driver = "http"
	}
	if c.Smtp.Server != "" && c.Smtp.Port == 0 {
		c.Smtp.Port = 587
	}
	if c.EmailSubject == "" {
		c.EmailSubject = "Earlier driving test date"
	}
	if c.Schedule == "" {
		c.Schedule = "*/15 * * * *"
	}
	for i := range c.Recipients {
		if c.Recipients[i].Channel == "" {
			c.Recipients[i].Channel = notify.ChannelSMS
		}
	}
}

func (c Config) Validate() error {
	var errlist []error
	missing := func(field string) {
		errlist = append(errlist, fmt.Errorf("%w: %s is required", ErrInvalid, field))
	}

	if c.EntryUrl == "" {
		missing("entry_url")
	}
	if c.LicenceNumber == "" {
		missing("licence_number")
	}
	if c.ReferenceNumber == "" {
		missing("reference_number")
	}
	if len(c.Recipients) == 0 {
		missing("recipients")
	}

	usesSMS, usesEmail := false, false
	for _, r := range c.Recipients {
		switch r.Channel {
		case notify.ChannelSMS:
			usesSMS = true
		case notify.ChannelEmail:
			usesEmail = true
		default:
			errlist = append(errlist, fmt.Errorf("%w: unknown channel %q for %s", ErrInvalid, r.Channel, r.Address))
		}
		if r.Address == "" {
			missing("recipients[].address")
		}
	}
	if usesSMS {
		if c.Nexmo.ApiKey == "" {
			missing("nexmo.api_key")
		}
		if c.Nexmo.ApiSecret == "" {
			missing("nexmo.api_secret")
		}
		if c.Nexmo.From == "" {
			missing("nexmo.from")
		}
	}
	if usesEmail && c.Smtp.Server == "" {
		missing("smtp.server")
	}

	switch c.Browser.Driver {
	case "", "http", "chrome":
	default:
		errlist = append(errlist, fmt.Errorf("%w: unknown browser driver %q", ErrInvalid, c.Browser.Driver))
	}

	return errors.Join(errlist...)
}
