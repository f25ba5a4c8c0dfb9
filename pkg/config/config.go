package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for gateway client configuration
const (
	EnvJDWLAppKey      = "JDWL_APP_KEY"
	EnvJDWLAppSecret   = "JDWL_APP_SECRET"
	EnvJDWLAccessToken = "JDWL_ACCESS_TOKEN"
	EnvJDWLTimezone    = "JDWL_TIMEZONE"
	EnvJDWLTimeout     = "JDWL_TIMEOUT"
	EnvJDWLPermissive  = "JDWL_PERMISSIVE"
	EnvJDWLVerbose     = "JDWL_VERBOSE"
	EnvJDWLConfigFile  = "JDWL_CONFIG"
)

// Wire constants fixed by the gateway operator
const (
	DefaultEndpoint = "https://api.jd.com/routerjson"
	ProtocolVersion = "2.0"

	// TimestampLayout is the "YYYY-MM-DD HH:mm:ss" format the router expects
	TimestampLayout = "2006-01-02 15:04:05"

	DefaultTimeout = 30 * time.Second
)

// Envelope field names
const (
	FieldPayload     = "360buy_param_json"
	FieldVersion     = "v"
	FieldMethod      = "method"
	FieldTimestamp   = "timestamp"
	FieldAccessToken = "access_token"
	FieldAppKey      = "app_key"
	FieldSign        = "sign"
)

// GatewayConfig represents the complete configuration for a gateway client
type GatewayConfig struct {
	// Credentials issued by the gateway operator
	AppKey      string `json:"app_key" yaml:"app_key"`
	AppSecret   string `json:"app_secret" yaml:"app_secret"`
	AccessToken string `json:"access_token" yaml:"access_token"`

	// IANA zone used to render envelope timestamps; empty means the process local zone
	Timezone string `json:"timezone" yaml:"timezone"`

	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Permissive logs transport and decode failures and returns an empty result instead of an error
	Permissive bool `json:"permissive" yaml:"permissive"`

	Verbose bool `json:"verbose" yaml:"verbose"`
}

// Validate reports every missing credential and an unresolvable timezone
func (c *GatewayConfig) Validate() error {
	var allErrors field.ErrorList
	if c.AppKey == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("app_key"), "app_key is required"))
	}
	if c.AppSecret == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("app_secret"), "app_secret is required"))
	}
	if c.AccessToken == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("access_token"), "access_token is required"))
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("timezone"), c.Timezone, err.Error()))
		}
	}
	if c.Timeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeout"), c.Timeout.String(), "timeout cannot be negative"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// Location resolves the configured timezone, defaulting to time.Local
func (c *GatewayConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HTTPTimeout returns the configured timeout or DefaultTimeout when unset
func (c *GatewayConfig) HTTPTimeout() time.Duration {
	if c.Timeout == 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// LoadGatewayConfigFromFile reads a YAML config file
func LoadGatewayConfigFromFile(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseGatewayConfig(data)
}

func ParseGatewayConfig(data []byte) (*GatewayConfig, error) {
	cfg := &GatewayConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Merge overlays every non-zero field of other onto c
func (c *GatewayConfig) Merge(other *GatewayConfig) {
	if other == nil {
		return
	}
	if other.AppKey != "" {
		c.AppKey = other.AppKey
	}
	if other.AppSecret != "" {
		c.AppSecret = other.AppSecret
	}
	if other.AccessToken != "" {
		c.AccessToken = other.AccessToken
	}
	if other.Timezone != "" {
		c.Timezone = other.Timezone
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
	c.Permissive = c.Permissive || other.Permissive
	c.Verbose = c.Verbose || other.Verbose
}
