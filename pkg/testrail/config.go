package testrail

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/tls"
	"github.com/Purneema-rathod/goose-testrail/pkg/utils"
)

// Config represents the goose-testrail configuration file
type Config struct {
	TestRail Settings `mapstructure:"testrail" yaml:"testrail"`
	Verbose  bool     `mapstructure:"verbose" yaml:"verbose"`
}

// Settings holds the TestRail connection settings. APIKey and Password are
// interchangeable secrets; the Extension prefers api_key, the Query module password.
type Settings struct {
	BaseURL            string        `mapstructure:"base_url" yaml:"base_url"`
	Username           string        `mapstructure:"username" yaml:"username"`
	APIKey             string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Password           string        `mapstructure:"password" yaml:"password,omitempty"`
	CACertFile         string        `mapstructure:"ca_cert_file" yaml:"ca_cert_file,omitempty"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify,omitempty"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

var envBindings = map[string]string{
	"testrail.base_url":             "TESTRAIL_BASE_URL",
	"testrail.username":             "TESTRAIL_USERNAME",
	"testrail.api_key":              "TESTRAIL_API_KEY",
	"testrail.password":             "TESTRAIL_PASSWORD",
	"testrail.ca_cert_file":         "TESTRAIL_CA_CERT_FILE",
	"testrail.insecure_skip_verify": "TESTRAIL_INSECURE_SKIP_VERIFY",
	"testrail.timeout":              "TESTRAIL_TIMEOUT",
}

// LoadConfig loads configuration from a YAML file with Jinja2 templating support.
// A missing file is not an error: the settings may come from TESTRAIL_* environment
// variables alone, which also override values from the file.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("testrail.timeout", "30s")
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configFile != "" && utils.FileExists(configFile) {
		path, err := utils.ExpandPath(configFile)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		renderer := common.NewTemplateRenderer()
		rendered, err := renderer.Render(string(content), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to render config template: %w", err)
		}

		if err := v.ReadConfig(bytes.NewBufferString(rendered)); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}

// Validate reports every missing connection setting at once
func (c *Config) Validate() error {
	var errs []error
	if c.TestRail.BaseURL == "" {
		errs = append(errs, fmt.Errorf("testrail.base_url must be specified"))
	}
	if c.TestRail.Username == "" {
		errs = append(errs, fmt.Errorf("testrail.username must be specified"))
	}
	if c.TestRail.APIKey == "" && c.TestRail.Password == "" {
		errs = append(errs, fmt.Errorf("testrail.api_key or testrail.password must be specified"))
	}
	if err := c.TLSOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrConfig, utilerrors.NewAggregate(errs))
	}
	return nil
}

// ExtensionSettings returns the mapping expected by Extension.Initialize
func (c *Config) ExtensionSettings() map[string]string {
	secret := c.TestRail.APIKey
	if secret == "" {
		secret = c.TestRail.Password
	}
	return map[string]string{
		"base_url": c.TestRail.BaseURL,
		"username": c.TestRail.Username,
		"api_key":  secret,
	}
}

// QuerySettings returns the mapping expected by NewQuery
func (c *Config) QuerySettings() map[string]string {
	secret := c.TestRail.Password
	if secret == "" {
		secret = c.TestRail.APIKey
	}
	return map[string]string{
		"base_url": c.TestRail.BaseURL,
		"username": c.TestRail.Username,
		"password": secret,
	}
}

// TLSOptions returns the certificate verification settings of the client
func (c *Config) TLSOptions() *tls.ClientOptions {
	return &tls.ClientOptions{
		CACertFile:         c.TestRail.CACertFile,
		InsecureSkipVerify: c.TestRail.InsecureSkipVerify,
	}
}

// ClientOptions translates the transport settings into client options
func (c *Config) ClientOptions(logger *common.Logger) ([]ClientOption, error) {
	opts := []ClientOption{WithTimeout(c.TestRail.Timeout)}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	tlsConfig, err := tls.NewClientConfig(c.TLSOptions())
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		opts = append(opts, WithTLSConfig(tlsConfig))
	}
	return opts, nil
}
