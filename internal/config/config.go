// Package config loads the connector's immutable configuration snapshot.
//
// The snapshot is read once at startup from a config file (and environment
// overrides) and handed to the core components; nothing mutates it afterwards.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

const (
	customURNPrefix = "urn:okta:"
	customURNSuffix = ":1.0:user:"
)

// LDAP holds the directory-service connection and naming parameters.
type LDAP struct {
	URL          string `mapstructure:"url" default:"ldap://localhost:389"`
	BindDN       string `mapstructure:"bind_dn"`
	BindPassword string `mapstructure:"bind_password"`

	// Naming layout. Entry locations are computed as
	// <prefix><naming attribute>,<kind dn><base dn>.
	BaseDN      string `mapstructure:"base_dn" default:"dc=example,dc=com"`
	UserDN      string `mapstructure:"user_dn" default:"ou=people,"`
	GroupDN     string `mapstructure:"group_dn" default:"ou=groups,"`
	UserPrefix  string `mapstructure:"user_prefix" default:"uid="`
	GroupPrefix string `mapstructure:"group_prefix" default:"cn="`

	// Search filters used by the startup rebuild scan.
	UserFilter  string `mapstructure:"user_filter" default:"(objectClass=OpenLDAPperson)"`
	GroupFilter string `mapstructure:"group_filter" default:"(objectClass=posixGroup)"`

	// Object classes stamped onto created entries.
	UserClasses  []string `mapstructure:"user_classes" default:"[\"OpenLDAPperson\",\"shadowAccount\"]"`
	GroupClasses []string `mapstructure:"group_classes" default:"[\"posixGroup\"]"`
	GroupGID     string   `mapstructure:"group_gid" default:"5000"`

	// Timeout bounds every directory operation; expiry surfaces as a
	// directory error.
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
}

// Config is the process-wide configuration snapshot.
type Config struct {
	Listen   string `mapstructure:"listen" default:":8080"`
	LogLevel string `mapstructure:"log_level" default:"info"`

	// IDMode selects the identifier-generation policy: "random" for opaque
	// tokens, "sequence" for per-kind counters (users from 100, groups from
	// 1000).
	IDMode string `mapstructure:"id_mode" default:"random"`

	// ExtensionApp and ExtensionSchema name the provider-defined custom
	// schema; together they form the extension URN.
	ExtensionApp    string `mapstructure:"extension_app" default:"onprem_app"`
	ExtensionSchema string `mapstructure:"extension_schema" default:"custom"`

	LDAP LDAP `mapstructure:"ldap"`
}

// ExtensionURN returns the schema-extension URN under which custom user
// properties are carried, e.g. "urn:okta:onprem_app:1.0:user:custom".
func (c *Config) ExtensionURN() string {
	return customURNPrefix + c.ExtensionApp + customURNSuffix + c.ExtensionSchema
}

// Validate checks the loaded snapshot for values the connector cannot run
// without.
func (c *Config) Validate() error {
	switch c.IDMode {
	case "random", "sequence":
	default:
		return fmt.Errorf("id_mode must be %q or %q, got %q", "random", "sequence", c.IDMode)
	}
	if c.LDAP.URL == "" {
		return fmt.Errorf("ldap.url must be set")
	}
	if c.LDAP.BaseDN == "" {
		return fmt.Errorf("ldap.base_dn must be set")
	}
	return nil
}

// configKeys enumerates every settable key. Viper only consults the
// environment for keys it knows about, so each one must be bound explicitly
// for SCIMGATE_ overrides to reach keys absent from the config file.
var configKeys = []string{
	"listen",
	"log_level",
	"id_mode",
	"extension_app",
	"extension_schema",
	"ldap.url",
	"ldap.bind_dn",
	"ldap.bind_password",
	"ldap.base_dn",
	"ldap.user_dn",
	"ldap.group_dn",
	"ldap.user_prefix",
	"ldap.group_prefix",
	"ldap.user_filter",
	"ldap.group_filter",
	"ldap.user_classes",
	"ldap.group_classes",
	"ldap.group_gid",
	"ldap.timeout",
}

// Load reads the configuration file at path, applies environment overrides
// (SCIMGATE_ prefix) and struct defaults, and validates the result. An empty
// path loads defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("scimgate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding environment for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
