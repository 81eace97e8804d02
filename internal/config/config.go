/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/steamdl/steamdl/internal/network"
)

// Types of history store:
const (
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// PostgresConfig contains the attributes used to connect to the PostgreSQL history store.
type PostgresConfig struct {
	Host     string
	Port     string `default:"5432"`
	User     string `default:"steamdl"`
	Password string
	Database string
	SSLMode  string `split_words:"true" default:"disable"`
}

// StoreConfig selects and configures the history store.
type StoreConfig struct {
	Type     string `default:"bolt"`
	File     string
	Postgres PostgresConfig
}

// ServerConfig contains the configuration of the web server. Each field can be set with an
// environment variable prefixed with `STEAMDL_`, for example `STEAMDL_STORE_POSTGRES_HOST`.
// `PORT` and `RAILWAY_PUBLIC_URL` are also read without the prefix because that is how the hosting
// platform provides them.
type ServerConfig struct {
	// Root is the directory that contains the steamcmd, games and public directories.
	Root string

	// Port is used to calculate the default API listener address and public URL.
	Port int `envconfig:"PORT" default:"7860"`

	// APIAddress is the listen address of the API. The default is all interfaces and the port.
	APIAddress string `split_words:"true"`

	// MetricsAddress is the listen address of the metrics server. Empty disables it.
	MetricsAddress string `split_words:"true" default:"localhost:8008"`

	// PublicURL is the base URL of the published game links.
	PublicURL string `envconfig:"RAILWAY_PUBLIC_URL"`

	// InstallerURL overrides the URL of the SteamCMD installer archive.
	InstallerURL string `split_words:"true"`

	Store StoreConfig
}

// Names of the server flags, other than the listener flags:
const (
	RootFlagName             = "root"
	PublicURLFlagName        = "public-url"
	InstallerURLFlagName     = "installer-url"
	StoreFlagName            = "store"
	StoreFileFlagName        = "store-file"
	PostgresHostFlagName     = "postgres-host"
	PostgresPortFlagName     = "postgres-port"
	PostgresUserFlagName     = "postgres-user"
	PostgresPasswordFlagName = "postgres-password" // nolint: gosec
	PostgresDatabaseFlagName = "postgres-database"
)

// envPrefix is the prefix of the environment variables.
const envPrefix = "steamdl"

// AddServerFlags adds the flags that override the server configuration.
func AddServerFlags(set *pflag.FlagSet) {
	network.AddListenerFlags(set, network.APIListener, network.APIAddress)
	network.AddListenerFlags(set, network.MetricsListener, network.MetricsAddress)
	AddLayoutFlags(set)
	AddStoreFlags(set)
	_ = set.String(
		PublicURLFlagName,
		"",
		"Base URL of the links to the published games. The default is the value of the "+
			"'RAILWAY_PUBLIC_URL' environment variable, or 'http://localhost:<port>'.",
	)
}

// AddLayoutFlags adds the flags that select the root directory and the installer URL.
func AddLayoutFlags(set *pflag.FlagSet) {
	_ = set.String(
		RootFlagName,
		"",
		"Directory containing the 'steamcmd', 'games' and 'public' directories. The "+
			"default is the working directory.",
	)
	_ = set.String(
		InstallerURLFlagName,
		"",
		"URL of the SteamCMD installer archive. The default is the Valve CDN archive for "+
			"the current operating system.",
	)
}

// AddStoreFlags adds the flags that select the history store.
func AddStoreFlags(set *pflag.FlagSet) {
	_ = set.String(StoreFlagName, "", "History store type, 'bolt' or 'postgres'.")
	_ = set.String(StoreFileFlagName, "", "File of the 'bolt' history store.")
	_ = set.String(PostgresHostFlagName, "", "PostgreSQL host.")
	_ = set.String(PostgresPortFlagName, "", "PostgreSQL port.")
	_ = set.String(PostgresUserFlagName, "", "PostgreSQL user.")
	_ = set.String(PostgresPasswordFlagName, "", "PostgreSQL password.")
	_ = set.String(PostgresDatabaseFlagName, "", "PostgreSQL database.")
}

// LoadFromEnv loads config values from the environment.
func (c *ServerConfig) LoadFromEnv() error {
	err := envconfig.Process(envPrefix, c)
	if err != nil {
		return fmt.Errorf("failed to process environment variables: %w", err)
	}
	return nil
}

// ApplyFlags overrides the configuration with the flags that were explicitly set in the command
// line, and then fills the values that are calculated from others.
func (c *ServerConfig) ApplyFlags(flags *pflag.FlagSet) error {
	if flags != nil {
		overrides := []struct {
			name   string
			target *string
		}{
			{RootFlagName, &c.Root},
			{network.ListenerAddressFlagName(network.APIListener), &c.APIAddress},
			{network.ListenerAddressFlagName(network.MetricsListener), &c.MetricsAddress},
			{PublicURLFlagName, &c.PublicURL},
			{InstallerURLFlagName, &c.InstallerURL},
			{StoreFlagName, &c.Store.Type},
			{StoreFileFlagName, &c.Store.File},
			{PostgresHostFlagName, &c.Store.Postgres.Host},
			{PostgresPortFlagName, &c.Store.Postgres.Port},
			{PostgresUserFlagName, &c.Store.Postgres.User},
			{PostgresPasswordFlagName, &c.Store.Postgres.Password},
			{PostgresDatabaseFlagName, &c.Store.Postgres.Database},
		}
		for _, s := range overrides {
			if flags.Lookup(s.name) == nil || !flags.Changed(s.name) {
				continue
			}
			value, err := flags.GetString(s.name)
			if err != nil {
				return fmt.Errorf("failed to get value of flag '%s': %w", s.name, err)
			}
			*s.target = value
		}
	}
	c.fillDefaults()
	return nil
}

func (c *ServerConfig) fillDefaults() {
	port := strconv.Itoa(c.Port)
	if c.APIAddress == "" {
		c.APIAddress = net.JoinHostPort("0.0.0.0", port)
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://localhost:" + port
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	if c.Store.Type == "" {
		c.Store.Type = StoreBolt
	}
}

// Validate checks the configuration attributes to ensure they are semantically correct.
func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.APIAddress == "" {
		return fmt.Errorf("API listener address is required")
	}
	if c.PublicURL == "" {
		return fmt.Errorf("public URL is required")
	}
	switch c.Store.Type {
	case StoreBolt:
	case StorePostgres:
		if c.Store.Postgres.Host == "" || c.Store.Postgres.Database == "" {
			return fmt.Errorf("host and database are required for the '%s' store", StorePostgres)
		}
	default:
		return fmt.Errorf(
			"unknown store type '%s', valid values are '%s' and '%s'",
			c.Store.Type, StoreBolt, StorePostgres,
		)
	}
	return nil
}

// Load creates the server configuration from the environment and the command line flags, and
// validates it.
func Load(flags *pflag.FlagSet) (result *ServerConfig, err error) {
	config := &ServerConfig{}
	err = config.LoadFromEnv()
	if err != nil {
		return
	}
	err = config.ApplyFlags(flags)
	if err != nil {
		return
	}
	err = config.Validate()
	if err != nil {
		return
	}
	result = config
	return
}
