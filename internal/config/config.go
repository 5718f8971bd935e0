// Package config handles TOML-based configuration loading and validation.
// Values are merged in order: defaults < config file < environment.
// CLI flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"teralink/internal/media"
)

// Endpoint kinds understood by the resolver.
const (
	KindSubmit   = "submit"
	KindTemplate = "template"
)

// Placeholder marks where the target URL goes in a template endpoint address.
const Placeholder = "{}"

// MinTimeout is the shortest per-attempt resolver timeout accepted.
const MinTimeout = 100 * time.Millisecond

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Resolver ResolverConfig `toml:"resolver"`
	Log      LogConfig      `toml:"log"`
	Debug    bool           `toml:"debug" env:"DEBUG"`
}

// ServerConfig controls the HTTP front end.
type ServerConfig struct {
	Host        string `toml:"host" env:"HOST" validate:"required"`
	Port        int    `toml:"port" env:"PORT" validate:"min=1,max=65535"`
	ResolvePath string `toml:"resolve_path" env:"RESOLVE_PATH" validate:"required,startswith=/"`
}

// ResolverConfig is the read-only configuration shared by every resolution.
type ResolverConfig struct {
	Quality        string            `toml:"quality" env:"RESOLVER_QUALITY" validate:"required"`
	Timeout        time.Duration     `toml:"timeout" env:"RESOLVER_TIMEOUT"`
	CanonicalHost  string            `toml:"canonical_host" validate:"required,hostname_rfc1123"`
	SupportedHosts []string          `toml:"supported_hosts" validate:"min=1,dive,hostname_rfc1123"`
	Endpoints      []EndpointConfig  `toml:"endpoints" validate:"min=1,dive"`
	Headers        map[string]string `toml:"headers"`
}

// EndpointConfig describes one mirror endpoint.
type EndpointConfig struct {
	Kind    string `toml:"kind" validate:"oneof=submit template"`
	Address string `toml:"address" validate:"required"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level      string `toml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format     string `toml:"format" env:"LOG_FORMAT" validate:"oneof=console json"`
	File       string `toml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `toml:"max_backups" validate:"min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			ResolvePath: "/resolve",
		},
		Resolver: ResolverConfig{
			Quality:       media.DefaultQuality,
			Timeout:       10 * time.Second,
			CanonicalHost: "1024tera.com",
			SupportedHosts: []string{
				"terabox.com", "nephobox.com", "4funbox.com", "mirrobox.com",
				"momerybox.com", "teraboxapp.com", "1024tera.com", "terabox.app",
				"gibibox.com", "goaibox.com", "terasharelink.com", "teraboxlink.com",
				"freeterabox.com", "1024terabox.com", "teraboxshare.com",
			},
			Endpoints: []EndpointConfig{
				{Kind: KindSubmit, Address: "https://ytshorts.savetube.me/api/v1/terabox-downloader"},
				{Kind: KindTemplate, Address: "https://teraboxvideodownloader.nepcoderdevs.workers.dev/?url={}"},
				{Kind: KindTemplate, Address: "https://terabox.udayscriptsx.workers.dev/?url={}"},
				{Kind: KindTemplate, Address: "https://mavimods.serv00.net/Mavialt.php?url={}"},
				{Kind: KindTemplate, Address: "https://mavimods.serv00.net/Mavitera.php?url={}"},
			},
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
				"Accept":          "application/json, text/plain, */*",
				"Accept-Language": "en-US,en;q=0.5",
				"Content-Type":    "application/json",
				"Origin":          "https://ytshorts.savetube.me",
			},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "teralink"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "teralink"), nil
}

// ConfigPath returns the path to the default config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path, merges it with defaults and applies
// environment overrides. An empty path means the XDG default location, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		if err := cfg.readFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) readFile(path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	// A bare TOML integer decodes as nanoseconds.
	if c.Resolver.Timeout < MinTimeout {
		return fmt.Errorf("resolver timeout %s is below %s; use a duration string such as \"10s\"", c.Resolver.Timeout, MinTimeout)
	}

	for i, ep := range c.Resolver.Endpoints {
		hasPlaceholder := strings.Contains(ep.Address, Placeholder)
		if ep.Kind == KindTemplate && !hasPlaceholder {
			return fmt.Errorf("endpoint %d: template address %q has no %s placeholder", i, ep.Address, Placeholder)
		}
		if ep.Kind == KindSubmit && hasPlaceholder {
			return fmt.Errorf("endpoint %d: submit address %q must not contain %s", i, ep.Address, Placeholder)
		}
	}

	return nil
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
