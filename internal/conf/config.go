// Package conf handles the application configuration: a yaml config
// file discovered via standard locations, environment overrides and
// command line flags, all merged through viper.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/civicvoice/hearing-go/internal/errors"
)

// Settings contains all application configuration.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in the config file
	Version string `yaml:"-"`

	Main struct {
		Name string // instance name, used in log lines
	}

	WebServer struct {
		Enabled bool   // true to enable the HTTP API
		Host    string // listen address
		Port    string // listen port
		Log     string // path of the API log file, empty to disable
	}

	Database struct {
		Type  string // "sqlite" or "mysql"
		Debug bool   // log all SQL statements

		SQLite struct {
			Path string // path to sqlite database file
		}

		MySQL struct {
			Username string
			Password string
			Database string
			Host     string
			Port     string
		}
	}

	Images struct {
		Dir string // root directory for image blobs (images/YYYY/MM/<name>)
	}

	Import struct {
		Force bool // allow slug mutation instead of skipping on collision
	}
}

// DefaultSettings returns settings with sane defaults applied.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "hearing-go"
	s.WebServer.Enabled = true
	s.WebServer.Host = "0.0.0.0"
	s.WebServer.Port = "8080"
	s.Database.Type = "sqlite"
	s.Database.SQLite.Path = "hearing.db"
	s.Images.Dir = "images"
	return s
}

// Load reads settings from the config file (if any), environment and
// defaults. A missing config file is not an error.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range configPaths() {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix("HEARING")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.New(err).
				Category(errors.CategoryConfiguration).
				Component("conf").
				Build()
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("main.name", d.Main.Name)
	v.SetDefault("webserver.enabled", d.WebServer.Enabled)
	v.SetDefault("webserver.host", d.WebServer.Host)
	v.SetDefault("webserver.port", d.WebServer.Port)
	v.SetDefault("database.type", d.Database.Type)
	v.SetDefault("database.sqlite.path", d.Database.SQLite.Path)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("images.dir", d.Images.Dir)
}

// configPaths lists the directories searched for config.yaml, in
// priority order: working directory first, then the user config dir.
func configPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "hearing-go"))
	}
	return paths
}

// WriteDefault writes a commented default config file to path unless
// one already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file %s already exists", path).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	out, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Component("conf").
			Context("path", path).
			Build()
	}
	return nil
}
