// Package config provides Viper-based configuration loading for the combat runner.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Status boundary policies for non-persistent effects when a combatant leaves combat.
const (
	BoundaryPrune  = "prune"
	BoundaryFreeze = "freeze"
)

// Move reset policies applied to staged moves at encounter end.
const (
	MoveReset = "reset"
	MoveCarry = "carry"
)

// DatabaseConfig holds PostgreSQL connection settings for encounter records.
type DatabaseConfig struct {
	// Enabled turns encounter recording on. When false no pool is opened.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// CombatConfig holds beat-loop tuning.
type CombatConfig struct {
	// BeatDelay is the cosmetic pause between beats. Zero disables pacing.
	BeatDelay time.Duration `mapstructure:"beat_delay"`
	// DefaultProximity is the base distance used to seed every ally/enemy pair.
	DefaultProximity float64 `mapstructure:"default_proximity"`
	// MaxNPCDelay bounds the pre-action delay rolled for each NPC at encounter start.
	MaxNPCDelay int `mapstructure:"max_npc_delay"`
	// StatusBoundary is BoundaryPrune or BoundaryFreeze.
	StatusBoundary string `mapstructure:"status_boundary"`
	// MoveReset is MoveReset or MoveCarry.
	MoveReset string `mapstructure:"move_reset"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	MovesDir               string `mapstructure:"moves_dir"`
	StatusesDir            string `mapstructure:"statuses_dir"`
	RosterDir              string `mapstructure:"roster_dir"`
	ScriptsDir             string `mapstructure:"scripts_dir"`
	ScriptInstructionLimit int    `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Combat   CombatConfig   `mapstructure:"combat"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must be in [0, max_conns]")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.BeatDelay < 0 {
		errs = append(errs, "combat.beat_delay must not be negative")
	}
	if c.DefaultProximity <= 0 {
		errs = append(errs, fmt.Sprintf("combat.default_proximity must be > 0, got %g", c.DefaultProximity))
	}
	if c.MaxNPCDelay < 0 {
		errs = append(errs, fmt.Sprintf("combat.max_npc_delay must be >= 0, got %d", c.MaxNPCDelay))
	}
	if c.StatusBoundary != BoundaryPrune && c.StatusBoundary != BoundaryFreeze {
		errs = append(errs, fmt.Sprintf("combat.status_boundary must be one of [prune, freeze], got %q", c.StatusBoundary))
	}
	if c.MoveReset != MoveReset && c.MoveReset != MoveCarry {
		errs = append(errs, fmt.Sprintf("combat.move_reset must be one of [reset, carry], got %q", c.MoveReset))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MovesDir == "" {
		errs = append(errs, "content.moves_dir must not be empty")
	}
	if c.StatusesDir == "" {
		errs = append(errs, "content.statuses_dir must not be empty")
	}
	if c.RosterDir == "" {
		errs = append(errs, "content.roster_dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, "content.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults installs the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skirmish")
	v.SetDefault("database.password", "skirmish")
	v.SetDefault("database.name", "skirmish")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("combat.beat_delay", "400ms")
	v.SetDefault("combat.default_proximity", 10.0)
	v.SetDefault("combat.max_npc_delay", 2)
	v.SetDefault("combat.status_boundary", BoundaryPrune)
	v.SetDefault("combat.move_reset", MoveReset)

	v.SetDefault("content.moves_dir", "content/moves")
	v.SetDefault("content.statuses_dir", "content/statuses")
	v.SetDefault("content.roster_dir", "content/roster")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.script_instruction_limit", 0)
}
