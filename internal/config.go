package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/umwelt/internal/fragment"
	"github.com/starford/umwelt/internal/node"
)

// MaxWorkers bounds imprint.workers.
const MaxWorkers = 64

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Project ProjectConfig     `yaml:"project"`
	Imprint ImprintConfig     `yaml:"imprint"`
	Journal JournalConfig     `yaml:"journal"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Project.Validate(); err != nil {
		return err
	}
	if err := c.Imprint.Validate(); err != nil {
		return err
	}
	return c.Journal.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// ProjectConfig locates the project directory and the fragment list inside
// phase files.
type ProjectConfig struct {
	Path string `yaml:"path"`
	// Select is the JSONPath picking fragment records out of a phase document.
	Select string `yaml:"select"`
}

// Validate validates the project configuration.
func (c *ProjectConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Select, validation.Required),
	)
}

// ImprintConfig holds imprint defaults. Command line flags override them.
type ImprintConfig struct {
	Semantic string `yaml:"semantic"`
	Target   string `yaml:"target"`
	Workers  int    `yaml:"workers"`
}

// Validate validates the imprint configuration.
func (c *ImprintConfig) Validate() error {
	semantics := make([]any, 0, len(node.Semantics()))
	for _, s := range node.Semantics() {
		semantics = append(semantics, s)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Semantic, validation.Required, validation.In(semantics...)),
		validation.Field(&c.Target, validation.Required),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(MaxWorkers)),
	)
}

// JournalConfig holds the SQLite journal location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Project: ProjectConfig{
			Path:   ".umwelt",
			Select: fragment.DefaultSelector,
		},
		Imprint: ImprintConfig{
			Semantic: node.SemanticPlain,
			Target:   "umwelt_out",
			Workers:  1,
		},
		Journal: JournalConfig{
			Path: "./umwelt.db",
		},
	}
}
