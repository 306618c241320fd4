// internal/config/config.go
//
// This package loads passeq.yaml from an analyzer directory. Every setting has
// a default, so an analyzer without the file works out of the box.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the analyzer directory.
	FileName = "passeq.yaml"

	defaultSpecDir      = "spec"
	defaultSequenceFile = "analyzer.seq"
	defaultLogDir       = "input/text.txt_log"
	defaultWebPort      = 8080
	defaultLogLevel     = "info"
)

// Environment variables that override the file.
const (
	EnvAuthor   = "PASSEQ_AUTHOR"
	EnvLogLevel = "PASSEQ_LOG_LEVEL"
	EnvWebPort  = "PASSEQ_WEB_PORT"
)

const defaultConfigYAML = `# passeq analyzer configuration
version: 1

# Where the sequence file and pass files live, relative to the analyzer.
spec_dir: spec
sequence_file: analyzer.seq

# Per-pass analyzer output (ana001.tree, ana001.txxt, ana001.kbb, ...).
log_dir: input/text.txt_log

# Written into the header of newly created pass files.
author: ""

# Rule-file extensions, probed in this order when resolving a pass.
pass_extensions:
  - .pat
  - .nlp

web:
  port: 8080

logging:
  level: info
  # Log file path. Leave empty to disable logging.
  output: ""
`

// WebConfig holds the HTTP server settings.
type WebConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

// ProjectConfig models passeq.yaml.
type ProjectConfig struct {
	Version        int           `yaml:"version"`
	SpecDir        string        `yaml:"spec_dir"`
	SequenceFile   string        `yaml:"sequence_file"`
	LogDir         string        `yaml:"log_dir"`
	Author         string        `yaml:"author"`
	PassExtensions []string      `yaml:"pass_extensions"`
	Web            WebConfig     `yaml:"web"`
	Logging        LoggingConfig `yaml:"logging"`
}

// Config holds the runtime configuration for one analyzer.
type Config struct {
	// AnalyzerDir is the analyzer root; relative paths resolve against it.
	AnalyzerDir string

	Project ProjectConfig
}

// Init writes a commented default passeq.yaml into analyzerDir unless one
// already exists.
func Init(analyzerDir string) error {
	path := filepath.Join(analyzerDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(analyzerDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", analyzerDir, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// NewConfig loads configuration for analyzerDir. A missing file yields the
// defaults; environment variables are applied last.
func NewConfig(analyzerDir string) (*Config, error) {
	return Load(analyzerDir, filepath.Join(analyzerDir, FileName))
}

// Load reads the config at path for analyzerDir.
func Load(analyzerDir, path string) (*Config, error) {
	cfg := &Config{
		AnalyzerDir: analyzerDir,
		Project:     defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(path); err != nil {
		return nil, err
	}
	if err := cfg.Project.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SpecDir returns the directory holding the sequence and pass files.
func (c *Config) SpecDir() string {
	return c.resolve(c.Project.SpecDir)
}

// LogDir returns the directory holding per-pass analyzer output.
func (c *Config) LogDir() string {
	return c.resolve(c.Project.LogDir)
}

// SequencePath returns the sequence file path.
func (c *Config) SequencePath() string {
	return filepath.Join(c.SpecDir(), c.Project.SequenceFile)
}

// LogOutput returns the log file path, or "" when logging is off.
func (c *Config) LogOutput() string {
	if c.Project.Logging.Output == "" {
		return ""
	}
	return c.resolve(c.Project.Logging.Output)
}

// WebAddr returns the listen address for the web server.
func (c *Config) WebAddr() string {
	return ":" + strconv.Itoa(c.Project.Web.Port)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.AnalyzerDir, p)
}

func (c *Config) loadProjectConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	p := ProjectConfig{}
	p.applyDefaults()
	return p
}

func (p *ProjectConfig) applyDefaults() {
	if p.Version == 0 {
		p.Version = 1
	}
	if strings.TrimSpace(p.SpecDir) == "" {
		p.SpecDir = defaultSpecDir
	}
	if strings.TrimSpace(p.SequenceFile) == "" {
		p.SequenceFile = defaultSequenceFile
	}
	if strings.TrimSpace(p.LogDir) == "" {
		p.LogDir = defaultLogDir
	}
	if len(p.PassExtensions) == 0 {
		p.PassExtensions = []string{".pat", ".nlp"}
	}
	for i, ext := range p.PassExtensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			p.PassExtensions[i] = "." + ext
		}
	}
	if p.Web.Port == 0 {
		p.Web.Port = defaultWebPort
	}
	if p.Logging.Level == "" {
		p.Logging.Level = defaultLogLevel
	}
}

func (p *ProjectConfig) applyEnv() error {
	if v, ok := os.LookupEnv(EnvAuthor); ok {
		p.Author = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		p.Logging.Level = v
	}
	if v := os.Getenv(EnvWebPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvWebPort, err)
		}
		p.Web.Port = port
	}
	return nil
}

func (p ProjectConfig) validate() error {
	if p.Web.Port < 1 || p.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", p.Web.Port)
	}
	for _, ext := range p.PassExtensions {
		if ext == "" || ext == "." {
			return errors.New("pass_extensions contains an empty entry")
		}
	}
	return nil
}
