// Package config loads the process configuration: defaults, then
// config.json, then the .env file and environment, then command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	m "github.com/nieveai/content-crew/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	SearchSerper = "serper"
	SearchGoogle = "google"
	SearchMCP    = "mcp"
	SearchNone   = "none"
)

type SearchConfig struct {
	Provider string `json:"provider"`
	Results  int    `json:"results"`

	SerperAPIKey string `json:"-"`
	GoogleAPIKey string `json:"-"`
	GoogleCSEID  string `json:"google_cse_id,omitempty"`

	MCPCommand string `json:"mcp_command,omitempty"`
	MCPTool    string `json:"mcp_tool,omitempty"`
}

type ScrapeConfig struct {
	Enabled  bool `json:"enabled"`
	MaxPages int  `json:"max_pages"`
	MaxChars int  `json:"max_chars"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. Empty keeps runs in memory.
	Path string `json:"path"`
	// URL of a PostgreSQL database. Takes precedence over Path.
	URL string `json:"-"`
}

type Neo4jConfig struct {
	Uri      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"-"`
}

type Config struct {
	Addr    string `json:"addr"`
	Workers int    `json:"workers"`
	Verbose bool   `json:"verbose"`

	APISpec     string  `json:"api_spec"`
	Model       string  `json:"model"`
	APIURL      string  `json:"api_url,omitempty"`
	Temperature float64 `json:"temperature"`

	OpenAIAPIKey string `json:"-"`
	GeminiAPIKey string `json:"-"`

	GenerationTimeoutSeconds int `json:"generation_timeout_seconds"`
	ReadTimeoutSeconds       int `json:"read_timeout_seconds"`
	// Validate keeps it above the generation timeout.
	WriteTimeoutSeconds      int `json:"write_timeout_seconds"`

	Search   SearchConfig   `json:"search"`
	Scrape   ScrapeConfig   `json:"scrape"`
	Database DatabaseConfig `json:"database"`
	Neo4j    Neo4jConfig    `json:"neo4j"`
}

func Default() *Config {
	return &Config{
		Addr:                     ":8501",
		Workers:                  5,
		APISpec:                  m.APISpecOpenAI,
		Model:                    m.DefaultModelID,
		Temperature:              m.DefaultTemperature,
		GenerationTimeoutSeconds: 300,
		ReadTimeoutSeconds:       30,
		WriteTimeoutSeconds:      330,
		Search: SearchConfig{
			Provider: SearchSerper,
			Results:  10,
			MCPTool:  "search",
		},
		Scrape: ScrapeConfig{
			MaxPages: 3,
			MaxChars: 4000,
		},
		Database: DatabaseConfig{
			Path: "content-crew.db",
		},
	}
}

// Load builds a Config from defaults, the JSON file at path (if it exists),
// the env file (if it exists) and the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		configFile, err := os.Open(path)
		switch {
		case err == nil:
			defer configFile.Close()
			if err := json.NewDecoder(configFile).Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.APIURL, "OPENAI_BASE_URL")
	setString(&c.Model, "OPENAI_MODEL_NAME")
	setString(&c.Search.SerperAPIKey, "SERPER_API_KEY")
	setString(&c.Search.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&c.Search.GoogleCSEID, "GOOGLE_CSE_ID")
	setString(&c.Search.MCPCommand, "MCP_SEARCH_COMMAND")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Neo4j.Uri, "NEO4J_URI")
	setString(&c.Neo4j.Username, "NEO4J_USERNAME")
	setString(&c.Neo4j.Password, "NEO4J_PASSWORD")
}

// LoadFromArgs parses the standard flag set and loads the configuration it
// points at. Flags that were set explicitly win over file and environment.
func LoadFromArgs(name string, args []string) (*Config, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := flags.String("config", "config.json", "Path to the JSON config file")
	envFile := flags.String("env", ".env", "Path to the env file with API keys")
	addr := flags.String("addr", "", "HTTP listen address")
	workers := flags.Int("workers", 0, "Number of workers")
	model := flags.String("model", "", "Model name")
	apiSpec := flags.String("api-spec", "", "Model API spec: openai or gemini")
	search := flags.String("search", "", "Search provider: serper, google, mcp or none")
	db := flags.String("db", "", "SQLite database path (\"\" for in-memory)")
	scrape := flags.Bool("scrape", false, "Read the top search results with a headless browser")
	verbose := flags.Bool("verbose", false, "Enable debug logging")
	readTimeout := flags.Int("read-timeout", 0, "HTTP read timeout in seconds")
	writeTimeout := flags.Int("write-timeout", 0, "HTTP write timeout in seconds")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*configPath, *envFile)
	if err != nil {
		return nil, err
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "workers":
			cfg.Workers = *workers
		case "model":
			cfg.Model = *model
		case "api-spec":
			cfg.APISpec = *apiSpec
		case "search":
			cfg.Search.Provider = *search
		case "db":
			cfg.Database.Path = *db
		case "scrape":
			cfg.Scrape.Enabled = *scrape
		case "verbose":
			cfg.Verbose = *verbose
		case "read-timeout":
			cfg.ReadTimeoutSeconds = *readTimeout
		case "write-timeout":
			cfg.WriteTimeoutSeconds = *writeTimeout
		}
	})
	return cfg, nil
}

// Validate fills unset values with defaults and reports missing credentials.
func (c *Config) Validate() error {
	d := Default()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.Search.Results <= 0 {
		c.Search.Results = d.Search.Results
	}
	if c.GenerationTimeoutSeconds <= 0 {
		c.GenerationTimeoutSeconds = d.GenerationTimeoutSeconds
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = d.ReadTimeoutSeconds
	}
	if c.WriteTimeoutSeconds <= c.GenerationTimeoutSeconds {
		c.WriteTimeoutSeconds = c.GenerationTimeoutSeconds + 30
	}
	c.Temperature = m.ClampTemperature(c.Temperature)

	var errs []error
	switch c.APISpec {
	case m.APISpecOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("%w: OPENAI_API_KEY is required", ErrMissingAPIKey))
		}
	case m.APISpecGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, fmt.Errorf("%w: GEMINI_API_KEY is required", ErrMissingAPIKey))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown api spec %q", ErrInvalidConfig, c.APISpec))
	}

	switch c.Search.Provider {
	case SearchSerper:
		if c.Search.SerperAPIKey == "" {
			errs = append(errs, fmt.Errorf("%w: SERPER_API_KEY is required", ErrMissingAPIKey))
		}
	case SearchGoogle:
		if c.Search.GoogleAPIKey == "" || c.Search.GoogleCSEID == "" {
			errs = append(errs, fmt.Errorf("%w: GOOGLE_API_KEY and GOOGLE_CSE_ID are required", ErrMissingAPIKey))
		}
	case SearchMCP:
		if c.Search.MCPCommand == "" {
			errs = append(errs, fmt.Errorf("%w: MCP_SEARCH_COMMAND is required", ErrInvalidConfig))
		}
	case SearchNone:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown search provider %q", ErrInvalidConfig, c.Search.Provider))
	}
	return errors.Join(errs...)
}

func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ModelBinding returns the model every agent of the crew is bound to.
func (c *Config) ModelBinding() *m.Model {
	model := &m.Model{
		ID:          c.APISpec + ":" + c.Model,
		Provider:    c.APISpec,
		ModelID:     c.Model,
		APIURL:      c.APIURL,
		APISpec:     c.APISpec,
		Temperature: c.Temperature,
	}
	switch c.APISpec {
	case m.APISpecGemini:
		model.APIKey = c.GeminiAPIKey
	default:
		model.APIKey = c.OpenAIAPIKey
	}
	return model
}

// ParseTemperature reads a temperature from user input. Empty or unparsable
// input yields the default, anything else is clamped.
func ParseTemperature(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return m.DefaultTemperature
	}
	return m.ClampTemperature(v)
}
