package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/crypto"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/jsonutil"
)

const (
	// EnvConfigPath points at the configuration file when --config is not given.
	EnvConfigPath = "BUGFIX_CONFIG_PATH"

	// EnvCredentialsKey holds the key used to decrypt "enc:" passwords.
	EnvCredentialsKey = "BUGFIX_CREDENTIALS_KEY"
)

// Config holds all configuration for ekaya-bugfix.
// It is read from bugfix.config.json (or .yaml) with environment variable overrides.
// Numeric and boolean fields also accept the quoted values written by older
// versions of the tool ("port": "22").
type Config struct {
	LogServer     LogServerConfig     `json:"logServer" yaml:"logServer"`
	SearchOptions SearchOptionsConfig `json:"searchOptions" yaml:"searchOptions"`
	Database      DatabaseConfig      `json:"database" yaml:"database"`
	Analyzer      AnalyzerConfig      `json:"analyzer" yaml:"analyzer"`
	Bugfix        BugfixConfig        `json:"bugfix" yaml:"bugfix"`

	// CredentialsKey decrypts passwords stored with the "enc:" prefix.
	CredentialsKey string `json:"-" yaml:"-" env:"BUGFIX_CREDENTIALS_KEY"` // Secret - not in file

	// Path is the file the configuration was read from. Empty when only the
	// environment was used.
	Path string `json:"-" yaml:"-"`
}

// LogServerConfig holds the SSH connection settings for the host that stores
// application logs.
type LogServerConfig struct {
	Host     string           `json:"host" yaml:"host" env:"LOG_SERVER_HOST"`
	Port     jsonutil.FlexInt `json:"port" yaml:"port" env:"LOG_SERVER_PORT" env-default:"22"`
	Username string           `json:"username" yaml:"username" env:"LOG_SERVER_USERNAME"`
	Password string           `json:"password" yaml:"password" env:"LOG_SERVER_PASSWORD"`
	// Timeout is the dial timeout in seconds.
	Timeout jsonutil.FlexInt `json:"timeout" yaml:"timeout" env:"LOG_SERVER_TIMEOUT" env-default:"30"`
	// KnownHostsFile enables host key verification. Host keys are not checked when empty.
	KnownHostsFile string `json:"knownHostsFile" yaml:"knownHostsFile" env:"LOG_SERVER_KNOWN_HOSTS"`
}

// PortNumber returns the SSH port.
func (c *LogServerConfig) PortNumber() int {
	return c.Port.IntOr(22)
}

// TimeoutDuration returns the dial timeout.
func (c *LogServerConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout.IntOr(30)) * time.Second
}

// Address returns host:port for dialing.
func (c *LogServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.PortNumber()))
}

// SearchOptionsConfig controls the remote grep.
type SearchOptionsConfig struct {
	BaseDirectory   string            `json:"baseDirectory" yaml:"baseDirectory" env:"LOG_SEARCH_BASE_DIRECTORY" env-default:"/logs/"`
	MaxLines        jsonutil.FlexInt  `json:"maxLines" yaml:"maxLines" env:"LOG_SEARCH_MAX_LINES" env-default:"1000"`
	ContextLines    jsonutil.FlexInt  `json:"contextLines" yaml:"contextLines" env:"LOG_SEARCH_CONTEXT_LINES" env-default:"3"`
	CaseInsensitive jsonutil.FlexBool `json:"caseInsensitive" yaml:"caseInsensitive" env:"LOG_SEARCH_CASE_INSENSITIVE" env-default:"true"`
}

// MaxLinesValue returns the maximum number of lines kept from the search output.
func (c *SearchOptionsConfig) MaxLinesValue() int {
	return c.MaxLines.IntOr(1000)
}

// ContextLinesValue returns the number of context lines around each match.
func (c *SearchOptionsConfig) ContextLinesValue() int {
	return c.ContextLines.IntOr(3)
}

// CaseInsensitiveValue reports whether grep ignores case.
func (c *SearchOptionsConfig) CaseInsensitiveValue() bool {
	return c.CaseInsensitive.BoolOr(true)
}

// DatabaseConfig holds the connection used to run generated query templates.
type DatabaseConfig struct {
	// Type is "postgres" or "sqlserver".
	Type     string           `json:"type" yaml:"type" env:"BUGFIX_DB_TYPE" env-default:"postgres"`
	Host     string           `json:"host" yaml:"host" env:"BUGFIX_DB_HOST"`
	Port     jsonutil.FlexInt `json:"port" yaml:"port" env:"BUGFIX_DB_PORT"`
	User     string           `json:"user" yaml:"user" env:"BUGFIX_DB_USER"`
	Password string           `json:"password" yaml:"password" env:"BUGFIX_DB_PASSWORD"`
	Database string           `json:"database" yaml:"database" env:"BUGFIX_DB_NAME"`
	SSLMode  string           `json:"sslMode" yaml:"sslMode" env:"BUGFIX_DB_SSLMODE" env-default:"disable"`
	// MaxQueryLimit caps the number of rows returned by a query.
	MaxQueryLimit jsonutil.FlexInt `json:"maxQueryLimit" yaml:"maxQueryLimit" env:"BUGFIX_DB_MAX_QUERY_LIMIT" env-default:"100"`
}

// IsConfigured returns true if a database host has been set.
func (c *DatabaseConfig) IsConfigured() bool {
	return c.Host != ""
}

// PortNumber returns the configured port or the default for the database type.
func (c *DatabaseConfig) PortNumber() int {
	def := 5432
	if c.Type == "sqlserver" {
		def = 1433
	}
	return c.Port.IntOr(def)
}

// MaxQueryLimitValue returns the row cap for executed queries.
func (c *DatabaseConfig) MaxQueryLimitValue() int {
	return c.MaxQueryLimit.IntOr(100)
}

// ResolvedHost returns the host to connect to. Inside a Docker container
// "localhost" refers to the container, so it is replaced with host.docker.internal.
func (c *DatabaseConfig) ResolvedHost() string {
	if c.Host != "localhost" && c.Host != "127.0.0.1" {
		return c.Host
	}
	if _, err := os.Stat("/.dockerenv"); err != nil {
		return c.Host
	}
	return "host.docker.internal"
}

// AnalyzerConfig controls project analysis and log extraction.
type AnalyzerConfig struct {
	Extensions  []string `json:"extensions" yaml:"extensions" env:"BUGFIX_ANALYZER_EXTENSIONS" env-default:".java,.kt"`
	IgnoredDirs []string `json:"ignoredDirs" yaml:"ignoredDirs" env:"BUGFIX_ANALYZER_IGNORED_DIRS" env-default:".git,node_modules,target,build,.idea"`
	// UserIDFields are the log field names whose numeric values identify a user.
	UserIDFields []string `json:"userIdFields" yaml:"userIdFields" env:"BUGFIX_USER_ID_FIELDS" env-default:"custNo,hboneNo"`
	// OutputFile is the artifact name written under the project root.
	OutputFile string `json:"outputFile" yaml:"outputFile" env:"BUGFIX_ANALYZER_OUTPUT" env-default:"bugfix.project.auto.json"`
}

// BugfixConfig controls where bug sessions are stored.
type BugfixConfig struct {
	BaseDir string `json:"baseDir" yaml:"baseDir" env:"BUGFIX_BASE_DIR" env-default:".vibedev/bugfix"`
	// ProjectConfig is the analyzer artifact used to correlate logs with tables.
	// Defaults to Analyzer.OutputFile in the working directory.
	ProjectConfig string `json:"projectConfig" yaml:"projectConfig" env:"BUGFIX_PROJECT_CONFIG"`
}

// ResolvePath finds the configuration file. The explicit path wins, then
// BUGFIX_CONFIG_PATH, then bugfix.config.json / bugfix.config.yaml in the
// working directory, then ~/.vibedev/bugfix.config.json.
// Returns apperrors.ErrConfigNotFound when no file exists.
func ResolvePath(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv(EnvConfigPath)} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s", apperrors.ErrConfigNotFound, p)
		}
		return p, nil
	}

	candidates := []string{"bugfix.config.json", "bugfix.config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".vibedev", "bugfix.config.json"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: tried %s", apperrors.ErrConfigNotFound, strings.Join(candidates, ", "))
}

// Load reads the configuration file found by ResolvePath and applies
// environment overrides. A missing file is an error.
func Load(explicit string) (*Config, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Path: path}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrConfigMalformed, path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional behaves like Load but falls back to environment variables and
// defaults when no configuration file exists. A malformed file is still an error.
func LoadOptional(explicit string) (*Config, error) {
	cfg, err := Load(explicit)
	if err == nil || !errors.Is(err, apperrors.ErrConfigNotFound) || explicit != "" {
		return cfg, err
	}

	cfg = &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("%w: environment: %v", apperrors.ErrConfigMalformed, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrConfigMalformed, err)
	}
	return c.decryptSecrets()
}

// validate checks the fields that accept legacy string values.
func (c *Config) validate() error {
	flexInts := []struct {
		name  string
		value jsonutil.FlexInt
	}{
		{"logServer.port", c.LogServer.Port},
		{"logServer.timeout", c.LogServer.Timeout},
		{"searchOptions.maxLines", c.SearchOptions.MaxLines},
		{"searchOptions.contextLines", c.SearchOptions.ContextLines},
		{"database.port", c.Database.Port},
		{"database.maxQueryLimit", c.Database.MaxQueryLimit},
	}
	for _, f := range flexInts {
		if err := f.value.Validate(); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if err := c.SearchOptions.CaseInsensitive.Validate(); err != nil {
		return fmt.Errorf("searchOptions.caseInsensitive: %w", err)
	}

	switch c.Database.Type {
	case "", "postgres", "sqlserver":
	default:
		return fmt.Errorf("database.type: %w: %q", apperrors.ErrUnsupportedDatasource, c.Database.Type)
	}

	return nil
}

// decryptSecrets replaces "enc:" passwords with their plaintext.
func (c *Config) decryptSecrets() error {
	secrets := []*string{&c.LogServer.Password, &c.Database.Password}

	var encryptor *crypto.CredentialEncryptor
	for _, s := range secrets {
		if !crypto.IsEncrypted(*s) {
			continue
		}
		if encryptor == nil {
			if c.CredentialsKey == "" {
				return fmt.Errorf("%w: encrypted password requires %s", apperrors.ErrConfigMalformed, EnvCredentialsKey)
			}
			var err error
			if encryptor, err = crypto.NewCredentialEncryptor(c.CredentialsKey); err != nil {
				return fmt.Errorf("failed to create credential encryptor: %w", err)
			}
		}
		plain, err := encryptor.DecryptValue(*s)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrCredentialsKeyMismatch, err)
		}
		*s = plain
	}
	return nil
}

// RequireLogServer checks that the fields needed to open an SSH session are set.
func (c *Config) RequireLogServer() error {
	var missing []string
	if c.LogServer.Host == "" {
		missing = append(missing, "logServer.host")
	}
	if c.LogServer.Username == "" {
		missing = append(missing, "logServer.username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", apperrors.ErrConfigMalformed, strings.Join(missing, ", "))
	}
	return nil
}

// ProjectConfigPath returns the analyzer artifact used by bug analysis.
func (c *Config) ProjectConfigPath() string {
	if c.Bugfix.ProjectConfig != "" {
		return c.Bugfix.ProjectConfig
	}
	return c.Analyzer.OutputFile
}
