package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Catalogs CatalogsConfig    `yaml:"catalogs"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Catalogs.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory and the
// layout of its managed subdirectories.
type VaultConfig struct {
	Path      string `yaml:"path"`
	GamesDir  string `yaml:"games_dir"`
	BooksDir  string `yaml:"books_dir"`
	ReposDir  string `yaml:"repos_dir"`
	CoversDir string `yaml:"covers_dir"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.CoversDir, validation.Required),
	)
}

// CatalogsConfig holds the credentials and paths for the external
// metadata catalogs. Every catalog is optional; an unconfigured catalog
// simply disables the operations that need it.
type CatalogsConfig struct {
	IGDB    IGDBConfig    `yaml:"igdb"`
	Steam   SteamConfig   `yaml:"steam"`
	Calibre CalibreConfig `yaml:"calibre"`
	GitHub  GitHubConfig  `yaml:"github"`
}

// Validate validates the catalogs configuration.
func (c *CatalogsConfig) Validate() error {
	if err := c.IGDB.Validate(); err != nil {
		return err
	}
	return c.Steam.Validate()
}

// IGDBConfig holds Twitch application credentials for the IGDB API.
type IGDBConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether IGDB is configured.
func (c *IGDBConfig) Enabled() bool { return c.ClientID != "" }

// Validate validates the IGDB configuration.
func (c *IGDBConfig) Validate() error {
	if c.ClientID != "" && c.ClientSecret == "" {
		return fmt.Errorf("catalogs: igdb client_id set but client_secret empty")
	}
	return nil
}

// SteamConfig holds the Steam Web API key and the library owner's id.
type SteamConfig struct {
	APIKey    string `yaml:"api_key"`
	SteamID64 string `yaml:"steamid64"`
}

// Enabled reports whether Steam is configured.
func (c *SteamConfig) Enabled() bool { return c.APIKey != "" }

// Validate validates the Steam configuration.
func (c *SteamConfig) Validate() error {
	if c.APIKey != "" && c.SteamID64 == "" {
		return fmt.Errorf("catalogs: steam api_key set but steamid64 empty")
	}
	return nil
}

// CalibreConfig holds the path to a Calibre library directory.
type CalibreConfig struct {
	LibraryPath string `yaml:"library_path"`
}

// Enabled reports whether Calibre is configured.
func (c *CalibreConfig) Enabled() bool { return c.LibraryPath != "" }

// GitHubConfig holds an optional GitHub API token.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:      "./vault",
			GamesDir:  "games",
			BooksDir:  "books",
			ReposDir:  "repos",
			CoversDir: "assets/covers",
		},
		SQLite: SQLiteConfig{
			Path: "./othala.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
