// Package config loads application configuration from the environment with
// an optional YAML file underneath it. Environment variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Scopes requested during the Google OAuth consent flow. Gmail, Chat, Tasks
// and Drive cover every workflow; drive.file is what lets the app keep its
// per-user settings document in the user's own Drive.
var GoogleScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.compose",
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/chat.spaces.readonly",
	"https://www.googleapis.com/auth/chat.messages.readonly",
	"https://www.googleapis.com/auth/chat.messages",
	"https://www.googleapis.com/auth/tasks",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/drive.file",
}

// Config holds all runtime settings.
type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`

	AgentBaseURL string `yaml:"agent_base_url"`
	AgentAPIKey  string `yaml:"agent_api_key"`

	SecretKey string `yaml:"secret_key"`
	DataDir   string `yaml:"data_dir"`
	DBPath    string `yaml:"db_path"`

	AutomationEnabled       bool          `yaml:"automation_enabled"`
	AutomationInterval      time.Duration `yaml:"automation_interval"`
	ChatAutoReplyEnabled    bool          `yaml:"chat_auto_reply_enabled"`
	AutomationChatSpacesMax int           `yaml:"automation_chat_spaces_max"`

	// Release mode hides internal error detail from API responses.
	ReleaseMode bool `yaml:"release_mode"`

	AppBaseURL string `yaml:"app_base_url"`
}

func defaults() Config {
	return Config{
		Host:                    "127.0.0.1",
		Port:                    "8080",
		AgentBaseURL:            "https://oshaani.com",
		SecretKey:               "change-me-in-production",
		DataDir:                 "./data",
		DBPath:                  "employee.db",
		AutomationEnabled:       true,
		AutomationInterval:      30 * time.Minute,
		ChatAutoReplyEnabled:    true,
		AutomationChatSpacesMax: 3,
		AppBaseURL:              "http://localhost:8080",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	overrideString(&cfg.Host, "HOST")
	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	overrideString(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	overrideString(&cfg.AgentBaseURL, "OSHAANI_API_BASE_URL")
	overrideString(&cfg.AgentAPIKey, "OSHAANI_AGENT_API_KEY")
	overrideString(&cfg.SecretKey, "SECRET_KEY")
	overrideString(&cfg.DataDir, "DATA_DIR")
	overrideString(&cfg.DBPath, "DB_PATH")
	overrideString(&cfg.AppBaseURL, "APP_BASE_URL")
	overrideBool(&cfg.AutomationEnabled, "AUTOMATION_ENABLED")
	overrideBool(&cfg.ChatAutoReplyEnabled, "AUTOMATION_CHAT_AUTO_REPLY_ENABLED")
	overrideBool(&cfg.ReleaseMode, "RELEASE_MODE")

	if v := os.Getenv("AUTOMATION_INTERVAL_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("invalid AUTOMATION_INTERVAL_MINUTES: %q", v)
		}
		cfg.AutomationInterval = time.Duration(minutes) * time.Minute
	}

	return &cfg, nil
}

// ValidateOAuth fails fast when the Google OAuth client is not configured,
// with a message that points at what to set.
func (c *Config) ValidateOAuth() error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		return fmt.Errorf("missing Google OAuth client: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET (Google Cloud Console → APIs & Services → Credentials)")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1" || v == "on" || v == "yes"
	}
}
