package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ListenAddr         string   `yaml:"listen_addr"`
	BaseURL            string   `yaml:"base_url"` // link prefix for notification emails
	LogLevel           string   `yaml:"log_level"`
	LogJSON            bool     `yaml:"log_json"`
	CorsAllowedOrigins []string `yaml:"cors_allowed_origins"`
	Store              Store    `yaml:"store"`
	Notifier           string   `yaml:"notifier"`         // "smtp" or "log"
	HighlightTTLMs     int      `yaml:"highlight_ttl_ms"` // how long a freshly published post stays highlighted
}

type Store struct {
	Driver    string `yaml:"driver"` // "firestore" or "memory"
	ProjectID string `yaml:"project_id"`
}

type Private struct {
	FirebaseCredentials string `yaml:"firebase_credentials"`
	Email               Email  `yaml:"email"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

func (s *Config) HighlightTTL() time.Duration {
	if s.Public.HighlightTTLMs <= 0 {
		return 2500 * time.Millisecond
	}
	return time.Duration(s.Public.HighlightTTLMs) * time.Millisecond
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
