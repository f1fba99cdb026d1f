package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	UploadDir string `yaml:"upload_dir"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"` // frontend callback URL
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Google GoogleConfig `yaml:"google"`
	Files  FilesConfig  `yaml:"files"`
}

// LoadConfig reads config/config.yaml (if present) and applies environment
// overrides for everything secret-bearing, so deployments can ship without a
// config file at all. The result is built once at startup and passed down
// explicitly; nothing else reads the environment.
func LoadConfig() *Config {
	var cfg Config

	if f, err := os.Open("config/config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			panic("Failed to parse config.yaml: " + err.Error())
		}
	}

	overrideString(&cfg.Database.DSN, "DATABASE_URL")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.Email.SMTPHost, "SMTP_HOST")
	overrideInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	overrideString(&cfg.Email.SMTPUser, "SMTP_USER")
	overrideString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	overrideString(&cfg.Email.FromEmail, "SMTP_FROM")
	overrideString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	overrideString(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	overrideString(&cfg.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	overrideString(&cfg.Files.UploadDir, "UPLOAD_DIR")
	overrideInt(&cfg.Server.Port, "PORT")

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Files.UploadDir == "" {
		cfg.Files.UploadDir = "./uploads"
	}
	if cfg.Auth.JWTSecret == "" {
		panic("JWT secret is not configured (auth.jwt_secret or JWT_SECRET)")
	}
	return &cfg
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
