package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvOverridesAndDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/daybook?sslmode=disable")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_DIR", "")

	cfg := LoadConfig()

	require.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	require.Equal(t, "postgres://u:p@localhost/daybook?sslmode=disable", cfg.Database.DSN)
	require.Equal(t, 2525, cfg.Email.SMTPPort)

	// defaults when neither file nor env set them
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "./uploads", cfg.Files.UploadDir)
}

func TestLoadConfig_MissingJWTSecretPanics(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	require.Panics(t, func() { LoadConfig() })
}
