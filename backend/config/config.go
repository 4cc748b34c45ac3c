package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	CredentialModeProcess = "process"
	CredentialModeCaller  = "caller"

	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"

	DefaultGraphEndpoint = "https://graph.microsoft.com/v1.0"
)

type Config struct {
	Port     string
	LogLevel string
	GinMode  string

	TraceExporter string

	GoogleClientID         string
	GoogleClientSecret     string
	GoogleRedirectURL      string
	GoogleCredentialMode   string
	GoogleCalendarEndpoint string

	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftRedirectURL  string
	MicrosoftTenantID     string

	// MicrosoftGraphEndpoint is the Graph base URL including the version.
	MicrosoftGraphEndpoint string
}

// MissingError lists every required key that was empty at startup.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

func LoadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	cfg := Config{
		Port:     env("PORT", "8080"),
		LogLevel: env("LOG_LEVEL", "info"),
		GinMode:  os.Getenv("GIN_MODE"),

		TraceExporter: strings.ToLower(env("TRACE_EXPORTER", TraceExporterNone)),

		GoogleClientID:         os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:     os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:      os.Getenv("GOOGLE_REDIRECT_URL"),
		GoogleCredentialMode:   strings.ToLower(env("GOOGLE_CREDENTIAL_MODE", CredentialModeProcess)),
		GoogleCalendarEndpoint: os.Getenv("GOOGLE_CALENDAR_ENDPOINT"),

		MicrosoftClientID:     os.Getenv("MICROSOFT_CLIENT_ID"),
		MicrosoftClientSecret: os.Getenv("MICROSOFT_CLIENT_SECRET"),
		MicrosoftRedirectURL:  os.Getenv("MICROSOFT_REDIRECT_URL"),
		MicrosoftTenantID:     env("MICROSOFT_TENANT_ID", "common"),

		MicrosoftGraphEndpoint: env("MICROSOFT_GRAPH_ENDPOINT", DefaultGraphEndpoint),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports all missing OAuth settings at once, plus an unknown
// credential mode or trace exporter.
func (c Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"GOOGLE_CLIENT_ID", c.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", c.GoogleClientSecret},
		{"GOOGLE_REDIRECT_URL", c.GoogleRedirectURL},
		{"MICROSOFT_CLIENT_ID", c.MicrosoftClientID},
		{"MICROSOFT_CLIENT_SECRET", c.MicrosoftClientSecret},
		{"MICROSOFT_REDIRECT_URL", c.MicrosoftRedirectURL},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	switch c.GoogleCredentialMode {
	case CredentialModeProcess, CredentialModeCaller:
	default:
		return fmt.Errorf("GOOGLE_CREDENTIAL_MODE must be %q or %q, got %q",
			CredentialModeProcess, CredentialModeCaller, c.GoogleCredentialMode)
	}

	switch c.TraceExporter {
	case "", TraceExporterNone, TraceExporterStdout:
	default:
		return fmt.Errorf("TRACE_EXPORTER must be %q or %q, got %q",
			TraceExporterNone, TraceExporterStdout, c.TraceExporter)
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
