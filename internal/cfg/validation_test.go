package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		DataPath:       "merge_data.csv",
		ModelPath:      "inflation_model.json",
		XTestPath:      "x_test.csv",
		YTestPath:      "y_test.csv",
		ListenPort:     8501,
		MetricsPort:    9090,
		StorePath:      "data",
		UploadTTL:      time.Hour,
		PurgeSchedule:  "@every 10m",
		TypingDelay:    0,
		PreviewRows:    5,
		TopFeatures:    15,
		HistogramBins:  30,
		MaxUploadBytes: 10 << 20,
		AllowedOrigins: []string{"*"},
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()
	assert.NoError(t, validateSettings(settings))
}

func TestValidateSettings_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
	}{
		{"empty data path", func(s *Settings) { s.DataPath = "" }},
		{"empty model path", func(s *Settings) { s.ModelPath = "" }},
		{"empty test path", func(s *Settings) { s.YTestPath = "" }},
		{"listen port zero", func(s *Settings) { s.ListenPort = 0 }},
		{"metrics port privileged", func(s *Settings) { s.MetricsPort = 80 }},
		{"negative typing delay", func(s *Settings) { s.TypingDelay = -time.Millisecond }},
		{"typing delay too long", func(s *Settings) { s.TypingDelay = 2 * time.Second }},
		{"upload ttl too short", func(s *Settings) { s.UploadTTL = time.Second }},
		{"read timeout too short", func(s *Settings) { s.ReadTimeout = 0 }},
		{"write timeout too long", func(s *Settings) { s.WriteTimeout = time.Hour }},
		{"zero preview rows", func(s *Settings) { s.PreviewRows = 0 }},
		{"zero top features", func(s *Settings) { s.TopFeatures = 0 }},
		{"single histogram bin", func(s *Settings) { s.HistogramBins = 1 }},
		{"tiny upload limit", func(s *Settings) { s.MaxUploadBytes = 10 }},
		{"empty purge schedule", func(s *Settings) { s.PurgeSchedule = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.modify(settings)
			assert.Error(t, validateSettings(settings))
		})
	}
}

func TestValidateSettings_ZeroTypingDelayAllowed(t *testing.T) {
	settings := createValidSettings()
	settings.TypingDelay = 0
	assert.NoError(t, validateSettings(settings))
}
