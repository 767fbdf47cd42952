package cfg

import (
	"fmt"
	"os"
	"time"

	"inflation-dashboard/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	DataPath       string
	ModelPath      string
	XTestPath      string
	YTestPath      string
	ListenPort     int
	MetricsPort    int
	StorePath      string
	UploadTTL      time.Duration
	PurgeSchedule  string
	TypingDelay    time.Duration
	PreviewRows    int
	TopFeatures    int
	HistogramBins  int
	MaxUploadBytes int64
	WatchFiles     bool
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type ConfigFile struct {
	Data struct {
		MergedPath string `yaml:"mergedPath"`
		XTestPath  string `yaml:"xTestPath"`
		YTestPath  string `yaml:"yTestPath"`
		Watch      bool   `yaml:"watch"`
	} `yaml:"data"`

	Model struct {
		Path        string `yaml:"path"`
		TopFeatures int    `yaml:"topFeatures"`
	} `yaml:"model"`

	Display struct {
		TypingDelay   string `yaml:"typingDelay"`
		PreviewRows   int    `yaml:"previewRows"`
		HistogramBins int    `yaml:"histogramBins"`
	} `yaml:"display"`

	Uploads struct {
		StorePath     string `yaml:"storePath"`
		TTL           string `yaml:"ttl"`
		PurgeSchedule string `yaml:"purgeSchedule"`
		MaxBytes      int64  `yaml:"maxBytes"`
	} `yaml:"uploads"`

	Server struct {
		ListenPort     int      `yaml:"listenPort"`
		MetricsPort    int      `yaml:"metricsPort"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		ReadTimeout    string   `yaml:"readTimeout"`
		WriteTimeout   string   `yaml:"writeTimeout"`
	} `yaml:"server"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		DataPath:       getEnvOrDefault(common.EnvDataPath, orString(config.Data.MergedPath, common.DefaultDataPath)),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, orString(config.Model.Path, common.DefaultModelPath)),
		XTestPath:      getEnvOrDefault(common.EnvXTestPath, orString(config.Data.XTestPath, common.DefaultXTestPath)),
		YTestPath:      getEnvOrDefault(common.EnvYTestPath, orString(config.Data.YTestPath, common.DefaultYTestPath)),
		ListenPort:     getIntFromEnvOrConfig(common.EnvListenPort, config.Server.ListenPort, common.DefaultListenPort),
		MetricsPort:    getIntFromEnvOrConfig(common.EnvMetricsPort, config.Server.MetricsPort, common.DefaultMetricsPort),
		StorePath:      getEnvOrDefault(common.EnvStorePath, orString(config.Uploads.StorePath, common.DefaultStorePath)),
		UploadTTL:      getDurationFromEnvOrConfig(common.EnvUploadTTL, config.Uploads.TTL, time.Hour),
		PurgeSchedule:  getEnvOrDefault(common.EnvPurgeSchedule, orString(config.Uploads.PurgeSchedule, common.DefaultPurgeSchedule)),
		TypingDelay:    getDurationFromEnvOrConfig(common.EnvTypingDelay, config.Display.TypingDelay, 10*time.Millisecond),
		PreviewRows:    getIntFromEnvOrConfig(common.EnvPreviewRows, config.Display.PreviewRows, common.DefaultPreviewRows),
		TopFeatures:    getIntFromEnvOrConfig(common.EnvTopFeatures, config.Model.TopFeatures, common.DefaultTopFeatures),
		HistogramBins:  getIntFromEnvOrConfig(common.EnvHistogramBins, config.Display.HistogramBins, common.DefaultHistogramBins),
		MaxUploadBytes: int64(getIntFromEnvOrConfig(common.EnvMaxUploadBytes, int(config.Uploads.MaxBytes), common.DefaultMaxUploadBytes)),
		WatchFiles:     getBoolFromEnvOrConfig(common.EnvWatchFiles, config.Data.Watch),
		AllowedOrigins: getListFromEnvOrConfig(common.EnvAllowedOrigins, config.Server.AllowedOrigins, []string{"*"}),
		ReadTimeout:    getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:   getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, 30*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DataPath:       getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		ModelPath:      getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		XTestPath:      getEnvOrDefault(common.EnvXTestPath, common.DefaultXTestPath),
		YTestPath:      getEnvOrDefault(common.EnvYTestPath, common.DefaultYTestPath),
		ListenPort:     getIntOrDefault(common.EnvListenPort, common.DefaultListenPort),
		MetricsPort:    getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		StorePath:      getEnvOrDefault(common.EnvStorePath, common.DefaultStorePath),
		UploadTTL:      getDurationOrDefault(common.EnvUploadTTL, time.Hour),
		PurgeSchedule:  getEnvOrDefault(common.EnvPurgeSchedule, common.DefaultPurgeSchedule),
		TypingDelay:    getDurationOrDefault(common.EnvTypingDelay, 10*time.Millisecond),
		PreviewRows:    getIntOrDefault(common.EnvPreviewRows, common.DefaultPreviewRows),
		TopFeatures:    getIntOrDefault(common.EnvTopFeatures, common.DefaultTopFeatures),
		HistogramBins:  getIntOrDefault(common.EnvHistogramBins, common.DefaultHistogramBins),
		MaxUploadBytes: int64(getIntOrDefault(common.EnvMaxUploadBytes, common.DefaultMaxUploadBytes)),
		WatchFiles:     getBoolOrDefault(common.EnvWatchFiles, false),
		AllowedOrigins: splitOrDefault(os.Getenv(common.EnvAllowedOrigins), []string{"*"}),
		ReadTimeout:    getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout:   getDurationOrDefault(common.EnvWriteTimeout, 30*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// validateSettings performs range checks on configuration values
func validateSettings(settings *Settings) error {
	if settings.DataPath == "" {
		return fmt.Errorf("merged dataset path cannot be empty")
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.XTestPath == "" || settings.YTestPath == "" {
		return fmt.Errorf("test set paths cannot be empty")
	}

	if settings.ListenPort < 1 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.MetricsPort == settings.ListenPort {
		return fmt.Errorf("metrics port and listen port must differ, both are %d", settings.ListenPort)
	}

	if settings.TypingDelay < 0 || settings.TypingDelay > time.Second {
		return fmt.Errorf("typing delay must be between 0 and 1s, got %v", settings.TypingDelay)
	}
	if settings.UploadTTL < time.Minute || settings.UploadTTL > 7*24*time.Hour {
		return fmt.Errorf("upload TTL must be between 1m and 168h, got %v", settings.UploadTTL)
	}
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}

	if settings.PreviewRows <= 0 || settings.PreviewRows > 1000 {
		return fmt.Errorf("preview rows must be between 1 and 1000, got %d", settings.PreviewRows)
	}
	if settings.TopFeatures <= 0 || settings.TopFeatures > 500 {
		return fmt.Errorf("top features must be between 1 and 500, got %d", settings.TopFeatures)
	}
	if settings.HistogramBins < 2 || settings.HistogramBins > 500 {
		return fmt.Errorf("histogram bins must be between 2 and 500, got %d", settings.HistogramBins)
	}
	if settings.MaxUploadBytes < 1024 || settings.MaxUploadBytes > 1<<30 {
		return fmt.Errorf("max upload size must be between 1KB and 1GB, got %d", settings.MaxUploadBytes)
	}

	if settings.PurgeSchedule == "" {
		return fmt.Errorf("purge schedule cannot be empty")
	}

	return nil
}
