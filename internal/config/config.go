package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Mix     MixConfig     `mapstructure:"mix" yaml:"mix"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

type AudioConfig struct {
	SampleRate   int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels     int    `mapstructure:"channels" yaml:"channels"`
	ChunkFrames  int    `mapstructure:"chunk_frames" yaml:"chunk_frames"`
	InputDevice  string `mapstructure:"input_device" yaml:"input_device"`   // substring match, empty = default
	OutputDevice string `mapstructure:"output_device" yaml:"output_device"` // substring match, empty = default
}

type CaptureConfig struct {
	// MaxDurationSeconds is the hard ceiling on one take. Capture
	// auto-stops and persists when it is reached.
	MaxDurationSeconds int `mapstructure:"max_duration_seconds" yaml:"max_duration_seconds"`
}

type MixConfig struct {
	// ClipThreshold is the peak above which an exported mix is scaled
	// down; Headroom is the peak it is scaled down to.
	ClipThreshold float64 `mapstructure:"clip_threshold" yaml:"clip_threshold"`
	Headroom      float64 `mapstructure:"headroom" yaml:"headroom"`
}

type OutputConfig struct {
	TakesDirectory         string `mapstructure:"takes_directory" yaml:"takes_directory"`
	ExportsDirectory       string `mapstructure:"exports_directory" yaml:"exports_directory"`
	BackingtracksDirectory string `mapstructure:"backingtracks_directory" yaml:"backingtracks_directory"`
}

var defaultConfig = Config{
	Audio: AudioConfig{
		SampleRate:  44100,
		Channels:    2,
		ChunkFrames: 1024,
	},
	Capture: CaptureConfig{
		MaxDurationSeconds: 600,
	},
	Mix: MixConfig{
		ClipThreshold: 0.5,
		Headroom:      0.95,
	},
	Output: OutputConfig{
		TakesDirectory:         filepath.Join(os.Getenv("HOME"), "Music", "Omotiv", "Takes"),
		ExportsDirectory:       filepath.Join(os.Getenv("HOME"), "Downloads"),
		BackingtracksDirectory: filepath.Join(os.Getenv("HOME"), "Music", "Omotiv", "BackingTracks"),
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the YAML configuration from configFile, layered over the
// built-in defaults. A missing file is not an error: the defaults
// apply. OMOTIV_* environment variables override file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("OMOTIV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Output.TakesDirectory = expandPath(cfg.Output.TakesDirectory)
	cfg.Output.ExportsDirectory = expandPath(cfg.Output.ExportsDirectory)
	cfg.Output.BackingtracksDirectory = expandPath(cfg.Output.BackingtracksDirectory)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", defaultConfig.Audio.SampleRate)
	v.SetDefault("audio.channels", defaultConfig.Audio.Channels)
	v.SetDefault("audio.chunk_frames", defaultConfig.Audio.ChunkFrames)
	v.SetDefault("capture.max_duration_seconds", defaultConfig.Capture.MaxDurationSeconds)
	v.SetDefault("mix.clip_threshold", defaultConfig.Mix.ClipThreshold)
	v.SetDefault("mix.headroom", defaultConfig.Mix.Headroom)
	v.SetDefault("output.takes_directory", defaultConfig.Output.TakesDirectory)
	v.SetDefault("output.exports_directory", defaultConfig.Output.ExportsDirectory)
	v.SetDefault("output.backingtracks_directory", defaultConfig.Output.BackingtracksDirectory)
}

// Validate checks every section for values a session could not run with.
func Validate(cfg *Config) error {
	if err := validateAudio(&cfg.Audio); err != nil {
		return err
	}
	if err := validateCapture(&cfg.Capture); err != nil {
		return err
	}
	if err := validateMix(&cfg.Mix); err != nil {
		return err
	}
	return validateOutput(&cfg.Output)
}

func validateAudio(a *AudioConfig) error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0, got: %d", a.SampleRate)
	}
	if a.Channels != 1 && a.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 (mono) or 2 (stereo), got: %d", a.Channels)
	}
	if a.ChunkFrames <= 0 {
		return fmt.Errorf("audio.chunk_frames must be > 0, got: %d", a.ChunkFrames)
	}
	return nil
}

func validateCapture(c *CaptureConfig) error {
	if c.MaxDurationSeconds <= 0 {
		return fmt.Errorf("capture.max_duration_seconds must be > 0, got: %d", c.MaxDurationSeconds)
	}
	return nil
}

func validateMix(m *MixConfig) error {
	if m.ClipThreshold <= 0 || m.ClipThreshold > 1 {
		return fmt.Errorf("mix.clip_threshold must be in (0, 1], got: %.2f", m.ClipThreshold)
	}
	if m.Headroom <= 0 || m.Headroom > 1 {
		return fmt.Errorf("mix.headroom must be in (0, 1], got: %.2f", m.Headroom)
	}
	if m.Headroom < m.ClipThreshold {
		return fmt.Errorf("mix.headroom (%.2f) must be >= mix.clip_threshold (%.2f)", m.Headroom, m.ClipThreshold)
	}
	return nil
}

func validateOutput(o *OutputConfig) error {
	if o.TakesDirectory == "" {
		return fmt.Errorf("output.takes_directory must not be empty")
	}
	if o.ExportsDirectory == "" {
		return fmt.Errorf("output.exports_directory must not be empty")
	}
	if o.BackingtracksDirectory == "" {
		return fmt.Errorf("output.backingtracks_directory must not be empty")
	}
	return nil
}

// MaxChunks derives the capture buffer bound from the duration ceiling
// and the configured chunk rate.
func (c *Config) MaxChunks() int {
	chunksPerSecond := float64(c.Audio.SampleRate) / float64(c.Audio.ChunkFrames)
	n := int(chunksPerSecond * float64(c.Capture.MaxDurationSeconds))
	if n < 1 {
		n = 1
	}
	return n
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
