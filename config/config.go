package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Input    InputConfig    `yaml:"input"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Vision   VisionConfig   `yaml:"vision"`
	Maps     MapsConfig     `yaml:"maps"`
	Speech   SpeechConfig   `yaml:"speech"`
	Polling  PollingConfig  `yaml:"polling"`
	Camera   CameraConfig   `yaml:"camera"`
	Location LocationConfig `yaml:"location"`
	Playback PlaybackConfig `yaml:"playback"`
	Currency CurrencyConfig `yaml:"currency"`
	Pushover PushoverConfig `yaml:"pushover"`
	Log      LogConfig      `yaml:"log"`
}

type InputConfig struct {
	Source       string `yaml:"source"`
	HTTPAddr     string `yaml:"http_addr"`
	AuthToken    string `yaml:"auth_token"`
	FileDir      string `yaml:"file_dir"`
	SampleRate   int    `yaml:"sample_rate"`
	Threshold    int16  `yaml:"silence_threshold"`
	ListenPrompt bool   `yaml:"listen_prompt"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type VisionConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Key        string `yaml:"key"`
	APIVersion string `yaml:"api_version"`
}

type MapsConfig struct {
	BaseURL      string `yaml:"base_url"`
	Key          string `yaml:"key"`
	APIVersion   string `yaml:"api_version"`
	SearchRadius int    `yaml:"search_radius"`
}

type VoiceConfig struct {
	Language string `yaml:"language"`
	Name     string `yaml:"name"`
}

type SpeechConfig struct {
	Provider     string                 `yaml:"provider"`
	Endpoint     string                 `yaml:"endpoint"`
	Key          string                 `yaml:"key"`
	OutputFormat string                 `yaml:"output_format"`
	DefaultVoice VoiceConfig            `yaml:"default_voice"`
	Voices       map[string]VoiceConfig `yaml:"voices"`
	Rate         int                    `yaml:"rate"`
}

type PollingConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	Interval     time.Duration `yaml:"interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type CameraConfig struct {
	Source string `yaml:"source"`
	Dir    string `yaml:"dir"`
}

type LocationConfig struct {
	Source string  `yaml:"source"`
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
}

type PlaybackConfig struct {
	Device string `yaml:"device"`
	Dir    string `yaml:"dir"`
}

type CurrencyConfig struct {
	Match string `yaml:"match"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ErrMissingCredentials is wrapped by every problem Validate reports.
var ErrMissingCredentials = errors.New("missing credentials")

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.checkChoices(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Input.Source == "" {
		c.Input.Source = "http"
	}
	if c.Input.HTTPAddr == "" {
		c.Input.HTTPAddr = ":8080"
	}
	if c.Input.FileDir == "" {
		c.Input.FileDir = "./audio"
	}
	if c.Input.SampleRate == 0 {
		c.Input.SampleRate = 16000
	}
	if c.Input.Threshold == 0 {
		c.Input.Threshold = 500
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.Vision.APIVersion == "" {
		c.Vision.APIVersion = "v3.2"
	}
	if c.Maps.BaseURL == "" {
		c.Maps.BaseURL = "https://atlas.microsoft.com"
	}
	if c.Maps.APIVersion == "" {
		c.Maps.APIVersion = "1.0"
	}
	if c.Maps.SearchRadius == 0 {
		c.Maps.SearchRadius = 5000
	}
	if c.Speech.Provider == "" {
		c.Speech.Provider = "azure"
	}
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = "audio-16khz-128kbitrate-mono-mp3"
	}
	if c.Speech.DefaultVoice.Name == "" {
		c.Speech.DefaultVoice = VoiceConfig{Language: "en-US", Name: "en-US-JennyNeural"}
	}
	if c.Speech.Voices == nil {
		c.Speech.Voices = map[string]VoiceConfig{
			"hi": {Language: "hi-IN", Name: "hi-IN-SwaraNeural"},
			"kn": {Language: "kn-IN", Name: "kn-IN-SapnaNeural"},
		}
	}
	if c.Polling.InitialDelay == 0 {
		c.Polling.InitialDelay = 3 * time.Second
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = 2 * time.Second
	}
	if c.Polling.MaxAttempts == 0 {
		c.Polling.MaxAttempts = 15
	}
	if c.Camera.Source == "" {
		c.Camera.Source = "http"
	}
	if c.Camera.Dir == "" {
		c.Camera.Dir = "./images"
	}
	if c.Location.Source == "" {
		c.Location.Source = "http"
	}
	if c.Playback.Device == "" {
		c.Playback.Device = "file"
	}
	if c.Playback.Dir == "" {
		c.Playback.Dir = "./speech"
	}
	if c.Currency.Match == "" {
		c.Currency.Match = "substring"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q, want one of %v", field, value, allowed)
}

func (c *Config) checkChoices() error {
	return errors.Join(
		oneOf("input.source", c.Input.Source, "http", "file", "microphone"),
		oneOf("speech.provider", c.Speech.Provider, "azure", "edge"),
		oneOf("camera.source", c.Camera.Source, "http", "file"),
		oneOf("location.source", c.Location.Source, "http", "static"),
		oneOf("playback.device", c.Playback.Device, "speaker", "file"),
		oneOf("currency.match", c.Currency.Match, "substring", "whole_number"),
	)
}

// Validate lists the services that cannot work with the configured
// credentials. The assistant still starts; those services fail per request.
func (c *Config) Validate() error {
	var errs []error
	missing := func(service string, ok bool) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", service, ErrMissingCredentials))
		}
	}

	missing("vision", c.Vision.Endpoint != "" && c.Vision.Key != "")
	missing("maps", c.Maps.Key != "")
	if c.Speech.Provider == "azure" {
		missing("speech", c.Speech.Endpoint != "" && c.Speech.Key != "")
	}
	missing("openai", c.OpenAI.APIKey != "")
	if c.Pushover.Enabled {
		missing("pushover", c.Pushover.Token != "" && c.Pushover.UserKey != "")
	}
	return errors.Join(errs...)
}
