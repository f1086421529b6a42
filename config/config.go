package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Video  VideoConfig  `yaml:"video"`
	Pacing PacingConfig `yaml:"pacing"`
	TTS    TTSConfig    `yaml:"tts"`
	Images ImagesConfig `yaml:"images"`
	Text   TextConfig   `yaml:"text"`
	Paths  PathsConfig  `yaml:"paths"`
}

type VideoConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type PacingConfig struct {
	SegmentMode         string  `yaml:"segment_mode"` // chunk | sentence
	WordsPerSegment     int     `yaml:"words_per_segment"`
	MinSegmentSec       float64 `yaml:"min_segment_sec"`
	MaxSegmentSec       float64 `yaml:"max_segment_sec"`
	ImageEveryNSegments int     `yaml:"image_every_n_segments"`
	HookEnabled         *bool   `yaml:"hook_enabled"`
}

type TTSConfig struct {
	Voice          string  `yaml:"voice"`
	PlaybackRate   float64 `yaml:"playback_rate"`
	WordsPerMinute int     `yaml:"words_per_minute"`
	TimeoutSec     int     `yaml:"timeout_sec"`
}

type ImagesConfig struct {
	RetryAttempts  int     `yaml:"retry_attempts"`
	RetryDelaySec  float64 `yaml:"retry_delay_sec"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	DarkenFactor   float64 `yaml:"darken_factor"`
	MaxConcurrency int     `yaml:"max_concurrency"`
}

type TextConfig struct {
	FontSize     int    `yaml:"font_size"`
	FontColor    string `yaml:"font_color"`
	StrokeColor  string `yaml:"stroke_color"`
	StrokeWidth  int    `yaml:"stroke_width"`
	WrapChars    int    `yaml:"wrap_chars"`
	BottomMargin int    `yaml:"bottom_margin"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Tmp    string `yaml:"tmp"`
}

// Default returns the configuration used when no config.yaml overrides it.
func Default() *Config {
	hook := true
	return &Config{
		Video: VideoConfig{Width: 1080, Height: 1920, FPS: 30},
		Pacing: PacingConfig{
			SegmentMode:         "chunk",
			WordsPerSegment:     4,
			MinSegmentSec:       1.5,
			MaxSegmentSec:       3.5,
			ImageEveryNSegments: 3,
			HookEnabled:         &hook,
		},
		TTS: TTSConfig{
			Voice:          "en-US-GuyNeural",
			PlaybackRate:   1.05,
			WordsPerMinute: 150,
			TimeoutSec:     120,
		},
		Images: ImagesConfig{
			RetryAttempts:  3,
			RetryDelaySec:  2,
			TimeoutSec:     60,
			DarkenFactor:   0.7,
			MaxConcurrency: 2,
		},
		Text: TextConfig{
			FontSize:     72,
			FontColor:    "white",
			StrokeColor:  "black",
			StrokeWidth:  4,
			WrapChars:    15,
			BottomMargin: 500,
		},
		Paths: PathsConfig{Output: "static/videos", Tmp: os.TempDir()},
	}
}

// Load reads config.yaml and returns a Config struct. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults restores defaults for fields the yaml file zeroed or omitted.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Video.Width <= 0 {
		c.Video.Width = d.Video.Width
	}
	if c.Video.Height <= 0 {
		c.Video.Height = d.Video.Height
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = d.Video.FPS
	}
	if c.Pacing.SegmentMode == "" {
		c.Pacing.SegmentMode = d.Pacing.SegmentMode
	}
	if c.Pacing.WordsPerSegment <= 0 {
		c.Pacing.WordsPerSegment = d.Pacing.WordsPerSegment
	}
	if c.Pacing.MinSegmentSec <= 0 {
		c.Pacing.MinSegmentSec = d.Pacing.MinSegmentSec
	}
	if c.Pacing.MaxSegmentSec <= 0 {
		c.Pacing.MaxSegmentSec = d.Pacing.MaxSegmentSec
	}
	if c.Pacing.ImageEveryNSegments <= 0 {
		c.Pacing.ImageEveryNSegments = d.Pacing.ImageEveryNSegments
	}
	if c.Pacing.HookEnabled == nil {
		c.Pacing.HookEnabled = d.Pacing.HookEnabled
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = d.TTS.Voice
	}
	if c.TTS.PlaybackRate <= 0 {
		c.TTS.PlaybackRate = d.TTS.PlaybackRate
	}
	if c.TTS.WordsPerMinute <= 0 {
		c.TTS.WordsPerMinute = d.TTS.WordsPerMinute
	}
	if c.TTS.TimeoutSec <= 0 {
		c.TTS.TimeoutSec = d.TTS.TimeoutSec
	}
	if c.Images.RetryAttempts <= 0 {
		c.Images.RetryAttempts = d.Images.RetryAttempts
	}
	if c.Images.RetryDelaySec <= 0 {
		c.Images.RetryDelaySec = d.Images.RetryDelaySec
	}
	if c.Images.TimeoutSec <= 0 {
		c.Images.TimeoutSec = d.Images.TimeoutSec
	}
	if c.Images.DarkenFactor <= 0 {
		c.Images.DarkenFactor = d.Images.DarkenFactor
	}
	if c.Images.MaxConcurrency <= 0 {
		c.Images.MaxConcurrency = d.Images.MaxConcurrency
	}
	if c.Text.FontSize <= 0 {
		c.Text.FontSize = d.Text.FontSize
	}
	if c.Text.FontColor == "" {
		c.Text.FontColor = d.Text.FontColor
	}
	if c.Text.StrokeColor == "" {
		c.Text.StrokeColor = d.Text.StrokeColor
	}
	if c.Text.StrokeWidth <= 0 {
		c.Text.StrokeWidth = d.Text.StrokeWidth
	}
	if c.Text.WrapChars <= 0 {
		c.Text.WrapChars = d.Text.WrapChars
	}
	if c.Text.BottomMargin <= 0 {
		c.Text.BottomMargin = d.Text.BottomMargin
	}
	if c.Paths.Output == "" {
		c.Paths.Output = d.Paths.Output
	}
	if c.Paths.Tmp == "" {
		c.Paths.Tmp = d.Paths.Tmp
	}
}

// HookOn reports whether the title hook segment is enabled.
func (c *Config) HookOn() bool {
	return c.Pacing.HookEnabled == nil || *c.Pacing.HookEnabled
}

// TTSTimeout returns the per-call voice engine timeout.
func (c *Config) TTSTimeout() time.Duration {
	return time.Duration(c.TTS.TimeoutSec) * time.Second
}

// ImageTimeout returns the per-call image generation timeout.
func (c *Config) ImageTimeout() time.Duration {
	return time.Duration(c.Images.TimeoutSec) * time.Second
}

// ImageRetryDelay returns the pause between image generation attempts.
func (c *Config) ImageRetryDelay() time.Duration {
	return time.Duration(c.Images.RetryDelaySec * float64(time.Second))
}
