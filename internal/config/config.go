package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rl1809/material-scanner/internal/adapter/decoder"
	"github.com/rl1809/material-scanner/internal/core/domain"
)

const (
	DecoderPush  = "push"
	DecoderRedis = "redis"
)

type Config struct {
	App struct {
		Env      string `mapstructure:"env"`
		LogLevel string `mapstructure:"log_level"`
		Timezone string `mapstructure:"timezone" validate:"required"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string `mapstructure:"addr" validate:"required"`
	} `mapstructure:"http"`

	GRPC struct {
		Addr string `mapstructure:"addr" validate:"required"`
	} `mapstructure:"grpc"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`

	Scan struct {
		Debounce    time.Duration `mapstructure:"debounce" validate:"gt=0"`
		EventBuffer int           `mapstructure:"event_buffer" validate:"gt=0"`
		NamePrefix  string        `mapstructure:"name_prefix"`
	} `mapstructure:"scan"`

	Decoder struct {
		Source      string  `mapstructure:"source" validate:"oneof=push redis"`
		FPS         int     `mapstructure:"fps" validate:"gt=0"`
		QRBoxWidth  int     `mapstructure:"qrbox_width" validate:"gt=0"`
		QRBoxHeight int     `mapstructure:"qrbox_height" validate:"gt=0"`
		AspectRatio float64 `mapstructure:"aspect_ratio" validate:"gt=0"`
		FacingMode  string  `mapstructure:"facing_mode" validate:"oneof=environment user"`
		ShowTorch   bool    `mapstructure:"show_torch"`
		ShowZoom    bool    `mapstructure:"show_zoom"`
		DefaultZoom float64 `mapstructure:"default_zoom" validate:"gte=1"`
	} `mapstructure:"decoder"`

	Redis struct {
		Addr           string        `mapstructure:"addr"`
		Channel        string        `mapstructure:"channel"`
		HealthInterval time.Duration `mapstructure:"health_interval" validate:"gt=0"`
	} `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	capture := domain.DefaultCaptureConfig()

	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "")
	v.SetDefault("app.timezone", "Europe/Paris")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("scan.debounce", time.Second)
	v.SetDefault("scan.event_buffer", 64)
	v.SetDefault("scan.name_prefix", domain.DefaultNamePrefix)
	v.SetDefault("decoder.source", DecoderPush)
	v.SetDefault("decoder.fps", capture.FPS)
	v.SetDefault("decoder.qrbox_width", capture.QRBoxWidth)
	v.SetDefault("decoder.qrbox_height", capture.QRBoxHeight)
	v.SetDefault("decoder.aspect_ratio", capture.AspectRatio)
	v.SetDefault("decoder.facing_mode", capture.FacingMode)
	v.SetDefault("decoder.show_torch", capture.ShowTorch)
	v.SetDefault("decoder.show_zoom", capture.ShowZoom)
	v.SetDefault("decoder.default_zoom", capture.DefaultZoom)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.channel", decoder.DefaultChannel)
	v.SetDefault("redis.health_interval", decoder.DefaultHealthInterval)
}

// Load reads the YAML file at path when given, then applies SCANNER_*
// environment overrides (SCANNER_HTTP_ADDR, SCANNER_SCAN_DEBOUNCE, ...).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	if c.Decoder.Source == DecoderRedis && c.Redis.Addr == "" {
		return c, errors.New("invalid config: redis.addr is required for the redis decoder")
	}
	return c, nil
}

func (c Config) Capture() domain.CaptureConfig {
	return domain.CaptureConfig{
		FPS:         c.Decoder.FPS,
		QRBoxWidth:  c.Decoder.QRBoxWidth,
		QRBoxHeight: c.Decoder.QRBoxHeight,
		AspectRatio: c.Decoder.AspectRatio,
		FacingMode:  c.Decoder.FacingMode,
		ShowTorch:   c.Decoder.ShowTorch,
		ShowZoom:    c.Decoder.ShowZoom,
		DefaultZoom: c.Decoder.DefaultZoom,
	}
}

func (c Config) Namer() domain.NameFunc {
	return domain.PrefixNamer(c.Scan.NamePrefix)
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}
