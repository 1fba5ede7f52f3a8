package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"memento/pkg/colorutil"
)

// EnvPrefix prefixes every environment override, e.g. MEMENTO_PAGE_WIDTH.
const EnvPrefix = "MEMENTO"

// SetDefaults installs the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("page.width", 1060.30)
	v.SetDefault("page.height", 583.31)
	v.SetDefault("page.background", "#FFFFFF")

	v.SetDefault("tools.line_width_min", 1.0)
	v.SetDefault("tools.line_width_max", 40.0)
	v.SetDefault("tools.line_width", 5.0)
	v.SetDefault("tools.pen_color", "#000000")
	v.SetDefault("tools.font_size_min", 10.0)
	v.SetDefault("tools.font_size_max", 60.0)
	v.SetDefault("tools.font_size", 16.0)
	v.SetDefault("tools.font_size_step", 1.0)
	v.SetDefault("tools.text_color", "#000000")
	v.SetDefault("tools.handle_size", 16.0)
	v.SetDefault("tools.min_visual_width", 50.0)
	v.SetDefault("tools.text_min_width", 100.0)
	v.SetDefault("tools.text_min_height", 60.0)
	v.SetDefault("tools.text_anchor_x", 50.0)
	v.SetDefault("tools.text_anchor_y", 50.0)
	v.SetDefault("tools.text_width", 200.0)
	v.SetDefault("tools.image_anchor_x", 100.0)
	v.SetDefault("tools.image_anchor_y", 100.0)
	v.SetDefault("tools.image_size", 150.0)
	v.SetDefault("tools.sticker_area_x", 50.0)
	v.SetDefault("tools.sticker_area_y", 50.0)
	v.SetDefault("tools.sticker_area_width", 400.0)
	v.SetDefault("tools.sticker_area_height", 200.0)

	v.SetDefault("export.scale", 1.0)
	v.SetDefault("export.settle_delay", "50ms")

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.base_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. When path is empty, memento.{yaml,toml,json} is
// looked up in the working directory and its absence is not an error.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("memento")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return decode(v)
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and cross-field constraints.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		_, err := colorutil.ParseHex(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register validation: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	t := cfg.Tools
	if t.LineWidth < t.LineWidthMin || t.LineWidth > t.LineWidthMax {
		return fmt.Errorf("configuration validation failed: tools.line_width %v outside [%v, %v]", t.LineWidth, t.LineWidthMin, t.LineWidthMax)
	}
	if t.FontSize < t.FontSizeMin || t.FontSize > t.FontSizeMax {
		return fmt.Errorf("configuration validation failed: tools.font_size %v outside [%v, %v]", t.FontSize, t.FontSizeMin, t.FontSizeMax)
	}
	return nil
}
