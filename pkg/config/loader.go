package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/shadabshaukat/searchd/engine/core"
)

const envPrefix = "SEARCHD_"

// sections are the known top-level config groups; the env key transform
// needs them to know where the section name ends and the field begins.
var sections = []string{"server", "database", "embedder", "llm", "search", "log"}

// Load builds the configuration from defaults and SEARCHD_* environment
// variables, then validates it.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: loading defaults: %w", core.ErrInvalidConfig, err)
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, envPrefix)), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: loading environment: %w", core.ErrInvalidConfig, err)
	}
	cfg := &Config{}
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", core.ErrInvalidConfig, err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// transformEnvKey maps SEARCHD_SEARCH_CHUNK_SIZE (already stripped of the
// prefix) to search.chunk_size. The first segment matching a known section
// becomes the map key; the remainder joins with underscores.
func transformEnvKey(key string) string {
	lower := strings.ToLower(key)
	for _, section := range sections {
		if lower == section {
			return section
		}
		if strings.HasPrefix(lower, section+"_") {
			return section + "." + strings.TrimPrefix(lower, section+"_")
		}
	}
	return lower
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if ok := errors.As(err, &verrs); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf(
				"%w: field %s failed %q validation",
				core.ErrInvalidConfig, first.Namespace(), first.Tag(),
			)
		}
		return fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	return nil
}
