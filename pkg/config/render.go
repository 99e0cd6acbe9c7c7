package config

import (
	"github.com/arthur-debert/nixroots/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

// Render encodes the effective configuration as TOML
func Render(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode configuration")
	}
	return out, nil
}
