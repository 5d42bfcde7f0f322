package config

import (
	"fmt"

	"github.com/networkteam/storefront-e2e/fixture"
)

// FixtureName is the worker fixture holding the Config.
const FixtureName = "config"

// Register validates cfg and defines it as worker fixture.
func Register(reg *fixture.Registry, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return reg.Define(FixtureName, fixture.ScopeWorker, nil, fixture.Value(cfg))
}
