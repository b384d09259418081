// Package config resolves the compile-time capacity limits lang/lower and
// lang/assembler enforce: the maximum number of event conditions a single
// EVNT/COND group may declare, the number of CUWP slots available for
// UPROPSTART groups, and the trigger chunk's capacity. These are properties
// of the host engine (or the mod running on top of it), not of umscript
// itself, so they are configurable rather than hardcoded: a default,
// overridable by an optional YAML file, overridable in turn by
// UMSCRIPT_-prefixed environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/umscript/lang/lower"
	"gopkg.in/yaml.v3"
)

// envPrefix matches internal/maincmd's own UMSCRIPT_ environment prefix.
const envPrefix = "UMSCRIPT_"

// Limits is the YAML/env-overridable view of lower.Limits, plus the
// trigger-chunk capacity lang/chk enforces independently of lowering.
type Limits struct {
	MaxEventConditions int `yaml:"maxEventConditions" env:"MAX_EVENT_CONDITIONS"`
	MaxCUWPSlots       int `yaml:"maxCUWPSlots" env:"MAX_CUWP_SLOTS"`
	MaxTriggers        int `yaml:"maxTriggers" env:"MAX_TRIGGERS"`
}

// Default mirrors lower.DefaultLimits, plus a generous trigger chunk
// capacity equal to the host engine's documented per-map ceiling.
var Default = Limits{
	MaxEventConditions: lower.DefaultLimits.MaxEventConditions,
	MaxCUWPSlots:       lower.DefaultLimits.MaxCUWPSlots,
	MaxTriggers:        2048,
}

// Load resolves Limits starting from Default, applying path's YAML contents
// (if path is non-empty) and then UMSCRIPT_-prefixed environment variables,
// in that precedence order: defaults < YAML < env.
func Load(path string) (Limits, error) {
	lim := Default

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Limits{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &lim); err != nil {
			return Limits{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&lim, env.Options{Prefix: envPrefix}); err != nil {
		return Limits{}, fmt.Errorf("config: parse environment: %w", err)
	}

	if lim.MaxEventConditions <= 0 || lim.MaxCUWPSlots <= 0 || lim.MaxTriggers <= 0 {
		return Limits{}, fmt.Errorf("config: all limits must be positive, got %+v", lim)
	}
	return lim, nil
}

// LowerLimits projects Limits down to the subset lower.Lowerer consumes.
func (l Limits) LowerLimits() lower.Limits {
	return lower.Limits{
		MaxEventConditions: l.MaxEventConditions,
		MaxCUWPSlots:       l.MaxCUWPSlots,
	}
}
