// Package config defines the autosteer configuration and how it is read.
package config

import (
	"runtime"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/autosteer/field"
	"go.viam.com/autosteer/logging"
)

// AttributeMap is a loosely typed configuration as decoded from JSON.
type AttributeMap map[string]interface{}

// A Config describes the configuration of the guidance engine.
type Config struct {
	ConfigFilePath string `json:"-"`

	Guidance Guidance `json:"guidance"`
	Turn     Turn     `json:"turn"`
	Field    Field    `json:"field"`
	Jobs     Jobs     `json:"jobs"`
	Log      Log      `json:"log"`
}

// Guidance configures pass construction.
type Guidance struct {
	ImplementWidth float64 `json:"implement_width"`
	PathsInReserve int     `json:"paths_in_reserve"`
	// MaxRetainedPasses evicts passes further than this from the vehicle. Zero keeps every pass.
	MaxRetainedPasses int `json:"max_retained_passes"`
	// MaxDeviation bounds how far simplification of a recorded path may move it, in meters.
	MaxDeviation float64 `json:"max_deviation"`
	// SimplifyThreshold is the number of recorded points above which a recording is simplified.
	SimplifyThreshold int     `json:"simplify_threshold"`
	MinPointDistance  float64 `json:"min_point_distance"`
	AnyDirection      bool    `json:"any_direction"`
}

// Turn configures turn synthesis.
type Turn struct {
	Radius     float64 `json:"radius"`
	SampleStep float64 `json:"sample_step"`
	SkipLeft   int     `json:"skip_left"`
	SkipRight  int     `json:"skip_right"`
}

// Field configures boundary extraction.
type Field struct {
	AlphaMode         field.AlphaMode `json:"alpha_mode"`
	CustomAlpha       float64         `json:"custom_alpha"`
	MaxDeviation      float64         `json:"max_deviation"`
	DensifyGap        float64         `json:"densify_gap"`
	AutoDensifyFactor float64         `json:"auto_densify_factor"`
}

// Jobs configures the background job runner.
type Jobs struct {
	Workers int `json:"workers"`
}

// Log configures logging.
type Log struct {
	Level logging.Level `json:"level"`
}

// Default returns the configuration used for anything a file leaves out.
func Default() Config {
	return Config{
		Guidance: Guidance{
			ImplementWidth:    6,
			PathsInReserve:    3,
			MaxDeviation:      0.1,
			SimplifyThreshold: 250,
			MinPointDistance:  0.5,
		},
		Turn: Turn{
			Radius:     6,
			SampleStep: 0.1,
			SkipLeft:   1,
			SkipRight:  1,
		},
		Field: Field{
			AlphaMode:    field.AlphaOptimal,
			MaxDeviation: 0.2,
		},
		Jobs: Jobs{Workers: runtime.GOMAXPROCS(0)},
		Log:  Log{Level: logging.INFO},
	}
}

// Options returns the extraction options described by the config.
func (f Field) Options() field.Options {
	return field.Options{
		AlphaMode:         f.AlphaMode,
		CustomAlpha:       f.CustomAlpha,
		MaxDeviation:      f.MaxDeviation,
		DensifyGap:        f.DensifyGap,
		AutoDensifyFactor: f.AutoDensifyFactor,
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if err := c.Guidance.Validate(join(path, "guidance")); err != nil {
		return err
	}
	if err := c.Turn.Validate(join(path, "turn")); err != nil {
		return err
	}
	if err := c.Field.Validate(join(path, "field")); err != nil {
		return err
	}
	if c.Jobs.Workers < 1 {
		return utils.NewConfigValidationError(join(path, "jobs"), errors.New("workers must be at least 1"))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (g *Guidance) Validate(path string) error {
	if g.ImplementWidth == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "implement_width")
	}
	if g.ImplementWidth < 0 {
		return utils.NewConfigValidationError(path, errors.New("implement_width must be positive"))
	}
	if g.PathsInReserve < 1 {
		return utils.NewConfigValidationError(path, errors.New("paths_in_reserve must be at least 1"))
	}
	if g.MaxRetainedPasses != 0 && g.MaxRetainedPasses < g.PathsInReserve {
		return utils.NewConfigValidationError(path,
			errors.Errorf("max_retained_passes (%d) must not be below paths_in_reserve (%d)", g.MaxRetainedPasses, g.PathsInReserve))
	}
	if g.MaxDeviation < 0 || g.MinPointDistance < 0 || g.SimplifyThreshold < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_deviation, min_point_distance and simplify_threshold cannot be negative"))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (t *Turn) Validate(path string) error {
	if t.Radius == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "radius")
	}
	if t.Radius < 0 {
		return utils.NewConfigValidationError(path, errors.New("radius must be positive"))
	}
	if t.SkipLeft < 1 || t.SkipRight < 1 {
		return utils.NewConfigValidationError(path, errors.New("skip_left and skip_right must be at least 1"))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (f *Field) Validate(path string) error {
	switch f.AlphaMode {
	case field.AlphaOptimal, field.AlphaSolid:
	case field.AlphaCustom:
		if f.CustomAlpha <= 0 {
			return utils.NewConfigValidationError(path, errors.New("custom_alpha must be positive with alpha_mode custom"))
		}
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "alpha_mode")
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown alpha_mode %q", f.AlphaMode))
	}
	if f.MaxDeviation < 0 || f.DensifyGap < 0 || f.AutoDensifyFactor < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_deviation, densify_gap and auto_densify_factor cannot be negative"))
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
