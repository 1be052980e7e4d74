package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/mocap.rigidity/internal/units"
)

// DefaultConfigPath is the path to the canonical rig defaults file.
const DefaultConfigPath = "config/rig.defaults.json"

// RigConfig is the root configuration for skeleton normalisation. Every
// field is optional; the Get* accessors supply defaults for omitted ones.
type RigConfig struct {
	// Skeleton table: "body", "full" or a path to a YAML table.
	Skeleton          *string `json:"skeleton,omitempty"`
	InputUnits        *string `json:"input_units,omitempty"`
	RedirectHandTails *bool   `json:"redirect_hand_tails,omitempty"`

	// Enforcement
	StrictStatistics  *bool    `json:"strict_statistics,omitempty"`
	ZeroLengthEpsilon *float64 `json:"zero_length_epsilon,omitempty"`

	// Good-frame selection
	VelocityPercentile *float64 `json:"velocity_percentile,omitempty"`
	IgnoreFirstFrames  *int     `json:"ignore_first_frames,omitempty"`
	VelocityNoiseFloor *float64 `json:"velocity_noise_floor,omitempty"`

	// Anthropometric corrections
	LegAnkleCorrection       *float64 `json:"leg_ankle_correction,omitempty"`
	HeightHalfHeadCorrection *float64 `json:"height_half_head_correction,omitempty"`
	HeelAngleCorrection      *float64 `json:"heel_angle_correction,omitempty"`
}

// EmptyRigConfig returns a RigConfig with all fields set to nil.
func EmptyRigConfig() *RigConfig {
	return &RigConfig{}
}

// LoadRigConfig loads a RigConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file fall back to the accessor defaults.
func LoadRigConfig(path string) (*RigConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRigConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repo root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *RigConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRigConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RigConfig) Validate() error {
	if c.InputUnits != nil && !units.IsValid(*c.InputUnits) {
		return fmt.Errorf("input_units must be one of %s, got %q", units.GetValidUnitsString(), *c.InputUnits)
	}
	if c.Skeleton != nil && *c.Skeleton == "" {
		return fmt.Errorf("skeleton must not be empty")
	}
	if c.ZeroLengthEpsilon != nil && *c.ZeroLengthEpsilon <= 0 {
		return fmt.Errorf("zero_length_epsilon must be positive, got %g", *c.ZeroLengthEpsilon)
	}
	if c.VelocityPercentile != nil {
		if *c.VelocityPercentile < 0 || *c.VelocityPercentile > 100 {
			return fmt.Errorf("velocity_percentile must be between 0 and 100, got %g", *c.VelocityPercentile)
		}
	}
	if c.IgnoreFirstFrames != nil && *c.IgnoreFirstFrames < 0 {
		return fmt.Errorf("ignore_first_frames must be non-negative, got %d", *c.IgnoreFirstFrames)
	}
	if c.VelocityNoiseFloor != nil && *c.VelocityNoiseFloor < 0 {
		return fmt.Errorf("velocity_noise_floor must be non-negative, got %g", *c.VelocityNoiseFloor)
	}
	corrections := []struct {
		name string
		v    *float64
	}{
		{"leg_ankle_correction", c.LegAnkleCorrection},
		{"height_half_head_correction", c.HeightHalfHeadCorrection},
		{"heel_angle_correction", c.HeelAngleCorrection},
	}
	for _, corr := range corrections {
		if corr.v != nil && *corr.v <= 0 {
			return fmt.Errorf("%s must be positive, got %g", corr.name, *corr.v)
		}
	}
	return nil
}

// GetSkeleton returns the skeleton name or path, default "full".
func (c *RigConfig) GetSkeleton() string {
	if c.Skeleton == nil {
		return "full"
	}
	return *c.Skeleton
}

// GetInputUnits returns the trajectory input unit, default millimetres.
func (c *RigConfig) GetInputUnits() string {
	if c.InputUnits == nil {
		return units.Millimeters
	}
	return *c.InputUnits
}

// GetRedirectHandTails returns redirect_hand_tails or the default.
func (c *RigConfig) GetRedirectHandTails() bool {
	if c.RedirectHandTails == nil {
		return true
	}
	return *c.RedirectHandTails
}

// GetStrictStatistics returns strict_statistics or the default.
func (c *RigConfig) GetStrictStatistics() bool {
	if c.StrictStatistics == nil {
		return false
	}
	return *c.StrictStatistics
}

// GetZeroLengthEpsilon returns zero_length_epsilon or the default.
func (c *RigConfig) GetZeroLengthEpsilon() float64 {
	if c.ZeroLengthEpsilon == nil {
		return 1e-4
	}
	return *c.ZeroLengthEpsilon
}

// GetVelocityPercentile returns velocity_percentile or the default.
func (c *RigConfig) GetVelocityPercentile() float64 {
	if c.VelocityPercentile == nil {
		return 10
	}
	return *c.VelocityPercentile
}

// GetIgnoreFirstFrames returns ignore_first_frames or the default.
func (c *RigConfig) GetIgnoreFirstFrames() int {
	if c.IgnoreFirstFrames == nil {
		return 30
	}
	return *c.IgnoreFirstFrames
}

// GetVelocityNoiseFloor returns velocity_noise_floor or the default.
func (c *RigConfig) GetVelocityNoiseFloor() float64 {
	if c.VelocityNoiseFloor == nil {
		return 1e-9
	}
	return *c.VelocityNoiseFloor
}

// GetLegAnkleCorrection returns leg_ankle_correction or the default.
func (c *RigConfig) GetLegAnkleCorrection() float64 {
	if c.LegAnkleCorrection == nil {
		return 1.079
	}
	return *c.LegAnkleCorrection
}

// GetHeightHalfHeadCorrection returns height_half_head_correction or the default.
func (c *RigConfig) GetHeightHalfHeadCorrection() float64 {
	if c.HeightHalfHeadCorrection == nil {
		return 1.064
	}
	return *c.HeightHalfHeadCorrection
}

// GetHeelAngleCorrection returns heel_angle_correction or the default.
func (c *RigConfig) GetHeelAngleCorrection() float64 {
	if c.HeelAngleCorrection == nil {
		return 0.7
	}
	return *c.HeelAngleCorrection
}
