package rigidity

import (
	"github.com/banshee-data/mocap.rigidity/internal/config"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
)

// EnforcerConfigFromRig builds an EnforcerConfig from a rig configuration.
func EnforcerConfigFromRig(c *config.RigConfig) EnforcerConfig {
	return EnforcerConfig{
		Epsilon: c.GetZeroLengthEpsilon(),
		Strict:  c.GetStrictStatistics(),
	}
}

// AnthropometryFromRig builds the dimension corrections from a rig
// configuration.
func AnthropometryFromRig(c *config.RigConfig) Anthropometry {
	return Anthropometry{
		LegAnkleCorrection:       c.GetLegAnkleCorrection(),
		HeightHalfHeadCorrection: c.GetHeightHalfHeadCorrection(),
		HeelAngleCorrection:      c.GetHeelAngleCorrection(),
	}
}

// GoodFrameOptionsFromRig builds good-frame selection options from a rig
// configuration.
func GoodFrameOptionsFromRig(c *config.RigConfig) GoodFrameOptions {
	return GoodFrameOptions{
		VelocityPercentile: c.GetVelocityPercentile(),
		IgnoreFirstFrames:  c.GetIgnoreFirstFrames(),
		NoiseFloor:         c.GetVelocityNoiseFloor(),
	}
}

// PipelineConfigFromRig combines a rig configuration with the skeleton it
// names. Resolving the skeleton (built-in or YAML file) is left to the
// caller.
func PipelineConfigFromRig(c *config.RigConfig, skel skeleton.Skeleton) PipelineConfig {
	return PipelineConfig{
		Skeleton:          skel,
		RedirectHandTails: c.GetRedirectHandTails(),
		Enforcer:          EnforcerConfigFromRig(c),
		Anthropometry:     AnthropometryFromRig(c),
	}
}
