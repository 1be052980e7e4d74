package rigidity

import (
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
)

// Anthropometric corrections that turn partial skeletal measurements into
// whole-body metrics. Values follow the segment-length proportions of
// Drillis & Contini (1966) as tabulated in Winter, "Biomechanics and Motor
// Control of Human Movement".
const (
	// DefaultLegAnkleCorrection adds the ankle-to-floor height (about 3.9%
	// of stature, roughly 7.9% of hip-to-ankle length) to a thigh+shin sum.
	DefaultLegAnkleCorrection = 1.079

	// DefaultHeightHalfHeadCorrection adds the part of the head above the
	// head-center marker (half a head, about 6% of the remaining chain).
	DefaultHeightHalfHeadCorrection = 1.064

	// DefaultHeelAngleCorrection projects the ankle-to-heel segment onto the
	// foot's long axis; the heel marker sits behind and below the ankle.
	DefaultHeelAngleCorrection = 0.7
)

// Anthropometry holds the correction ratios used by EstimateBodyDimensions.
type Anthropometry struct {
	LegAnkleCorrection       float64
	HeightHalfHeadCorrection float64
	HeelAngleCorrection      float64
}

// DefaultAnthropometry returns the literature values.
func DefaultAnthropometry() Anthropometry {
	return Anthropometry{
		LegAnkleCorrection:       DefaultLegAnkleCorrection,
		HeightHalfHeadCorrection: DefaultHeightHalfHeadCorrection,
		HeelAngleCorrection:      DefaultHeelAngleCorrection,
	}
}

// DimensionBones names the bones each measurement is built from. Sided
// names are base names; the skeleton's side suffixes (".L", ".R") are
// appended.
type DimensionBones struct {
	Spine      string
	SpineUpper string
	Neck       string

	Thigh string
	Shin  string
	Foot  string
	Heel  string

	Shoulder  string
	UpperArm  string
	Forearm   string
	HandChain []string
}

// DefaultDimensionBones matches skeleton.BodySkeleton, where the hand is a
// single bone.
func DefaultDimensionBones() DimensionBones {
	return DimensionBones{
		Spine:      "spine",
		SpineUpper: "spine.001",
		Neck:       "neck",
		Thigh:      "thigh",
		Shin:       "shin",
		Foot:       "foot",
		Heel:       "heel.02",
		Shoulder:   "shoulder",
		UpperArm:   "upper_arm",
		Forearm:    "forearm",
		HandChain:  []string{"hand"},
	}
}

// DimensionBonesFor picks the hand chain that fits skel: the wrist to
// middle-fingertip chain when the skeleton has finger bones, otherwise the
// single hand bone.
func DimensionBonesFor(skel skeleton.Skeleton) DimensionBones {
	d := DefaultDimensionBones()
	for _, side := range skeleton.Sides {
		for _, b := range skeleton.MiddleFingerChain {
			if _, _, ok := skel.Definitions.Lookup(side.Bone(b)); !ok {
				return d
			}
		}
	}
	d.HandChain = append([]string(nil), skeleton.MiddleFingerChain...)
	return d
}

// BodyDimensions are whole-body size metrics in meters.
type BodyDimensions struct {
	TotalHeight    float64 `json:"total_height"`
	TotalWingspan  float64 `json:"total_wingspan"`
	MeanLegLength  float64 `json:"mean_leg_length"`
	MeanFootLength float64 `json:"mean_foot_length"`
}

// medianLookup resolves bone medians, remembering every bone it could not
// find so all of them are reported at once.
type medianLookup struct {
	stats   *Statistics
	missing []string
}

func (m *medianLookup) get(bone string) float64 {
	b, ok := m.stats.Get(bone)
	if !ok {
		m.missing = append(m.missing, bone)
		return 0
	}
	return b.Median
}

// EstimateBodyDimensions derives body dimensions from bone medians:
//
//	leg      = (shin + thigh) * LegAnkleCorrection, averaged over sides
//	height   = (leg + spine + spine_upper + neck) * HeightHalfHeadCorrection
//	arm      = sum(hand chain) + forearm + upper_arm + shoulder, per side
//	wingspan = left arm + right arm
//	foot     = foot + heel * HeelAngleCorrection, averaged over sides
//
// If any required bone is absent, a *MissingBonesError lists all of them.
func EstimateBodyDimensions(stats *Statistics, bones DimensionBones, a Anthropometry) (*BodyDimensions, error) {
	m := &medianLookup{stats: stats}

	var legSum, footSum, wingspan float64
	for _, side := range skeleton.Sides {
		legSum += (m.get(side.Bone(bones.Shin)) + m.get(side.Bone(bones.Thigh))) * a.LegAnkleCorrection
		footSum += m.get(side.Bone(bones.Foot)) + m.get(side.Bone(bones.Heel))*a.HeelAngleCorrection

		var hand float64
		for _, b := range bones.HandChain {
			hand += m.get(side.Bone(b))
		}
		wingspan += hand +
			m.get(side.Bone(bones.Forearm)) +
			m.get(side.Bone(bones.UpperArm)) +
			m.get(side.Bone(bones.Shoulder))
	}

	sides := float64(len(skeleton.Sides))
	meanLeg := legSum / sides
	height := (meanLeg + m.get(bones.Spine) + m.get(bones.SpineUpper) + m.get(bones.Neck)) * a.HeightHalfHeadCorrection

	if len(m.missing) > 0 {
		return nil, &MissingBonesError{Bones: m.missing}
	}

	return &BodyDimensions{
		TotalHeight:    height,
		TotalWingspan:  wingspan,
		MeanLegLength:  meanLeg,
		MeanFootLength: footSum / sides,
	}, nil
}
