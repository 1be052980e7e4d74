package rigidity

import (
	"fmt"

	"github.com/banshee-data/mocap.rigidity/internal/monitoring"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

// PipelineConfig configures a full normalisation run.
type PipelineConfig struct {
	Skeleton skeleton.Skeleton

	// RedirectHandTails applies skeleton.HandMiddleOverrides to a private
	// copy of Skeleton when the trajectory set carries hand-middle markers.
	RedirectHandTails bool

	Enforcer      EnforcerConfig
	Anthropometry Anthropometry
}

// Report is the result of a normalisation run.
type Report struct {
	// Skeleton is the table actually used, overrides applied.
	Skeleton skeleton.Skeleton

	*EnforceResult

	// Dimensions is nil when DimensionsErr is set. A skeleton without the
	// bones dimension estimation needs still normalises.
	Dimensions    *BodyDimensions
	DimensionsErr error
}

// Pipeline runs enforcement followed by body dimension estimation.
type Pipeline struct {
	cfg      PipelineConfig
	enforcer *Enforcer
}

// NewPipeline returns a Pipeline for cfg. cfg.Skeleton is copied and never
// modified by runs.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	cfg.Skeleton = cfg.Skeleton.Clone()
	return &Pipeline{cfg: cfg, enforcer: NewEnforcer(cfg.Enforcer)}
}

// Run normalises set and estimates body dimensions from the corrected
// statistics. set is not modified.
func (p *Pipeline) Run(set *trajectory.Set) (*Report, error) {
	skel := p.cfg.Skeleton
	if p.cfg.RedirectHandTails {
		if overrides := applicable(skel, skeleton.HandMiddleOverrides(set)); len(overrides) > 0 {
			var err error
			skel, err = skel.WithOverrides(overrides...)
			if err != nil {
				return nil, fmt.Errorf("apply hand overrides: %w", err)
			}
			monitoring.Debugf("rigidity: redirected %d hand bones to middle markers", len(overrides))
		}
	}

	res, err := p.enforcer.Enforce(set, skel)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("rigidity: bone statistics before/after enforcement\n%s", FormatComparison(res.Before, res.After))

	rep := &Report{Skeleton: skel, EnforceResult: res}
	rep.Dimensions, rep.DimensionsErr = EstimateBodyDimensions(res.After, DimensionBonesFor(skel), p.cfg.Anthropometry)
	if rep.DimensionsErr != nil {
		monitoring.Logf("rigidity: body dimensions unavailable: %v", rep.DimensionsErr)
	}
	return rep, nil
}

// applicable drops overrides for bones skel does not define.
func applicable(skel skeleton.Skeleton, overrides []skeleton.Override) []skeleton.Override {
	var out []skeleton.Override
	for _, o := range overrides {
		if _, _, ok := skel.Definitions.Lookup(o.Bone); ok {
			out = append(out, o)
		}
	}
	return out
}
