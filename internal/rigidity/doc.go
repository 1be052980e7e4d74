// Package rigidity turns noisy marker trajectories into a rigid skeleton.
//
// Responsibilities: per-bone length statistics, rigid length enforcement
// with hierarchical propagation, anthropometric body dimensions, and
// selection of a calibration ("good") frame.
// Key types: Statistics, Enforcer, Pipeline, BodyDimensions, GoodFrameOptions.
//
// Everything here is synchronous and deterministic: identical inputs give
// bit-identical outputs. Inputs are never mutated; enforcement works on a
// copy of the trajectory set.
//
// Dependency rule: rigidity depends on skeleton, trajectory, config and
// monitoring.
// No file or database access is allowed in this package.
package rigidity
