// Package skeleton owns the static bone model: which marker is the head and
// tail of every bone, and which markers hang off which for propagation.
//
// Responsibilities: bone definition tables, the marker hierarchy,
// per-call overrides, validation of a table against captured markers.
// Key types: BoneDefinition, Definitions, Hierarchy, Skeleton.
//
// Tables handed out by this package are values owned by the caller.
// Overrides always return fresh copies so repeated or concurrent runs never
// observe each other's redirections.
//
// Dependency rule: skeleton depends on nothing else in this module.
package skeleton
