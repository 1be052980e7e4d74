package skeleton

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxSkeletonFileSize bounds custom skeleton tables read from disk.
const maxSkeletonFileSize = 1 * 1024 * 1024

// ParseSkeleton decodes a skeleton table from YAML:
//
//	name: custom
//	bones:
//	  - {name: thigh.L, head: left_hip, tail: left_knee}
//	hierarchy:
//	  left_hip: [left_knee]
//
// Unknown keys are rejected.
func ParseSkeleton(r io.Reader) (Skeleton, error) {
	var s Skeleton
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Skeleton{}, fmt.Errorf("failed to parse skeleton YAML: %w", err)
	}
	if len(s.Definitions) == 0 {
		return Skeleton{}, fmt.Errorf("skeleton %q defines no bones", s.Name)
	}
	if s.Hierarchy == nil {
		s.Hierarchy = make(Hierarchy)
	}
	if err := s.checkTable(); err != nil {
		return Skeleton{}, err
	}
	return s, nil
}

// LoadSkeleton reads a skeleton table from a .yaml/.yml file.
func LoadSkeleton(path string) (Skeleton, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return Skeleton{}, fmt.Errorf("skeleton file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Skeleton{}, fmt.Errorf("failed to stat skeleton file: %w", err)
	}
	if info.Size() > maxSkeletonFileSize {
		return Skeleton{}, fmt.Errorf("skeleton file too large: %d bytes (max %d)", info.Size(), maxSkeletonFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return Skeleton{}, fmt.Errorf("failed to open skeleton file: %w", err)
	}
	defer f.Close()

	s, err := ParseSkeleton(f)
	if err != nil {
		return Skeleton{}, fmt.Errorf("%s: %w", cleanPath, err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(cleanPath)
	}
	return s, nil
}

// Resolve returns a built-in skeleton by name or loads one from a YAML path.
func Resolve(nameOrPath string) (Skeleton, error) {
	if s, ok := Builtin(nameOrPath); ok {
		return s, nil
	}
	return LoadSkeleton(nameOrPath)
}

// MarshalYAML renders s in the format ParseSkeleton accepts.
func MarshalYAML(s Skeleton) ([]byte, error) {
	return yaml.Marshal(s)
}
