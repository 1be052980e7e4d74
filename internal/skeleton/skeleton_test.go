package skeleton

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markerSet map[string]bool

func (m markerSet) Has(name string) bool { return m[name] }

func allMarkers(s Skeleton) markerSet {
	m := make(markerSet)
	for _, name := range s.Markers() {
		m[name] = true
	}
	return m
}

func TestDefinitionsLookup(t *testing.T) {
	defs := BodySkeleton().Definitions

	head, tail, ok := defs.Lookup("thigh.L")
	require.True(t, ok)
	assert.Equal(t, "left_hip", head)
	assert.Equal(t, "left_knee", tail)

	_, _, ok = defs.Lookup("tail.001")
	assert.False(t, ok)
}

func TestHierarchyChildren(t *testing.T) {
	h := BodySkeleton().Hierarchy
	assert.Equal(t, []string{"left_knee"}, h.Children("left_hip"))
	assert.Empty(t, h.Children("left_foot_index"))
	assert.Empty(t, h.Children("not_a_marker"))
}

func TestHierarchyDescendants_PreOrder(t *testing.T) {
	h := Hierarchy{
		"a": {"b", "e"},
		"b": {"c", "d"},
		"e": {"f"},
	}
	assert.Equal(t, []string{"b", "c", "d", "e", "f"}, h.Descendants("a"))
	assert.Equal(t, []string{"c", "d"}, h.Descendants("b"))
	assert.Empty(t, h.Descendants("f"))
}

func TestHierarchyDescendants_CycleAndSharedChild(t *testing.T) {
	h := Hierarchy{
		"a": {"b", "c"},
		"b": {"d", "a"},
		"c": {"d"},
	}
	assert.Equal(t, []string{"b", "d", "c"}, h.Descendants("a"))
}

func TestBodySkeleton_Descendants(t *testing.T) {
	h := BodySkeleton().Hierarchy
	assert.Equal(t,
		[]string{"left_ankle", "left_heel", "left_foot_index"},
		h.Descendants("left_knee"))
}

func TestBodySkeleton_Valid(t *testing.T) {
	s := BodySkeleton()
	require.NoError(t, s.Validate(allMarkers(s)))
	assert.Len(t, s.Definitions, 22)
}

func TestFullSkeleton_Valid(t *testing.T) {
	s := FullSkeleton()
	require.NoError(t, s.Validate(allMarkers(s)))
	assert.Len(t, s.Definitions, 22+2*20)

	head, tail, ok := s.Definitions.Lookup("f_middle.03.R")
	require.True(t, ok)
	assert.Equal(t, "right_hand_middle_finger_dip", head)
	assert.Equal(t, "right_hand_middle_finger_tip", tail)

	assert.Contains(t, s.Hierarchy.Descendants("right_elbow"), "right_hand_pinky_tip")
}

func TestBuiltinReturnsFreshCopies(t *testing.T) {
	a := BodySkeleton()
	a.Definitions[0].Tail = "mutated"
	a.Hierarchy[HipsCenter][0] = "mutated"

	b := BodySkeleton()
	assert.Equal(t, TrunkCenter, b.Definitions[0].Tail)
	assert.Equal(t, TrunkCenter, b.Hierarchy[HipsCenter][0])
}

func TestValidate_ReportsEveryMissingMarker(t *testing.T) {
	s := Skeleton{
		Definitions: Definitions{
			{Name: "upper", Head: "a", Tail: "b"},
			{Name: "lower", Head: "b", Tail: "c"},
		},
		Hierarchy: Hierarchy{"a": {"b"}, "b": {"c", "d"}},
	}

	err := s.Validate(markerSet{"a": true, "b": true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingMarker))

	var mm *MissingMarkerError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "lower", mm.Bone)
	assert.Equal(t, "c", mm.Marker)

	// "c" is reported once (via its bone), "d" via the hierarchy.
	msg := err.Error()
	assert.Equal(t, 1, strings.Count(msg, `"c"`))
	assert.Contains(t, msg, `marker "d" (child of "b")`)
}

func TestValidate_TableErrors(t *testing.T) {
	tests := []struct {
		name string
		defs Definitions
		want string
	}{
		{"empty name", Definitions{{Head: "a", Tail: "b"}}, "empty name"},
		{"missing tail", Definitions{{Name: "x", Head: "a"}}, "head and tail"},
		{"same marker", Definitions{{Name: "x", Head: "a", Tail: "a"}}, "same marker"},
		{"duplicate", Definitions{{Name: "x", Head: "a", Tail: "b"}, {Name: "x", Head: "b", Tail: "c"}}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Skeleton{Definitions: tt.defs}.Validate(markerSet{"a": true, "b": true, "c": true})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWithOverrides_DoesNotMutateSource(t *testing.T) {
	base := FullSkeleton()
	before := base.Clone()

	out, err := base.WithOverrides(Override{Bone: "hand.L", Tail: "left_hand_middle"})
	require.NoError(t, err)

	_, tail, _ := out.Definitions.Lookup("hand.L")
	assert.Equal(t, "left_hand_middle", tail)
	assert.Contains(t, out.Hierarchy.Children("left_wrist"), "left_hand_middle")

	if diff := cmp.Diff(before, base); diff != "" {
		t.Errorf("source skeleton mutated (-before +after):\n%s", diff)
	}
}

func TestWithOverrides_UnknownBone(t *testing.T) {
	_, err := BodySkeleton().WithOverrides(Override{Bone: "tail.001", Tail: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tail.001")
}

func TestWithOverrides_ExistingChildNotDuplicated(t *testing.T) {
	out, err := BodySkeleton().WithOverrides(Override{Bone: "hand.R", Tail: "right_pinky"})
	require.NoError(t, err)
	assert.Equal(t, []string{"right_index", "right_pinky", "right_thumb"}, out.Hierarchy.Children("right_wrist"))
}

func TestHandMiddleOverrides(t *testing.T) {
	ovs := HandMiddleOverrides(markerSet{"right_hand_middle": true})
	assert.Equal(t, []Override{{Bone: "hand.R", Tail: "right_hand_middle"}}, ovs)

	assert.Empty(t, HandMiddleOverrides(markerSet{}))
}

func TestSuccessiveOverridesAreIndependent(t *testing.T) {
	base := BodySkeleton()

	first, err := base.WithOverrides(HandMiddleOverrides(markerSet{"left_hand_middle": true})...)
	require.NoError(t, err)
	second, err := base.WithOverrides()
	require.NoError(t, err)

	_, tail1, _ := first.Definitions.Lookup("hand.L")
	_, tail2, _ := second.Definitions.Lookup("hand.L")
	assert.Equal(t, "left_hand_middle", tail1)
	assert.Equal(t, "left_index", tail2)
}

func TestParseSkeleton(t *testing.T) {
	src := `
name: arm
bones:
  - {name: upper_arm, head: shoulder, tail: elbow}
  - {name: forearm, head: elbow, tail: wrist}
hierarchy:
  shoulder: [elbow]
  elbow: [wrist]
`
	s, err := ParseSkeleton(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "arm", s.Name)
	assert.Equal(t, []string{"upper_arm", "forearm"}, s.Definitions.Names())
	assert.Equal(t, []string{"elbow", "wrist"}, s.Hierarchy.Descendants("shoulder"))
}

func TestParseSkeleton_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key": "bones: [{name: a, head: x, tail: y}]\nextra: 1\n",
		"no bones":    "name: empty\n",
		"duplicate":   "bones: [{name: a, head: x, tail: y}, {name: a, head: y, tail: z}]\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSkeleton(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadSkeleton_RoundTrip(t *testing.T) {
	data, err := MarshalYAML(FullSkeleton())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "full.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	s, err := LoadSkeleton(path)
	require.NoError(t, err)
	if diff := cmp.Diff(FullSkeleton(), s); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSkeleton_BadExtension(t *testing.T) {
	_, err := LoadSkeleton("skeleton.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extension")
}

func TestResolve(t *testing.T) {
	s, err := Resolve("body")
	require.NoError(t, err)
	assert.Equal(t, "body", s.Name)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
