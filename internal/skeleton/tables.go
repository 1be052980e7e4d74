package skeleton

// Side is one half of a bilaterally symmetric skeleton.
type Side struct {
	Prefix string // marker prefix, e.g. "left"
	Suffix string // bone suffix, e.g. "L"
}

// Sides lists left before right; every table is generated in this order.
var Sides = []Side{
	{Prefix: "left", Suffix: "L"},
	{Prefix: "right", Suffix: "R"},
}

// Marker returns the side-qualified marker name, e.g. "left_knee".
func (s Side) Marker(name string) string { return s.Prefix + "_" + name }

// Bone returns the side-qualified bone name, e.g. "thigh.L".
func (s Side) Bone(name string) string { return name + "." + s.Suffix }

// Axial markers shared by both sides.
const (
	HipsCenter  = "hips_center"
	TrunkCenter = "trunk_center"
	NeckCenter  = "neck_center"
	HeadCenter  = "head_center"
	Nose        = "nose"
)

// BodySkeleton returns the body-only table: pelvis, spine, neck, head and
// both arms and legs. Each call returns a fresh value.
func BodySkeleton() Skeleton {
	defs := Definitions{
		{Name: "spine", Head: HipsCenter, Tail: TrunkCenter},
		{Name: "spine.001", Head: TrunkCenter, Tail: NeckCenter},
		{Name: "neck", Head: NeckCenter, Tail: HeadCenter},
		{Name: "head_nose", Head: HeadCenter, Tail: Nose},
	}
	h := Hierarchy{
		HipsCenter:  {TrunkCenter},
		TrunkCenter: {NeckCenter},
		NeckCenter:  {HeadCenter},
		HeadCenter:  {Nose},
	}

	for _, s := range Sides {
		hip, knee, ankle := s.Marker("hip"), s.Marker("knee"), s.Marker("ankle")
		shoulder, elbow, wrist := s.Marker("shoulder"), s.Marker("elbow"), s.Marker("wrist")

		defs = append(defs,
			BoneDefinition{Name: s.Bone("pelvis"), Head: HipsCenter, Tail: hip},
			BoneDefinition{Name: s.Bone("thigh"), Head: hip, Tail: knee},
			BoneDefinition{Name: s.Bone("shin"), Head: knee, Tail: ankle},
			BoneDefinition{Name: s.Bone("foot"), Head: ankle, Tail: s.Marker("foot_index")},
			BoneDefinition{Name: s.Bone("heel.02"), Head: ankle, Tail: s.Marker("heel")},
			BoneDefinition{Name: s.Bone("shoulder"), Head: NeckCenter, Tail: shoulder},
			BoneDefinition{Name: s.Bone("upper_arm"), Head: shoulder, Tail: elbow},
			BoneDefinition{Name: s.Bone("forearm"), Head: elbow, Tail: wrist},
			BoneDefinition{Name: s.Bone("hand"), Head: wrist, Tail: s.Marker("index")},
		)

		h[HipsCenter] = append(h[HipsCenter], hip)
		h[hip] = []string{knee}
		h[knee] = []string{ankle}
		h[ankle] = []string{s.Marker("heel"), s.Marker("foot_index")}
		h[NeckCenter] = append(h[NeckCenter], shoulder)
		h[shoulder] = []string{elbow}
		h[elbow] = []string{wrist}
		h[wrist] = []string{s.Marker("index"), s.Marker("pinky"), s.Marker("thumb")}
	}

	return Skeleton{Name: "body", Definitions: defs, Hierarchy: h}
}

// fingers lists each digit's joint chain from the hand-wrist marker outwards,
// together with the bone names used for its segments.
var fingers = []struct {
	joints []string
	bones  []string
}{
	{
		joints: []string{"thumb_cmc", "thumb_mcp", "thumb_ip", "thumb_tip"},
		bones:  []string{"thumb.carpal", "thumb.01", "thumb.02", "thumb.03"},
	},
	{
		joints: []string{"index_finger_mcp", "index_finger_pip", "index_finger_dip", "index_finger_tip"},
		bones:  []string{"palm.01", "f_index.01", "f_index.02", "f_index.03"},
	},
	{
		joints: []string{"middle_finger_mcp", "middle_finger_pip", "middle_finger_dip", "middle_finger_tip"},
		bones:  []string{"palm.02", "f_middle.01", "f_middle.02", "f_middle.03"},
	},
	{
		joints: []string{"ring_finger_mcp", "ring_finger_pip", "ring_finger_dip", "ring_finger_tip"},
		bones:  []string{"palm.03", "f_ring.01", "f_ring.02", "f_ring.03"},
	},
	{
		joints: []string{"pinky_mcp", "pinky_pip", "pinky_dip", "pinky_tip"},
		bones:  []string{"palm.04", "f_pinky.01", "f_pinky.02", "f_pinky.03"},
	},
}

// MiddleFingerChain is the per-side bone chain from the hand-wrist marker to
// the middle fingertip in FullSkeleton.
var MiddleFingerChain = []string{"palm.02", "f_middle.01", "f_middle.02", "f_middle.03"}

// FullSkeleton returns BodySkeleton extended with both hands. The hand
// model's own wrist marker ("<side>_hand_wrist") hangs off the body wrist.
func FullSkeleton() Skeleton {
	s := BodySkeleton()
	s.Name = "full"

	for _, side := range Sides {
		wrist := side.Marker("wrist")
		handWrist := side.Marker("hand_wrist")
		s.Hierarchy[wrist] = append(s.Hierarchy[wrist], handWrist)

		for _, f := range fingers {
			prev := handWrist
			for i, j := range f.joints {
				marker := side.Marker("hand_" + j)
				s.Definitions = append(s.Definitions, BoneDefinition{
					Name: side.Bone(f.bones[i]),
					Head: prev,
					Tail: marker,
				})
				s.Hierarchy[prev] = append(s.Hierarchy[prev], marker)
				prev = marker
			}
		}
	}
	return s
}

// Builtin returns the named built-in skeleton ("body" or "full").
func Builtin(name string) (Skeleton, bool) {
	switch name {
	case "body":
		return BodySkeleton(), true
	case "full":
		return FullSkeleton(), true
	default:
		return Skeleton{}, false
	}
}
