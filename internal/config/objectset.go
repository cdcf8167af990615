package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// settingsKey is the reserved top-level key of an object-set file.
const settingsKey = "settings"

// DefaultMeshPath is the mesh file template; {path} and {file} are substituted.
const DefaultMeshPath = "models/{path}/{file}.STL"

// ObjectSet is a parsed object-set file: global settings plus shape entries
// in file order.
type ObjectSet struct {
	Settings Settings
	Entries  []Entry

	// Hash is the digest of the file text, set by LoadObjectSet.
	Hash string
}

// Entry is one named shape specification.
type Entry struct {
	Key  string
	Spec ShapeSpec
}

// Settings are the object-set wide generation settings.
type Settings struct {
	ObjectDensities  []float64 `yaml:"object_densities"`
	FrictionScalings []float64 `yaml:"friction_scalings"`
	RandomDensity    bool      `yaml:"random_density"`
	RandomFriction   bool      `yaml:"random_friction"`
	FixedRandomSeed  int64     `yaml:"fixed_random_seed"`

	// MaximumMassGrams of zero (or absent) leaves masses unbounded.
	MaximumMassGrams float64 `yaml:"maximum_mass_grams"`

	GroundXYSize float64 `yaml:"ground_xy_size"`
	MeshPath     string  `yaml:"mesh_path"`
}

// ShapeSpec declares one family of generated objects.
type ShapeSpec struct {
	NameRoot string       `yaml:"name_root"`
	Suffix   string       `yaml:"suffix"`
	Path     string       `yaml:"path"`
	Include  bool         `yaml:"include"`
	Spawn    SpawnSpec    `yaml:"spawn"`
	Scale    ScaleSpec    `yaml:"scale"`
	Inertial InertialSpec `yaml:"inertial"`
	Fillet   FilletSpec   `yaml:"fillet"`
	Quat     QuatSpec     `yaml:"quat"`
}

// SpawnSpec gives the axis that ends up vertical and the rest height at scale 1.
type SpawnSpec struct {
	Axis string  `yaml:"axis"`
	Rest float64 `yaml:"rest"`
}

// ScaleSpec interpolates Num mesh scales between Min and Max.
type ScaleSpec struct {
	Num int `yaml:"num"`
	Min XYZ `yaml:"min"`
	Max XYZ `yaml:"max"`
}

// XYZ is a per-axis triple as written in YAML.
type XYZ struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec converts to a mathgl vector.
func (v XYZ) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// InertialSpec holds the kind and its base dimensions. Which fields are read
// depends on Type: cuboid x/y/z, sphere r, cylinder r/h, ellipsoid a/b/c.
type InertialSpec struct {
	Type  string  `yaml:"type"`
	Align Align   `yaml:"align"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	R     float64 `yaml:"r"`
	H     float64 `yaml:"h"`
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
	C     float64 `yaml:"c"`
}

// FilletSpec enumerates fillet-radius mesh variants.
type FilletSpec struct {
	Used bool    `yaml:"used"`
	Step float64 `yaml:"step"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Values returns every fillet value in [Min, Max] with the configured step.
func (f FilletSpec) Values() []float64 {
	if !f.Used || f.Step <= 0 {
		return nil
	}
	// Small slack so 0.1-style steps do not lose the last value to rounding
	n := int((f.Max-f.Min)/f.Step+1e-9) + 1
	values := make([]float64, n)
	for j := range values {
		values[j] = f.Min + float64(j)*f.Step
	}
	return values
}

// QuatSpec is a mesh orientation quaternion.
type QuatSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
	W float64 `yaml:"w"`
}

// Quat converts to a mathgl quaternion. An all-zero spec is the identity.
func (q QuatSpec) Quat() mgl64.Quat {
	if q == (QuatSpec{}) {
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

// Align maps local axes onto principal shape axes: Align[0] is the scale axis
// applied to the shape's first dimension, and so on.
type Align [3]int

// IdentityAlign is x->x, y->y, z->z.
var IdentityAlign = Align{0, 1, 2}

// ParseAlign parses "xyz"-style strings.
func ParseAlign(s string) (Align, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 3 {
		return Align{}, fmt.Errorf("%w: %q", ErrInvalidAlign, s)
	}
	return alignFrom([]string{s[0:1], s[1:2], s[2:3]})
}

func alignFrom(axes []string) (Align, error) {
	var a Align
	if len(axes) != 3 {
		return a, fmt.Errorf("%w: %v", ErrInvalidAlign, axes)
	}
	seen := [3]bool{}
	for i, name := range axes {
		name = strings.ToLower(strings.TrimSpace(name))
		idx := strings.Index("xyz", name)
		if len(name) != 1 || idx < 0 || seen[idx] {
			return Align{}, fmt.Errorf("%w: %v", ErrInvalidAlign, axes)
		}
		seen[idx] = true
		a[i] = idx
	}
	return a, nil
}

// UnmarshalYAML accepts "xyz" or [x, y, z]. An absent align is the identity.
func (a *Align) UnmarshalYAML(node *yaml.Node) error {
	var (
		parsed Align
		err    error
	)
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err = ParseAlign(node.Value)
	case yaml.SequenceNode:
		var axes []string
		if err := node.Decode(&axes); err != nil {
			return err
		}
		for _, ax := range axes {
			if strings.TrimSpace(ax) == "" {
				return fmt.Errorf("%w: empty axis in %v", ErrInvalidAlign, axes)
			}
		}
		parsed, err = alignFrom(axes)
	default:
		return fmt.Errorf("line %d: %w", node.Line, ErrInvalidAlign)
	}
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = parsed
	return nil
}

// MarshalYAML writes the compact string form.
func (a Align) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a Align) String() string {
	return string([]byte{"xyz"[a[0]], "xyz"[a[1]], "xyz"[a[2]]})
}

// UnmarshalYAML decodes settings and entries while keeping entry order.
func (s *ObjectSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: top level must be a mapping", ErrInvalidObjectSet)
	}

	s.Settings = DefaultSettings()
	s.Entries = s.Entries[:0]
	seen := map[string]bool{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		if key == settingsKey {
			if err := value.Decode(&s.Settings); err != nil {
				return fmt.Errorf("settings: %w", err)
			}
			continue
		}
		if seen[key] {
			return fmt.Errorf("%w: entry %q defined twice (line %d)", ErrInvalidObjectSet, key, node.Content[i].Line)
		}
		seen[key] = true

		spec := ShapeSpec{Inertial: InertialSpec{Align: IdentityAlign}}
		if err := value.Decode(&spec); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		s.Entries = append(s.Entries, Entry{Key: key, Spec: spec})
	}
	return nil
}

// DefaultSettings returns the settings used for keys an object-set file omits.
func DefaultSettings() Settings {
	return Settings{
		GroundXYSize: 1,
		MeshPath:     DefaultMeshPath,
	}
}

// LoadObjectSet reads and validates an object-set file.
func LoadObjectSet(path string) (*ObjectSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object set: %w", err)
	}
	return ParseObjectSet(data)
}

// ParseObjectSet parses and validates object-set YAML.
func ParseObjectSet(data []byte) (*ObjectSet, error) {
	set := &ObjectSet{}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("failed to parse object set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	set.Hash = Hash(data)
	return set, nil
}

// Included returns the entries with include: true, in file order.
func (s *ObjectSet) Included() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Spec.Include {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the schema-level invariants. Shape kinds and spawn axes are
// checked during expansion, where the typed errors live.
func (s *ObjectSet) Validate() error {
	st := s.Settings
	if len(st.ObjectDensities) == 0 {
		return fmt.Errorf("%w: settings.object_densities is empty", ErrInvalidObjectSet)
	}
	if len(st.FrictionScalings) == 0 {
		return fmt.Errorf("%w: settings.friction_scalings is empty", ErrInvalidObjectSet)
	}
	if st.MaximumMassGrams < 0 {
		return fmt.Errorf("%w: settings.maximum_mass_grams is negative", ErrInvalidObjectSet)
	}

	for _, e := range s.Entries {
		spec := e.Spec
		if spec.NameRoot == "" {
			return fmt.Errorf("%w: entry %q has no name_root", ErrInvalidObjectSet, e.Key)
		}
		if spec.Scale.Num < 1 {
			return fmt.Errorf("%w: entry %q: scale.num must be >= 1, got %d", ErrInvalidObjectSet, e.Key, spec.Scale.Num)
		}
		if spec.Fillet.Used {
			if spec.Fillet.Step <= 0 {
				return fmt.Errorf("%w: entry %q: fillet.step must be > 0", ErrInvalidObjectSet, e.Key)
			}
			if spec.Fillet.Max < spec.Fillet.Min {
				return fmt.Errorf("%w: entry %q: fillet.max < fillet.min", ErrInvalidObjectSet, e.Key)
			}
		}
	}
	return nil
}
