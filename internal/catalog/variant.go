package catalog

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"mjset/internal/config"
	"mjset/internal/inertia"
	"mjset/internal/mjcf"
	"mjset/internal/rng"
)

// DefaultFriction is MuJoCo's sliding/torsional/rolling geom friction with
// rolling raised so objects do not roll away on their own.
var DefaultFriction = [3]float64{1.0, 0.005, 0.005}

// Category names used in the run summary.
const (
	Cubes      = "cubes"
	Cuboids    = "cuboids"
	Cylinders  = "cylinders"
	Spheres    = "spheres"
	Ellipsoids = "ellipsoids"
)

// Categories lists every category in summary order.
var Categories = []string{Cubes, Cuboids, Cylinders, Spheres, Ellipsoids}

// Variant is one fully parameterized generated object.
type Variant struct {
	Name     string
	Entry    string // object-set key it was expanded from
	Kind     inertia.Kind
	Category string

	// Dims are the inertial dimensions after scaling and alignment.
	Dims inertia.Dims
	// Size is the bounding extent with the spawn axis reordered onto z.
	Size mgl64.Vec3
	// Scale is the mesh scale, in mesh axes.
	Scale mgl64.Vec3

	Density float64
	RawMass float64
	Mass    float64
	Capped  bool
	Inertia inertia.Inertia

	Friction [3]float64
	ZRest    float64
	MeshFile string
	Quat     mgl64.Quat
	QuatConj mgl64.Quat
}

// Mesh is the variant's asset record.
func (v Variant) Mesh() mjcf.Mesh {
	return mjcf.Mesh{
		Name:    v.Name,
		File:    v.MeshFile,
		Scale:   v.Scale,
		RefQuat: v.QuatConj,
	}
}

// Body is the variant's physical body record.
func (v Variant) Body() mjcf.Body {
	return mjcf.Body{
		Name:        v.Name,
		Quat:        v.Quat,
		Mass:        v.Mass,
		DiagInertia: mgl64.Vec3{v.Inertia.Ixx, v.Inertia.Iyy, v.Inertia.Izz},
		Friction:    v.Friction,
	}
}

// Detail is the variant's spawn detail record.
func (v Variant) Detail() mjcf.Detail {
	return mjcf.Detail{
		Name:  v.Name,
		Size:  v.Size,
		ZRest: v.ZRest,
	}
}

// FrictionTriple scales the sliding component of DefaultFriction.
func FrictionTriple(scale float64) [3]float64 {
	f := DefaultFriction
	f[0] *= scale
	return f
}

// meshBase is one fillet option of a scale step.
type meshBase struct {
	file string // mesh file stem
	name string // variant name before the density/friction extension
}

// Expand enumerates every variant of one object-set entry, in generation
// order: density, scale step, fillet value, friction. r must be non-nil when
// random density or friction sampling is on. Every emitted variant is added
// to tally.
func Expand(entry config.Entry, settings config.Settings, r *rand.Rand, tally *Tally) ([]Variant, error) {
	spec := entry.Spec

	kind, err := inertia.ParseKind(spec.Inertial.Type)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", entry.Key, err)
	}
	axis, err := spawnAxis(entry)
	if err != nil {
		return nil, err
	}
	if spec.Scale.Num < 1 {
		return nil, fmt.Errorf("entry %q: scale.num must be >= 1", entry.Key)
	}

	densities := settings.ObjectDensities
	frictions := make([][3]float64, len(settings.FrictionScalings))
	for i, s := range settings.FrictionScalings {
		frictions[i] = FrictionTriple(s)
	}
	densityLoop := len(densities)
	if settings.RandomDensity {
		densityLoop = 1
	}
	frictionLoop := len(frictions)
	if settings.RandomFriction {
		frictionLoop = 1
	}

	massCap := inertia.NewCapGrams(settings.MaximumMassGrams)
	if tally != nil {
		tally.Cap = massCap
	}
	quat := spec.Quat.Quat()
	align := spec.Inertial.Align
	meshPath := settings.MeshPath
	if meshPath == "" {
		meshPath = config.DefaultMeshPath
	}

	var out []Variant
	for d := 0; d < densityLoop; d++ {
		for i := 0; i < spec.Scale.Num; i++ {
			var density float64
			if settings.RandomDensity {
				density = rng.Choice(r, densities)
			} else {
				density = densities[d]
			}

			scale := scaleAt(spec.Scale, i)
			aligned := mgl64.Vec3{scale[align[0]], scale[align[1]], scale[align[2]]}
			dims, extents := dimensions(kind, spec.Inertial, aligned)

			props, err := inertia.Compute(kind, dims, density)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", entry.Key, err)
			}
			mass, capped := massCap.Apply(props.Mass)

			size, zRest := spawnPose(axis, align, extents, scale, spec.Spawn.Rest)
			category := categoryOf(kind, dims)

			for _, base := range meshBases(spec, i) {
				file := strings.NewReplacer("{path}", spec.Path, "{file}", base.file).Replace(meshPath)

				for f := 0; f < frictionLoop; f++ {
					var friction [3]float64
					if settings.RandomFriction {
						friction = rng.Choice(r, frictions)
					} else {
						friction = frictions[f]
					}

					v := Variant{
						Name:     fmt.Sprintf("%s_den%s_fric%.1f", base.name, formatNumber(density), friction[0]),
						Entry:    entry.Key,
						Kind:     kind,
						Category: category,
						Dims:     dims,
						Size:     size,
						Scale:    scale,
						Density:  density,
						RawMass:  props.Mass,
						Mass:     mass,
						Capped:   capped,
						Inertia:  props.Inertia,
						Friction: friction,
						ZRest:    zRest,
						MeshFile: file,
						Quat:     quat,
						QuatConj: quat.Conjugate(),
					}
					if tally != nil {
						tally.Add(v)
					}
					out = append(out, v)
				}
			}
		}
	}
	return out, nil
}

func spawnAxis(entry config.Entry) (int, error) {
	switch strings.ToLower(strings.TrimSpace(entry.Spec.Spawn.Axis)) {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, &UnknownSpawnAxisError{Entry: entry.Key, Axis: entry.Spec.Spawn.Axis}
}

// scaleAt interpolates step i of s. A single step is scale 1 on every axis.
func scaleAt(s config.ScaleSpec, i int) mgl64.Vec3 {
	if s.Num == 1 {
		return mgl64.Vec3{1, 1, 1}
	}
	lo, hi := s.Min.Vec(), s.Max.Vec()
	inc := hi.Sub(lo)
	for k := range inc {
		inc[k] /= float64(s.Num - 1)
	}
	return lo.Add(inc.Mul(float64(i)))
}

// dimensions returns the inertial dimensions and the full bounding extents
// for a kind, given the aligned per-axis scale.
func dimensions(kind inertia.Kind, in config.InertialSpec, s mgl64.Vec3) (inertia.Dims, mgl64.Vec3) {
	var base mgl64.Vec3
	switch kind {
	case inertia.Cuboid:
		base = mgl64.Vec3{in.X, in.Y, in.Z}
	case inertia.Sphere:
		base = mgl64.Vec3{in.R, in.R, in.R}
	case inertia.Cylinder:
		base = mgl64.Vec3{in.R, in.R, in.H}
	case inertia.Ellipsoid:
		base = mgl64.Vec3{in.A, in.B, in.C}
	}
	d := mgl64.Vec3{base[0] * s[0], base[1] * s[1], base[2] * s[2]}

	extents := d
	switch kind {
	case inertia.Sphere, inertia.Ellipsoid:
		extents = d.Mul(2)
	case inertia.Cylinder:
		extents = mgl64.Vec3{2 * d[0], 2 * d[1], d[2]}
	}
	return inertia.Dims(d), extents
}

// spawnPose reorders the extents so the spawn axis points up and scales the
// rest height by the unaligned scale on that axis.
func spawnPose(axis int, align config.Align, extents, scale mgl64.Vec3, rest float64) (mgl64.Vec3, float64) {
	var size mgl64.Vec3
	switch axis {
	case 0:
		size = mgl64.Vec3{extents[align[2]], extents[align[0]], extents[align[1]]}
	case 1:
		size = mgl64.Vec3{extents[align[1]], extents[align[2]], extents[align[0]]}
	default:
		size = mgl64.Vec3{extents[align[0]], extents[align[1]], extents[align[2]]}
	}
	return size, rest * scale[axis]
}

func categoryOf(kind inertia.Kind, d inertia.Dims) string {
	switch kind {
	case inertia.Cuboid:
		if d[0] == d[1] && d[1] == d[2] {
			return Cubes
		}
		return Cuboids
	case inertia.Sphere:
		return Spheres
	case inertia.Cylinder:
		return Cylinders
	default:
		return Ellipsoids
	}
}

func meshBases(spec config.ShapeSpec, i int) []meshBase {
	fillets := spec.Fillet.Values()
	if len(fillets) == 0 {
		return []meshBase{{
			file: spec.NameRoot,
			name: fmt.Sprintf("%s_%s_%d", spec.NameRoot, spec.Suffix, i),
		}}
	}
	bases := make([]meshBase, len(fillets))
	for j, v := range fillets {
		stem := spec.NameRoot + "_" + formatNumber(math.Round(v*1e6)/1e6)
		bases[j] = meshBase{
			file: stem,
			name: fmt.Sprintf("%s_%s_%d", stem, spec.Suffix, i),
		}
	}
	return bases
}

// formatNumber renders densities and fillet values in names: shortest
// decimal, no exponent.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
