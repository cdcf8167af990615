// Package inertia derives mass and diagonal inertia for the primitive solids
// used in generated object sets.
//
// All quantities are SI: dimensions in metres, density in kg/m^3, mass in kg,
// inertia in kg*m^2. Compute is pure; the mass cap is applied separately so
// callers can see both the raw and the capped mass.
package inertia

import (
	"fmt"
	"math"
	"strings"
)

// Kind is a primitive shape family.
type Kind string

const (
	Cuboid    Kind = "cuboid"
	Sphere    Kind = "sphere"
	Cylinder  Kind = "cylinder"
	Ellipsoid Kind = "ellipsoid"
)

// Kinds lists every supported shape family.
var Kinds = []Kind{Cuboid, Sphere, Cylinder, Ellipsoid}

// ParseKind maps a config string onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", &UnsupportedShapeKindError{Kind: s}
}

// Dims are the three inertial dimensions of a shape in its local frame.
//
// Cuboid: full edge lengths along x, y, z.
// Sphere and ellipsoid: semi-axes a, b, c.
// Cylinder: radii along x and y, then the height along z.
type Dims [3]float64

// Inertia is a diagonal inertia tensor.
type Inertia struct {
	Ixx, Iyy, Izz float64
}

// Properties is the result of Compute.
type Properties struct {
	Mass    float64
	Inertia Inertia
}

// Compute returns the mass and diagonal inertia of a solid of the given kind.
// Zero dimensions give zero mass and zero inertia.
func Compute(kind Kind, d Dims, density float64) (Properties, error) {
	var p Properties

	switch kind {
	case Cuboid:
		x, y, z := d[0], d[1], d[2]
		p.Mass = x * y * z * density
		p.Inertia = Inertia{
			Ixx: p.Mass / 12 * (y*y + z*z),
			Iyy: p.Mass / 12 * (x*x + z*z),
			Izz: p.Mass / 12 * (x*x + y*y),
		}

	case Sphere, Ellipsoid:
		a, b, c := d[0], d[1], d[2]
		p.Mass = 4.0 / 3.0 * math.Pi * a * b * c * density
		p.Inertia = Inertia{
			Ixx: p.Mass / 5 * (b*b + c*c),
			Iyy: p.Mass / 5 * (a*a + c*c),
			Izz: p.Mass / 5 * (a*a + b*b),
		}

	case Cylinder:
		rx, ry, h := d[0], d[1], d[2]
		p.Mass = math.Pi * rx * ry * h * density
		side := p.Mass / 12 * (3*rx*ry + h*h)
		p.Inertia = Inertia{
			Ixx: side,
			Iyy: side,
			Izz: p.Mass / 2 * rx * ry,
		}

	default:
		return Properties{}, &UnsupportedShapeKindError{Kind: string(kind)}
	}

	// -0 from negative zero density or dims reads badly in generated XML.
	if p.Mass == 0 {
		return Properties{}, nil
	}
	return p, nil
}

// Cap clamps masses to a configured maximum in kg.
// The zero value is an unbounded cap.
type Cap struct {
	Max float64
}

// NewCapGrams builds a Cap from a limit expressed in grams.
// A non-positive limit means unbounded.
func NewCapGrams(grams float64) Cap {
	if grams <= 0 {
		return Cap{}
	}
	return Cap{Max: grams * 1e-3}
}

// Bounded reports whether the cap has a finite limit.
func (c Cap) Bounded() bool {
	return c.Max > 0
}

// Apply clamps mass to the cap. The second result reports whether clamping happened.
// Inertia is deliberately left to the caller; it is not rescaled.
func (c Cap) Apply(mass float64) (float64, bool) {
	if c.Bounded() && mass > c.Max {
		return c.Max, true
	}
	return mass, false
}

func (c Cap) String() string {
	if !c.Bounded() {
		return "unbounded"
	}
	return fmt.Sprintf("%.0fg", c.Max*1e3)
}
