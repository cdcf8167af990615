package mjcf

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl64"
)

// Builder is a typed fragment that materializes into a fresh element.
// Element may be called any number of times; every call returns a new tree.
type Builder interface {
	Element() *etree.Element
}

// FormatFloat renders a number the short way MJCF files are written by hand.
func FormatFloat(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatFloats joins numbers with single spaces.
func FormatFloats(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = FormatFloat(v)
	}
	return strings.Join(parts, " ")
}

// formatSig renders v with 6 significant digits, used for inertia.
func formatSig(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// FormatQuat renders a quaternion in MuJoCo's w x y z order.
func FormatQuat(q mgl64.Quat) string {
	return FormatFloats(q.W, q.V[0], q.V[1], q.V[2])
}

func formatVec(v mgl64.Vec3) string {
	return FormatFloats(v[0], v[1], v[2])
}

// Mesh is an <asset> mesh entry.
type Mesh struct {
	Name    string
	File    string
	Scale   mgl64.Vec3
	RefQuat mgl64.Quat
}

func (m Mesh) Element() *etree.Element {
	e := etree.NewElement("mesh")
	e.CreateAttr("name", m.Name)
	e.CreateAttr("file", m.File)
	e.CreateAttr("scale", formatVec(m.Scale))
	e.CreateAttr("refquat", FormatQuat(m.RefQuat))
	return e
}

// Body is a free-floating object body with a single mesh geom.
type Body struct {
	Name        string
	Quat        mgl64.Quat
	Mass        float64
	DiagInertia mgl64.Vec3
	Friction    [3]float64
}

func (b Body) Element() *etree.Element {
	e := etree.NewElement("body")
	e.CreateAttr("name", b.Name)
	e.CreateAttr("pos", "0 0 0")

	in := e.CreateElement("inertial")
	in.CreateAttr("pos", "0 0 0")
	in.CreateAttr("quat", FormatQuat(b.Quat))
	in.CreateAttr("mass", FormatFloat(b.Mass))
	in.CreateAttr("diaginertia", strings.Join([]string{
		formatSig(b.DiagInertia[0]), formatSig(b.DiagInertia[1]), formatSig(b.DiagInertia[2]),
	}, " "))

	e.CreateElement("freejoint").CreateAttr("name", b.Name)

	g := e.CreateElement("geom")
	g.CreateAttr("name", b.Name+"_geom")
	g.CreateAttr("type", "mesh")
	g.CreateAttr("mesh", b.Name)
	g.CreateAttr("friction", FormatFloats(b.Friction[:]...))
	return e
}

// Detail is the auxiliary <object_details> record: spawn extents and rest height.
type Detail struct {
	Name  string
	Size  mgl64.Vec3
	ZRest float64
}

func (d Detail) Element() *etree.Element {
	e := etree.NewElement("object_details")
	e.CreateAttr("name", d.Name)
	e.CreateAttr("x", FormatFloat(d.Size[0]))
	e.CreateAttr("y", FormatFloat(d.Size[1]))
	e.CreateAttr("z", FormatFloat(d.Size[2]))
	e.CreateAttr("z_rest", FormatFloat(d.ZRest))
	return e
}

// Ground is the shared ground-plane body.
type Ground struct {
	Size     float64
	Friction [3]float64
}

// GroundName is the body name of the ground plane.
const GroundName = "ground"

func (g Ground) Element() *etree.Element {
	e := etree.NewElement("body")
	e.CreateAttr("name", GroundName)
	e.CreateAttr("pos", "0 0 0")
	geom := e.CreateElement("geom")
	geom.CreateAttr("name", GroundName+"_geom")
	geom.CreateAttr("type", "plane")
	geom.CreateAttr("size", FormatFloats(g.Size, g.Size, g.Size))
	geom.CreateAttr("friction", FormatFloats(g.Friction[:]...))
	return e
}

// Keyframe is a <keyframe> block holding one key.
type Keyframe struct {
	Name string
	Time float64
	QPos []float64
}

// InitialPose is the key name every generated keyframe uses.
const InitialPose = "initial pose"

func (k Keyframe) Element() *etree.Element {
	e := etree.NewElement("keyframe")
	key := e.CreateElement("key")
	key.CreateAttr("name", k.Name)
	key.CreateAttr("time", FormatFloat(k.Time))
	key.CreateAttr("qpos", FormatFloats(k.QPos...))
	return e
}

// Actuators is an <actuator> block with one Control element per joint.
type Actuators struct {
	Control string
	Joints  []string
}

func (a Actuators) Element() *etree.Element {
	e := etree.NewElement("actuator")
	for _, j := range a.Joints {
		c := e.CreateElement(a.Control)
		c.CreateAttr("name", j+"_actuator")
		c.CreateAttr("joint", j)
	}
	return e
}

// Include pulls another MJCF file in.
type Include struct {
	File string
}

func (i Include) Element() *etree.Element {
	e := etree.NewElement("include")
	e.CreateAttr("file", i.File)
	return e
}

// Site is a <site> marker.
type Site struct {
	Name string
	Type string
	RGBA [4]float64
	Size mgl64.Vec3
	Pos  mgl64.Vec3
	Quat mgl64.Quat
}

func (s Site) Element() *etree.Element {
	e := etree.NewElement("site")
	e.CreateAttr("name", s.Name)
	e.CreateAttr("type", s.Type)
	e.CreateAttr("rgba", FormatFloats(s.RGBA[:]...))
	e.CreateAttr("size", formatVec(s.Size))
	e.CreateAttr("pos", formatVec(s.Pos))
	e.CreateAttr("quat", FormatQuat(s.Quat))
	return e
}

// ForceSensor is a <sensor> block with one force sensor on a site.
type ForceSensor struct {
	Name  string
	Site  string
	Noise float64
}

func (f ForceSensor) Element() *etree.Element {
	e := etree.NewElement("sensor")
	force := e.CreateElement("force")
	force.CreateAttr("name", f.Name)
	force.CreateAttr("noise", FormatFloat(f.Noise))
	force.CreateAttr("site", f.Site)
	return e
}

// Weld is one weld equality constraint.
type Weld struct {
	Name  string
	Body1 string
	Body2 string
}

// Welds is an <equality> block. Every weld carries the same active flag.
type Welds struct {
	Active bool
	Welds  []Weld
}

func (w Welds) Element() *etree.Element {
	e := etree.NewElement("equality")
	for _, weld := range w.Welds {
		c := e.CreateElement("weld")
		c.CreateAttr("name", weld.Name)
		c.CreateAttr("active", strconv.FormatBool(w.Active))
		c.CreateAttr("body1", weld.Body1)
		c.CreateAttr("body2", weld.Body2)
	}
	return e
}
