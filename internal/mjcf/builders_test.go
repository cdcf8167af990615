package mjcf

import (
	"math"
	"testing"

	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, b Builder) string {
	t.Helper()
	doc := etree.NewDocument()
	doc.SetRoot(b.Element())
	s, err := doc.WriteToString()
	require.NoError(t, err)
	return s
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0", FormatFloat(0))
	assert.Equal(t, "0", FormatFloat(math.Copysign(0, -1)))
	assert.Equal(t, "0.005", FormatFloat(0.005))
	assert.Equal(t, "1", FormatFloat(1.0))
	assert.Equal(t, "1 0.005 0.005", FormatFloats(1, 0.005, 0.005))
}

func TestFormatQuat(t *testing.T) {
	q := mgl64.Quat{W: 1, V: mgl64.Vec3{0, 0.5, 0}}
	assert.Equal(t, "1 0 0.5 0", FormatQuat(q))
	// Zero components of the conjugate print without a sign
	assert.Equal(t, "1 0 -0.5 0", FormatQuat(q.Conjugate()))
}

func TestMesh(t *testing.T) {
	m := Mesh{
		Name:    "cube_small_0",
		File:    "models/cubes/cube.STL",
		Scale:   mgl64.Vec3{1, 1.5, 2},
		RefQuat: mgl64.QuatIdent(),
	}
	assert.Equal(t,
		`<mesh name="cube_small_0" file="models/cubes/cube.STL" scale="1 1.5 2" refquat="1 0 0 0"/>`,
		render(t, m))
}

func TestBody(t *testing.T) {
	b := Body{
		Name:        "obj",
		Quat:        mgl64.QuatIdent(),
		Mass:        0.008,
		DiagInertia: mgl64.Vec3{5.333333e-7, 5.333333e-7, 5.333333e-7},
		Friction:    [3]float64{1, 0.005, 0.005},
	}
	e := b.Element()
	assert.Equal(t, "body", e.Tag)
	assert.Equal(t, "obj", e.SelectAttrValue("name", ""))

	in := e.SelectElement("inertial")
	require.NotNil(t, in)
	assert.Equal(t, "0.008", in.SelectAttrValue("mass", ""))
	assert.Equal(t, "5.33333e-07 5.33333e-07 5.33333e-07", in.SelectAttrValue("diaginertia", ""))
	assert.Equal(t, "1 0 0 0", in.SelectAttrValue("quat", ""))

	assert.Equal(t, "obj", e.SelectElement("freejoint").SelectAttrValue("name", ""))

	g := e.SelectElement("geom")
	assert.Equal(t, "obj_geom", g.SelectAttrValue("name", ""))
	assert.Equal(t, "obj", g.SelectAttrValue("mesh", ""))
	assert.Equal(t, "1 0.005 0.005", g.SelectAttrValue("friction", ""))
}

func TestElement_FreshTree(t *testing.T) {
	b := Detail{Name: "d", Size: mgl64.Vec3{1, 2, 3}, ZRest: 0.5}
	a1 := b.Element()
	a2 := b.Element()
	assert.NotSame(t, a1, a2)
	assert.Equal(t, `<object_details name="d" x="1" y="2" z="3" z_rest="0.5"/>`, render(t, b))
}

func TestGround(t *testing.T) {
	g := Ground{Size: 1, Friction: [3]float64{1, 0.005, 0.005}}
	assert.Equal(t,
		`<body name="ground" pos="0 0 0"><geom name="ground_geom" type="plane" size="1 1 1" friction="1 0.005 0.005"/></body>`,
		render(t, g))
}

func TestKeyframe(t *testing.T) {
	k := Keyframe{Name: InitialPose, QPos: []float64{0, 0.1, 1}}
	assert.Equal(t,
		`<keyframe><key name="initial pose" time="0" qpos="0 0.1 1"/></keyframe>`,
		render(t, k))
}

func TestActuators(t *testing.T) {
	a := Actuators{Control: "motor", Joints: []string{"j1", "j2"}}
	assert.Equal(t,
		`<actuator><motor name="j1_actuator" joint="j1"/><motor name="j2_actuator" joint="j2"/></actuator>`,
		render(t, a))
}

func TestSensorAndSite(t *testing.T) {
	s := Site{
		Name: "force sensor site",
		Type: "sphere",
		Size: mgl64.Vec3{0.005, 0.005, 0.005},
		Quat: mgl64.Quat{W: 0, V: mgl64.Vec3{0, 0, 1}},
	}
	assert.Equal(t,
		`<site name="force sensor site" type="sphere" rgba="0 0 0 0" size="0.005 0.005 0.005" pos="0 0 0" quat="0 0 0 1"/>`,
		render(t, s))

	f := ForceSensor{Name: "force sensor", Site: "force sensor site"}
	assert.Equal(t,
		`<sensor><force name="force sensor" noise="0" site="force sensor site"/></sensor>`,
		render(t, f))
}

func TestWelds(t *testing.T) {
	w := Welds{Welds: []Weld{{Name: "palm_weld", Body1: "gripper_base_link", Body2: "palm"}}}
	assert.Equal(t,
		`<equality><weld name="palm_weld" active="false" body1="gripper_base_link" body2="palm"/></equality>`,
		render(t, w))
}

func TestCompose(t *testing.T) {
	doc := Compose([]Include{{File: "a"}, {File: "b"}})
	children := doc.Root().ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].SelectAttrValue("file", ""))
	assert.Equal(t, "b", children[1].SelectAttrValue("file", ""))
}
