// Package task wires generated objects into the hand-authored gripper and
// panda templates: fixed decoration once per run, then one task document per
// partition batch.
package task

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"mjset/internal/config"
	"mjset/internal/mjcf"
)

// Body and site names the templates are expected to expose.
const (
	GripperBaseLink = "gripper_base_link"
	PalmBody        = "palm"
	ForceSite       = "force sensor site"
	ForceSensorName = "force sensor"
)

// GripperJoints are the actuated joints of the three-finger gripper.
var GripperJoints = []string{
	"finger_1_prismatic_joint", "finger_1_revolute_joint",
	"finger_2_prismatic_joint", "finger_2_revolute_joint",
	"finger_3_prismatic_joint", "finger_3_revolute_joint",
	"palm_prismatic_joint",
}

// BaseJoints move the gripper base in the task scene.
var BaseJoints = []string{"world_to_base"}

// Model derives joint names, keyframes and fixed fragments from the gripper config.
type Model struct {
	cfg config.GripperConfig
}

// NewModel returns the model for cfg.
func NewModel(cfg config.GripperConfig) Model {
	return Model{cfg: cfg}
}

// firstSegment is 1 when the first finger segment is fixed and has no joint.
func (m Model) firstSegment() int {
	if m.cfg.FixedFirstSegment {
		return 1
	}
	return 0
}

// PandaJoints are panda_joint1 through panda_joint7.
func (m Model) PandaJoints() []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = fmt.Sprintf("panda_joint%d", i+1)
	}
	return out
}

// FingerJoints are the passive segment joints of every finger, finger by finger.
// A gripper without segments has none.
func (m Model) FingerJoints() []string {
	if !m.cfg.IsSegmented {
		return nil
	}
	var out []string
	for i := 1; i <= 3; i++ {
		for j := m.firstSegment(); j < m.cfg.NumSegments; j++ {
			out = append(out, fmt.Sprintf("finger_%d_segment_joint_%d", i, j))
		}
	}
	return out
}

// SegmentBodies are the finger links that carry the segment joints.
func (m Model) SegmentBodies() []string {
	if !m.cfg.IsSegmented {
		return nil
	}
	var out []string
	for i := 1; i <= 3; i++ {
		for j := m.firstSegment(); j < m.cfg.NumSegments; j++ {
			out = append(out, fmt.Sprintf("finger_%d_segment_link_%d", i, j+1))
		}
	}
	return out
}

// GripperQPos is the home pose of the gripper: each finger's prismatic and
// revolute joint then its segments, and the palm last.
func (m Model) GripperQPos() []float64 {
	segments := 0
	if m.cfg.IsSegmented {
		segments = m.cfg.NumSegments - m.firstSegment()
	}
	var out []float64
	for range 3 {
		out = append(out, m.cfg.XYHome, 0)
		out = append(out, make([]float64, segments)...)
	}
	return append(out, m.cfg.ZHome)
}

// PandaQPos is the configured panda start pose.
func (m Model) PandaQPos() []float64 {
	return append([]float64(nil), m.cfg.PandaStart[:]...)
}

// TaskQPos is the task scene pose: base, gripper, then every object's free joint.
func (m Model) TaskQPos(objects []float64) []float64 {
	out := []float64{m.cfg.BaseZStart}
	out = append(out, m.GripperQPos()...)
	return append(out, objects...)
}

func keyframe(qpos ...[]float64) mjcf.Keyframe {
	var all []float64
	for _, q := range qpos {
		all = append(all, q...)
	}
	return mjcf.Keyframe{Name: mjcf.InitialPose, QPos: all}
}

// GripperKeyframe is the keyframe of the gripper-only model.
func (m Model) GripperKeyframe() mjcf.Keyframe { return keyframe(m.GripperQPos()) }

// PandaKeyframe is the keyframe of the panda-only model.
func (m Model) PandaKeyframe() mjcf.Keyframe { return keyframe(m.PandaQPos()) }

// BothKeyframe is the keyframe of the panda with the gripper mounted.
func (m Model) BothKeyframe() mjcf.Keyframe { return keyframe(m.PandaQPos(), m.GripperQPos()) }

// TaskKeyframe is the keyframe of one task with the given object poses.
func (m Model) TaskKeyframe(objects []float64) mjcf.Keyframe { return keyframe(m.TaskQPos(objects)) }

func (m Model) actuators(groups ...[]string) mjcf.Actuators {
	var joints []string
	for _, g := range groups {
		joints = append(joints, g...)
	}
	return mjcf.Actuators{Control: m.cfg.Control, Joints: joints}
}

// GripperActuators drives the gripper and its finger segments.
func (m Model) GripperActuators() mjcf.Actuators {
	return m.actuators(GripperJoints, m.FingerJoints())
}

// PandaActuators drives the arm.
func (m Model) PandaActuators() mjcf.Actuators {
	return m.actuators(m.PandaJoints())
}

// BothActuators drives the arm, the gripper and the finger segments.
func (m Model) BothActuators() mjcf.Actuators {
	return m.actuators(m.PandaJoints(), GripperJoints, m.FingerJoints())
}

// TaskActuators drives the base, the gripper and the finger segments.
func (m Model) TaskActuators() mjcf.Actuators {
	return m.actuators(BaseJoints, GripperJoints, m.FingerJoints())
}

// ForceSite is the invisible site the wrist force sensor reads.
func (m Model) ForceSite() mjcf.Site {
	return mjcf.Site{
		Name: ForceSite,
		Type: "sphere",
		Size: mgl64.Vec3{0.005, 0.005, 0.005},
		Quat: mgl64.Quat{W: 0, V: mgl64.Vec3{0, 0, 1}},
	}
}

// ForceSensor reads ForceSite.
func (m Model) ForceSensor() mjcf.ForceSensor {
	return mjcf.ForceSensor{Name: ForceSensorName, Site: ForceSite}
}

// Welds are the inactive welds that lock the non-backdrivable gripper motors.
func (m Model) Welds() mjcf.Welds {
	w := mjcf.Welds{Active: false}
	for i := 1; i <= 3; i++ {
		w.Welds = append(w.Welds, mjcf.Weld{
			Name:  fmt.Sprintf("pris%d_weld", i),
			Body1: GripperBaseLink,
			Body2: fmt.Sprintf("finger_%d_intermediate", i),
		})
	}
	for i := 1; i <= 3; i++ {
		w.Welds = append(w.Welds, mjcf.Weld{
			Name:  fmt.Sprintf("rev%d_weld", i),
			Body1: fmt.Sprintf("finger_%d", i),
			Body2: fmt.Sprintf("finger_%d_intermediate", i),
		})
	}
	w.Welds = append(w.Welds, mjcf.Weld{Name: "palm_weld", Body1: GripperBaseLink, Body2: PalmBody})
	return w
}
