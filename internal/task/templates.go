package task

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"mjset/internal/config"
	"mjset/internal/logging"
	"mjset/internal/mjcf"
	"mjset/internal/partition"
)

// ErrNoTaskTemplate is returned when batches are instanced without a task template.
var ErrNoTaskTemplate = errors.New("task template is required to instance batches")

// Templates are the four hand-authored documents. A nil field was not found
// on disk and is skipped.
type Templates struct {
	Gripper *etree.Document
	Panda   *etree.Document
	Both    *etree.Document
	Task    *etree.Document
}

// LoadTemplates reads whichever templates exist. A missing file is logged and
// left nil; an unreadable or malformed one is an error.
func LoadTemplates(cfg config.TemplatesConfig, logger *zap.Logger) (*Templates, error) {
	log := logging.For(logger, logging.CategoryTask)

	load := func(name string) (*etree.Document, error) {
		if name == "" {
			return nil, nil
		}
		p := cfg.Path(name)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			log.Warn("Template not found, skipping", zap.String("path", p))
			return nil, nil
		}
		return mjcf.Load(p)
	}

	var t Templates
	var err error
	if t.Gripper, err = load(cfg.Gripper); err != nil {
		return nil, err
	}
	if t.Panda, err = load(cfg.Panda); err != nil {
		return nil, err
	}
	if t.Both, err = load(cfg.Both); err != nil {
		return nil, err
	}
	if t.Task, err = load(cfg.Task); err != nil {
		return nil, err
	}
	return &t, nil
}

// Decorate applies the fixed, run-independent patches to every template present.
func (m Model) Decorate(t *Templates, logger *zap.Logger) error {
	log := logging.For(logger, logging.CategoryTask)
	stiffness := mjcf.FormatFloat(m.cfg.FingerJointStiffness)

	if doc := t.Gripper; doc != nil {
		if err := injectAll(doc, m.GripperKeyframe(), m.GripperActuators()); err != nil {
			return fmt.Errorf("gripper template: %w", err)
		}
		m.stampStiffness(doc, stiffness)
	}

	if doc := t.Panda; doc != nil {
		if err := injectAll(doc, m.PandaKeyframe(), m.PandaActuators()); err != nil {
			return fmt.Errorf("panda template: %w", err)
		}
	}

	if doc := t.Both; doc != nil {
		if err := injectAll(doc, m.BothKeyframe(), m.BothActuators()); err != nil {
			return fmt.Errorf("panda and gripper template: %w", err)
		}
		m.stampStiffness(doc, stiffness)
	}

	if doc := t.Task; doc != nil {
		if err := injectAll(doc, m.TaskActuators()); err != nil {
			return fmt.Errorf("task template: %w", err)
		}
		if n := mjcf.InjectIfNamed(doc, "body", "name", GripperBaseLink, m.ForceSite().Element()); n == 0 {
			log.Warn("No body for the force sensor site", zap.String("body", GripperBaseLink))
		}
		if err := injectAll(doc, m.ForceSensor(), m.Welds()); err != nil {
			return fmt.Errorf("task template: %w", err)
		}
		m.stampStiffness(doc, stiffness)

		for _, body := range m.SegmentBodies() {
			if err := mjcf.NameChildGeoms(doc, body, mjcf.GeomLabels, ""); err != nil {
				return fmt.Errorf("task template: %w", err)
			}
		}
		if err := mjcf.NameChildGeoms(doc, PalmBody, mjcf.GeomLabels, ""); err != nil {
			return fmt.Errorf("task template: %w", err)
		}
	}

	log.Debug("Templates decorated",
		zap.Bool("gripper", t.Gripper != nil),
		zap.Bool("panda", t.Panda != nil),
		zap.Bool("both", t.Both != nil),
		zap.Bool("task", t.Task != nil))
	return nil
}

func injectAll(doc *etree.Document, fragments ...mjcf.Builder) error {
	for _, f := range fragments {
		if err := mjcf.Inject(doc, mjcf.Root, f.Element()); err != nil {
			return err
		}
	}
	return nil
}

func (m Model) stampStiffness(doc *etree.Document, stiffness string) {
	for _, j := range m.FingerJoints() {
		mjcf.SetAttributeIfNamed(doc, "joint", j, "stiffness", stiffness)
	}
}

// Layout names the generated files relative to the output directory.
type Layout struct {
	IncludeDir string // e.g. mjcf_include
	TaskDir    string // e.g. task
	MeshDir    string // compiler meshdir stamped on task files
}

// LayoutFor derives the layout from the output config.
func LayoutFor(cfg config.OutputConfig) Layout {
	return Layout{IncludeDir: cfg.IncludeDir, TaskDir: cfg.TaskDir, MeshDir: cfg.MeshDir}
}

// ObjectsFile is the body document of batch i.
func (l Layout) ObjectsFile(i int) string {
	return path.Join(l.IncludeDir, "objects", fmt.Sprintf("objects_%d.xml", i))
}

// AssetsFile is the asset document of batch i.
func (l Layout) AssetsFile(i int) string {
	return path.Join(l.IncludeDir, "assets", fmt.Sprintf("assets_%d.xml", i))
}

// TaskFile is the task document of batch i.
func (l Layout) TaskFile(i int) string {
	return path.Join(l.TaskDir, fmt.Sprintf("gripper_task_%d.xml", i))
}

// fromTask makes an output-relative path relative to the task directory.
func (l Layout) fromTask(p string) string {
	up := ""
	for _, seg := range strings.Split(path.Clean(l.TaskDir), "/") {
		if seg != "" && seg != "." {
			up = path.Join(up, "..")
		}
	}
	return path.Join(up, p)
}

// Instance returns a copy of the decorated task template wired to batch b.
// The template itself is not modified.
func (m Model) Instance(template *etree.Document, b partition.Batch, l Layout) (*etree.Document, error) {
	if template == nil {
		return nil, ErrNoTaskTemplate
	}
	doc := template.Copy()

	if l.MeshDir != "" {
		mjcf.SetAttribute(doc, "compiler", "meshdir", l.MeshDir)
	}
	if err := mjcf.Inject(doc, "worldbody", mjcf.Include{File: l.fromTask(l.ObjectsFile(b.Index))}.Element()); err != nil {
		return nil, fmt.Errorf("task %d: %w", b.Index, err)
	}
	if err := mjcf.Inject(doc, "asset", mjcf.Include{File: l.fromTask(l.AssetsFile(b.Index))}.Element()); err != nil {
		return nil, fmt.Errorf("task %d: %w", b.Index, err)
	}
	if err := mjcf.Inject(doc, mjcf.Root, m.TaskKeyframe(b.Poses).Element()); err != nil {
		return nil, fmt.Errorf("task %d: %w", b.Index, err)
	}
	return doc, nil
}
