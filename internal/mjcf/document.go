package mjcf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

// RootTag is the root element of every MJCF document.
const RootTag = "mujoco"

const declaration = `version="1.0" encoding="utf-8"`

// NewDocument returns a document holding an empty <mujoco> root.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.SetRoot(etree.NewElement(RootTag))
	return doc
}

// Compose returns a new document whose root holds one element per builder, in order.
func Compose[B Builder](fragments []B) *etree.Document {
	doc := NewDocument()
	root := doc.Root()
	for _, f := range fragments {
		root.AddChild(f.Element())
	}
	return doc
}

// Load reads an MJCF file. Comments are dropped so they never count as
// children or survive into generated copies.
func Load(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to read %s: no root element", path)
	}
	stripComments(&doc.Element)
	return doc, nil
}

// Parse reads an MJCF document from a string, dropping comments like Load.
func Parse(markup string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse document: no root element")
	}
	stripComments(&doc.Element)
	return doc, nil
}

// ParseFragment parses markup holding a single element.
func ParseFragment(markup string) (*etree.Element, error) {
	doc, err := Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	root := doc.Root()
	doc.RemoveChild(root)
	return root, nil
}

func stripComments(e *etree.Element) {
	for i := len(e.Child) - 1; i >= 0; i-- {
		switch t := e.Child[i].(type) {
		case *etree.Comment:
			e.RemoveChildAt(i)
		case *etree.Element:
			stripComments(t)
		}
	}
}

// Bytes serializes doc with an XML declaration and two-space indentation.
// doc is indented in place.
func Bytes(doc *etree.Document) ([]byte, error) {
	if !hasDeclaration(doc) {
		doc.InsertChildAt(0, etree.NewProcInst("xml", declaration))
	}
	doc.Indent(2)
	return doc.WriteToBytes()
}

func hasDeclaration(doc *etree.Document) bool {
	for _, t := range doc.Child {
		if p, ok := t.(*etree.ProcInst); ok && p.Target == "xml" {
			return true
		}
	}
	return false
}

// Write serializes doc to path, creating parent directories.
func Write(doc *etree.Document, path string) error {
	data, err := Bytes(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
