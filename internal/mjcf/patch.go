// Package mjcf edits MuJoCo MJCF documents.
//
// Generated fragments are typed builders (see builders.go) that materialize
// straight into etree elements. The patch operations here merge them into
// hand-authored templates. Every search is over the descendants of the
// document root, in document order; the root itself never matches a tag.
package mjcf

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Root is the anchor that means "append to the document root".
const Root = "@root"

// GeomLabels are the names given to a body's geoms in order: the first is
// always the visual mesh, then collision, then the hook pair on 4-geom links.
var GeomLabels = []string{"visual", "collision", "hook_visual", "hook_collision"}

// find returns every descendant of the root with the given tag.
func find(doc *etree.Document, tag string) []*etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// findNamed returns the elements of find whose attr equals value.
// Elements without the attribute never match.
func findNamed(doc *etree.Document, tag, attr, value string) []*etree.Element {
	var out []*etree.Element
	for _, e := range find(doc, tag) {
		if a := e.SelectAttr(attr); a != nil && a.Value == value {
			out = append(out, e)
		}
	}
	return out
}

// unique resolves an anchor that must match exactly one element.
func unique(matches []*etree.Element, label string) (*etree.Element, error) {
	switch len(matches) {
	case 0:
		return nil, &AnchorNotFoundError{Tag: label}
	case 1:
		return matches[0], nil
	default:
		return nil, &AmbiguousAnchorError{Tag: label, Count: len(matches)}
	}
}

// SetText overwrites the text of every element with the given tag.
// It returns the number of elements changed.
func SetText(doc *etree.Document, tag, text string) int {
	matches := find(doc, tag)
	for _, e := range matches {
		e.SetText(text)
	}
	return len(matches)
}

// SetAttribute sets attr on every element with the given tag.
func SetAttribute(doc *etree.Document, tag, attr, value string) int {
	matches := find(doc, tag)
	for _, e := range matches {
		e.CreateAttr(attr, value)
	}
	return len(matches)
}

// SetAttributeIfNamed sets attr only on elements of tag whose name equals name.
func SetAttributeIfNamed(doc *etree.Document, tag, name, attr, value string) int {
	matches := findNamed(doc, tag, "name", name)
	for _, e := range matches {
		e.CreateAttr(attr, value)
	}
	return len(matches)
}

// Inject appends fragment under the single element matching anchor, or under
// the document root when anchor is Root.
func Inject(doc *etree.Document, anchor string, fragment *etree.Element) error {
	var parent *etree.Element
	if anchor == Root {
		parent = doc.Root()
		if parent == nil {
			return &AnchorNotFoundError{Tag: Root}
		}
	} else {
		p, err := unique(find(doc, anchor), anchor)
		if err != nil {
			return err
		}
		parent = p
	}
	parent.AddChild(fragment)
	return nil
}

// InjectXML parses hand-written markup and injects it like Inject.
func InjectXML(doc *etree.Document, anchor, markup string) error {
	fragment, err := ParseFragment(markup)
	if err != nil {
		return err
	}
	return Inject(doc, anchor, fragment)
}

// InjectIfNamed appends a copy of fragment under every parentTag element
// whose attr equals value. Zero matches is not an error.
func InjectIfNamed(doc *etree.Document, parentTag, attr, value string, fragment *etree.Element) int {
	matches := findNamed(doc, parentTag, attr, value)
	for _, e := range matches {
		e.AddChild(fragment.Copy())
	}
	return len(matches)
}

// NameChildGeoms names the direct geom children of the single body called
// body, in document order: {body}_geom_{label}. A non-empty friction is
// stamped on every named geom as well.
func NameChildGeoms(doc *etree.Document, body string, labels []string, friction string) error {
	b, err := unique(findNamed(doc, "body", "name", body), fmt.Sprintf("body name=%q", body))
	if err != nil {
		return err
	}

	geoms := b.SelectElements("geom")
	if len(geoms) > len(labels) {
		return fmt.Errorf("%w: body %q has %d geoms, %d labels", ErrTooManyGeoms, body, len(geoms), len(labels))
	}
	for i, g := range geoms {
		g.CreateAttr("name", body+"_geom_"+labels[i])
		if friction != "" {
			g.CreateAttr("friction", friction)
		}
	}
	return nil
}

// NameAllGeoms names every geom that is a direct child of any body geom_0,
// geom_1, ... in document order. It returns the number of geoms named.
func NameAllGeoms(doc *etree.Document) int {
	n := 0
	for _, b := range find(doc, "body") {
		for _, g := range b.SelectElements("geom") {
			g.CreateAttr("name", "geom_"+strconv.Itoa(n))
			n++
		}
	}
	return n
}
