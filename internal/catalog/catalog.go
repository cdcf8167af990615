// Package catalog expands object-set entries into concrete variants and
// assembles them into one ordered record sequence.
//
// The asset, body and detail documents are views over that single sequence,
// so they cannot drift out of step: index i of every view describes the same
// object, and the body view alone ends with the shared ground plane.
package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"mjset/internal/config"
	"mjset/internal/logging"
	"mjset/internal/mjcf"
)

// Record is one catalog object with its three materializable facets.
type Record struct {
	Variant Variant
	Asset   mjcf.Mesh
	Body    mjcf.Body
	Detail  mjcf.Detail
}

// Catalog is the assembled, immutable object catalog of a run.
type Catalog struct {
	Records []Record
	Ground  mjcf.Ground
	Tally   *Tally
}

// Len is the number of objects, not counting the ground.
func (c *Catalog) Len() int {
	return len(c.Records)
}

// AssetSeq is the mesh view, one entry per object.
func (c *Catalog) AssetSeq() []mjcf.Mesh {
	out := make([]mjcf.Mesh, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Asset
	}
	return out
}

// BodySeq is the body view: one entry per object, then the ground.
func (c *Catalog) BodySeq() []mjcf.Builder {
	out := make([]mjcf.Builder, 0, len(c.Records)+1)
	for _, r := range c.Records {
		out = append(out, r.Body)
	}
	return append(out, c.Ground)
}

// DetailSeq is the spawn-detail view, one entry per object.
func (c *Catalog) DetailSeq() []mjcf.Detail {
	out := make([]mjcf.Detail, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Detail
	}
	return out
}

// Documents materializes the three views as standalone MJCF documents.
func (c *Catalog) Documents() (assets, bodies, details *etree.Document) {
	return mjcf.Compose(c.AssetSeq()), mjcf.Compose(c.BodySeq()), mjcf.Compose(c.DetailSeq())
}

// Assemble builds a catalog from variants in order. Names must be unique.
func Assemble(variants []Variant, ground mjcf.Ground) (*Catalog, error) {
	if len(variants) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]int, len(variants))
	records := make([]Record, len(variants))
	for i, v := range variants {
		if first, dup := seen[v.Name]; dup {
			return nil, &DuplicateNameError{Name: v.Name, First: first, Second: i}
		}
		seen[v.Name] = i
		records[i] = Record{
			Variant: v,
			Asset:   v.Mesh(),
			Body:    v.Body(),
			Detail:  v.Detail(),
		}
	}

	return &Catalog{Records: records, Ground: ground}, nil
}

// GroundFor returns the ground plane configured by settings.
func GroundFor(settings config.Settings) mjcf.Ground {
	size := settings.GroundXYSize
	if size <= 0 {
		size = 1
	}
	return mjcf.Ground{Size: size, Friction: DefaultFriction}
}

// Generate expands every included entry of set in file order and assembles
// the result. The run's tally is attached to the returned catalog.
func Generate(set *config.ObjectSet, r *rand.Rand, logger *zap.Logger) (*Catalog, error) {
	expandLog := logging.For(logger, logging.CategoryExpand)
	tally := NewTally()

	var variants []Variant
	for _, entry := range set.Included() {
		vs, err := Expand(entry, set.Settings, r, tally)
		if err != nil {
			return nil, err
		}
		capped := 0
		for _, v := range vs {
			if v.Capped {
				capped++
			}
		}
		expandLog.Debug("Expanded entry",
			zap.String("entry", entry.Key),
			zap.Int("variants", len(vs)),
			zap.Int("capped", capped))
		variants = append(variants, vs...)
	}

	cat, err := Assemble(variants, GroundFor(set.Settings))
	if err != nil {
		return nil, fmt.Errorf("failed to assemble catalog: %w", err)
	}
	cat.Tally = tally

	if tally.Capped > 0 {
		expandLog.Warn("Masses capped",
			zap.Int("count", tally.Capped),
			zap.Stringer("cap", tally.Cap))
	}
	logging.For(logger, logging.CategoryAssemble).Info("Catalog assembled",
		zap.Int("objects", cat.Len()),
		zap.Float64("mean_mass_g", tally.Mean()*1e3))
	return cat, nil
}
