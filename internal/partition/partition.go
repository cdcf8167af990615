// Package partition splits a catalog into randomly drawn, fixed-capacity task
// batches and lays each batch out on a spawn grid beside the main scene.
package partition

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"mjset/internal/catalog"
	"mjset/internal/logging"
	"mjset/internal/mjcf"
)

var (
	// ErrInsufficientObjects is returned when the catalog has no objects to split.
	ErrInsufficientObjects = errors.New("number of objects is zero: ensure entries have include: true and names are unique")

	// ErrInvalidGrid is returned when the capacity or grid cannot hold a single object.
	ErrInvalidGrid = errors.New("invalid spawn grid")
)

// PoseWidth is the number of qpos values per free-floating object.
const PoseWidth = 7

// DefaultZPadding lifts objects off the ground so they do not start interpenetrating it.
const DefaultZPadding = 1e-4

// Grid is the row-major spawn layout shared by every batch.
type Grid struct {
	XMin, XMax float64
	YStart     float64
	Spacing    float64
	ZPadding   float64
}

// DefaultGrid is x in [-1, 1] starting at y = 2 with 0.5 spacing.
func DefaultGrid() Grid {
	return Grid{XMin: -1, XMax: 1, YStart: 2, Spacing: 0.5, ZPadding: DefaultZPadding}
}

// PerRow is the number of slots in one grid row.
func (g Grid) PerRow() int {
	if g.Spacing <= 0 {
		return 0
	}
	return int(math.Floor((g.XMax - g.XMin) / g.Spacing))
}

// Rows is the number of rows needed for capacity slots.
func (g Grid) Rows(capacity int) int {
	per := g.PerRow()
	if per < 1 {
		return 0
	}
	return (capacity + per - 1) / per
}

// Slot is a spawn position on the grid.
type Slot struct {
	X, Y float64
}

// Slot returns the position of slot j.
func (g Grid) Slot(j int) Slot {
	per := g.PerRow()
	return Slot{
		X: g.XMin + g.Spacing/2 + g.Spacing*float64(j%per),
		Y: g.YStart + g.Spacing*float64(j/per),
	}
}

// Batch is one task's share of the catalog.
type Batch struct {
	Index int
	// Members are catalog indices in draw order.
	Members []int
	Slots   []Slot
	// Poses holds PoseWidth values per member: x y z and the orientation.
	Poses []float64

	Assets []mjcf.Mesh
	// Bodies ends with the shared ground.
	Bodies []mjcf.Builder
}

// Documents materializes the batch's asset and body documents.
func (b Batch) Documents() (assets, bodies *etree.Document) {
	return mjcf.Compose(b.Assets), mjcf.Compose(b.Bodies)
}

// Partition draws one permutation of the catalog from r and splits it into
// ceil(N/capacity) contiguous batches. The last batch may be short.
func Partition(cat *catalog.Catalog, capacity int, grid Grid, r *rand.Rand, logger *zap.Logger) ([]Batch, error) {
	log := logging.For(logger, logging.CategoryPartition)

	if cat == nil || cat.Len() < 1 {
		return nil, ErrInsufficientObjects
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be >= 1, got %d", ErrInvalidGrid, capacity)
	}
	if grid.PerRow() < 1 {
		return nil, fmt.Errorf("%w: x range [%g, %g] holds no slot of spacing %g", ErrInvalidGrid, grid.XMin, grid.XMax, grid.Spacing)
	}

	n := cat.Len()
	perm := r.Perm(n)
	numBatches := (n + capacity - 1) / capacity

	log.Info("Splitting objects into tasks",
		zap.Int("objects", n),
		zap.Int("per_task", capacity),
		zap.Int("tasks", numBatches))

	batches := make([]Batch, numBatches)
	for i := range batches {
		lo := i * capacity
		hi := min(lo+capacity, n)
		members := perm[lo:hi:hi]

		b := Batch{
			Index:   i,
			Members: members,
			Slots:   make([]Slot, len(members)),
			Poses:   make([]float64, 0, PoseWidth*len(members)),
			Assets:  make([]mjcf.Mesh, len(members)),
			Bodies:  make([]mjcf.Builder, 0, len(members)+1),
		}
		for j, idx := range members {
			rec := cat.Records[idx]
			slot := grid.Slot(j)
			b.Slots[j] = slot
			b.Poses = append(b.Poses, slot.X, slot.Y, rec.Detail.ZRest+grid.ZPadding, 0, 0, 0, 1)
			b.Assets[j] = rec.Asset
			b.Bodies = append(b.Bodies, rec.Body)
		}
		b.Bodies = append(b.Bodies, cat.Ground)
		batches[i] = b
	}

	if last := batches[numBatches-1]; len(last.Members) < capacity {
		log.Info("Last task is short",
			zap.Int("task", last.Index),
			zap.Int("objects", len(last.Members)),
			zap.Int("per_task", capacity))
	}
	return batches, nil
}
