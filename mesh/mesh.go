// Package mesh builds the finite volume meshes the diffusion solver runs on.
// A mesh is a list of cells; each cell knows its volume, centroid and the
// faces that bound it.  Interior faces point at the neighboring cell, boundary
// faces carry the ID of the boundary they lie on.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMesh is wrapped by every mesh construction error.
var ErrInvalidMesh = errors.New("invalid mesh")

// Boundary IDs of a 1D mesh.
const (
	LeftBoundary  = 0
	RightBoundary = 1
)

// Face is one of the surfaces bounding a cell.
type Face struct {
	// Vertices holds the vertex indices that make up the face.
	Vertices []int
	// HasNeighbor is false on the domain boundary.
	HasNeighbor bool
	// NeighborID is the neighboring cell ID, or the boundary ID when
	// HasNeighbor is false.
	NeighborID int
	// Normal is the outward unit normal.
	Normal   Point
	Centroid Point
	Area     float64
}

type Cell struct {
	ID         int
	MaterialID int
	Centroid   Point
	Volume     float64
	Vertices   []int
	Faces      []Face
}

// Mesh represents a collection of cells constituting the spatial domain of a
// problem.
type Mesh struct {
	Dim           int
	Coordinates   CoordinateSystem
	Vertices      []Point
	Cells         []Cell
	NumBoundaries int
}

// NumCells returns the number of cells in the mesh.
func (m *Mesh) NumCells() int { return len(m.Cells) }

// Centroids returns the first coordinate of every cell centroid.
func (m *Mesh) Centroids() []float64 {
	xs := make([]float64, len(m.Cells))
	for i, c := range m.Cells {
		xs[i] = c.Centroid[0]
	}
	return xs
}

// New1D creates a 1D mesh with one cell between each pair of consecutive
// vertices.  All cells get material ID 0.
func New1D(vertices []float64, coords CoordinateSystem) (*Mesh, error) {
	if len(vertices) < 2 {
		return nil, fmt.Errorf("mesh: need at least 2 vertices, got %d: %w", len(vertices), ErrInvalidMesh)
	}
	if coords < Cartesian || coords > Spherical {
		return nil, fmt.Errorf("mesh: %v: %w", coords, ErrInvalidMesh)
	}
	for i, v := range vertices {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("mesh: vertex %d is %v: %w", i, v, ErrInvalidMesh)
		}
		if i > 0 && v <= vertices[i-1] {
			return nil, fmt.Errorf("mesh: vertices must be strictly increasing, %g follows %g: %w", v, vertices[i-1], ErrInvalidMesh)
		}
	}
	if coords != Cartesian && vertices[0] < 0 {
		return nil, fmt.Errorf("mesh: negative radius %g in %v coordinates: %w", vertices[0], coords, ErrInvalidMesh)
	}

	m := &Mesh{
		Dim:           1,
		Coordinates:   coords,
		Vertices:      make([]Point, len(vertices)),
		Cells:         make([]Cell, len(vertices)-1),
		NumBoundaries: 2,
	}
	for i, v := range vertices {
		m.Vertices[i] = Point{v}
	}

	last := len(m.Cells) - 1
	for i := range m.Cells {
		lo, hi := vertices[i], vertices[i+1]
		left := Face{
			Vertices:    []int{i},
			HasNeighbor: i > 0,
			NeighborID:  i - 1,
			Normal:      Point{-1},
			Centroid:    Point{lo},
			Area:        coords.measure(lo),
		}
		if i == 0 {
			left.NeighborID = LeftBoundary
		}
		right := Face{
			Vertices:    []int{i + 1},
			HasNeighbor: i < last,
			NeighborID:  i + 1,
			Normal:      Point{1},
			Centroid:    Point{hi},
			Area:        coords.measure(hi),
		}
		if i == last {
			right.NeighborID = RightBoundary
		}

		m.Cells[i] = Cell{
			ID:       i,
			Centroid: Point{0.5 * (lo + hi)},
			Volume:   coords.volume(lo, hi),
			Vertices: []int{i, i + 1},
			Faces:    []Face{left, right},
		}
	}
	return m, nil
}

// NewZoned1D creates a 1D mesh from zones.  Zone z spans
// [edges[z], edges[z+1]], is split into subdivisions[z] equal cells and is
// assigned materialIDs[z].
func NewZoned1D(edges []float64, subdivisions []int, materialIDs []int, coords CoordinateSystem) (*Mesh, error) {
	nzones := len(edges) - 1
	if nzones < 1 {
		return nil, fmt.Errorf("mesh: need at least 2 zone edges, got %d: %w", len(edges), ErrInvalidMesh)
	}
	if len(subdivisions) != nzones || len(materialIDs) != nzones {
		return nil, fmt.Errorf("mesh: %d zones but %d subdivisions and %d material IDs: %w", nzones, len(subdivisions), len(materialIDs), ErrInvalidMesh)
	}

	vertices := []float64{edges[0]}
	var matIDs []int
	for z := 0; z < nzones; z++ {
		n := subdivisions[z]
		if n <= 0 {
			return nil, fmt.Errorf("mesh: zone %d has %d subdivisions: %w", z, n, ErrInvalidMesh)
		}
		if materialIDs[z] < 0 {
			return nil, fmt.Errorf("mesh: zone %d has negative material ID %d: %w", z, materialIDs[z], ErrInvalidMesh)
		}
		width := (edges[z+1] - edges[z]) / float64(n)
		for k := 1; k < n; k++ {
			vertices = append(vertices, edges[z]+float64(k)*width)
		}
		vertices = append(vertices, edges[z+1])
		for k := 0; k < n; k++ {
			matIDs = append(matIDs, materialIDs[z])
		}
	}

	m, err := New1D(vertices, coords)
	if err != nil {
		return nil, err
	}
	for i := range m.Cells {
		m.Cells[i].MaterialID = matIDs[i]
	}
	return m, nil
}
