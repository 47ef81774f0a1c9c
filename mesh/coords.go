package mesh

import (
	"fmt"
	"math"
	"strings"
)

// CoordinateSystem selects the geometry a 1D mesh is swept through.
type CoordinateSystem int

const (
	// Cartesian is a slab: x with unit transverse area.
	Cartesian CoordinateSystem = iota
	// Cylindrical is an infinite cylinder: r with unit height.
	Cylindrical
	// Spherical is a sphere: r.
	Spherical
)

func (c CoordinateSystem) String() string {
	switch c {
	case Cartesian:
		return "cartesian"
	case Cylindrical:
		return "cylindrical"
	case Spherical:
		return "spherical"
	}
	return fmt.Sprintf("CoordinateSystem(%d)", int(c))
}

func ParseCoordinateSystem(s string) (CoordinateSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cartesian", "slab":
		return Cartesian, nil
	case "cylindrical", "cylinder":
		return Cylindrical, nil
	case "spherical", "sphere":
		return Spherical, nil
	}
	return 0, fmt.Errorf("mesh: unknown coordinate system %q", s)
}

func (c CoordinateSystem) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CoordinateSystem) UnmarshalText(text []byte) error {
	v, err := ParseCoordinateSystem(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// measure is the area of the surface at coordinate r, i.e. the integrand that
// turns a 1D extent into a volume.
func (c CoordinateSystem) measure(r float64) float64 {
	switch c {
	case Cylindrical:
		return 2 * math.Pi * r
	case Spherical:
		return 4 * math.Pi * r * r
	}
	return 1
}

// Point is a position in space.  1D meshes only use the first component.
type Point [3]float64

func (p Point) Sub(q Point) Point { return Point{p[0] - q[0], p[1] - q[1], p[2] - q[2]} }

func (p Point) Dot(q Point) float64 { return p[0]*q[0] + p[1]*q[1] + p[2]*q[2] }

func (p Point) Norm() float64 { return math.Sqrt(p.Dot(p)) }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Norm() }
