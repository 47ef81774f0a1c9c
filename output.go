package diffusion

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Naktakala/PDEs/dense"
)

// dataMagic starts every output file.
var dataMagic = [8]byte{'M', 'G', 'D', 'I', 'F', 'F', 0, 1}

// ErrBadOutput is returned when an output file cannot be decoded.
var ErrBadOutput = errors.New("malformed output file")

// Output is the content of a result file.  Flux and Precursors use the same
// layout as Solver.Phi and Solver.Precursors.
type Output struct {
	NumCells      int
	Groups        []int
	NumPrecursors int
	// Centroids holds the cell centroids, three coordinates per cell.
	Centroids  []float64
	Flux       []float64
	Precursors []float64
}

func (o *Output) NumGroups() int { return len(o.Groups) }

// FluxVector returns a copy of the flux in Phi layout.
func (o *Output) FluxVector() dense.Vector { return dense.Vector(o.Flux).Clone() }

// GroupFlux returns the flux of the g-th stored group for every cell.
func (o *Output) GroupFlux(g int) []float64 {
	G := len(o.Groups)
	out := make([]float64, o.NumCells)
	for c := range out {
		out[c] = o.Flux[c*G+g]
	}
	return out
}

// Write stores the solution as dir/prefix.data.  The file is little endian:
// magic, cell, group and precursor counts as uint64, the group IDs as
// uint64, then float64 centroids, flux and precursors.
func (s *Solver) Write(dir, prefix string) (string, error) {
	if s.state == Uninitialized {
		return "", fmt.Errorf("diffusion: write: %w", ErrNotInitialized)
	}
	out := &Output{
		NumCells:      len(s.Mesh.Cells),
		Groups:        s.groups,
		NumPrecursors: s.nPrecursors,
		Centroids:     make([]float64, 0, 3*len(s.Mesh.Cells)),
		Flux:          s.Phi,
		Precursors:    s.Precursors,
	}
	for _, c := range s.Mesh.Cells {
		out.Centroids = append(out.Centroids, c.Centroid[:]...)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("diffusion: write: %w", err)
	}
	path := filepath.Join(dir, prefix+".data")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("diffusion: write: %w", err)
	}
	if err := out.encode(f); err != nil {
		f.Close()
		return "", fmt.Errorf("diffusion: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("diffusion: write %s: %w", path, err)
	}
	s.Logger.V(1).Info("wrote solution", "path", path)
	return path, nil
}

func (o *Output) encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	header := []uint64{uint64(o.NumCells), uint64(len(o.Groups)), uint64(o.NumPrecursors)}
	for _, g := range o.Groups {
		header = append(header, uint64(g))
	}
	for _, v := range []interface{}{dataMagic, header, o.Centroids, o.Flux, o.Precursors} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFile reads a result file written by Solver.Write.
func ReadFile(path string) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("diffusion: read: %w", err)
	}
	defer f.Close()

	out, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("diffusion: read %s: %w", path, err)
	}
	return out, nil
}

// maxCount bounds the sizes read from a header so a corrupt file cannot
// trigger huge allocations.
const maxCount = 1 << 28

// Read decodes a result stream.
func Read(r io.Reader) (*Output, error) {
	var magic [8]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	if magic != dataMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadOutput, magic[:])
	}

	var counts [3]uint64
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	for _, c := range counts {
		if c > maxCount {
			return nil, fmt.Errorf("%w: count %d too large", ErrBadOutput, c)
		}
	}
	N, G, P := int(counts[0]), int(counts[1]), int(counts[2])
	if N*G > maxCount || N*P > maxCount {
		return nil, fmt.Errorf("%w: %d cells by %d groups and %d precursors is too large", ErrBadOutput, N, G, P)
	}

	groups := make([]uint64, G)
	out := &Output{
		NumCells:      N,
		Groups:        make([]int, G),
		NumPrecursors: P,
		Centroids:     make([]float64, 3*N),
		Flux:          make([]float64, N*G),
		Precursors:    make([]float64, N*P),
	}
	for _, v := range []interface{}{groups, out.Centroids, out.Flux, out.Precursors} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadOutput, err)
		}
	}
	for i, g := range groups {
		out.Groups[i] = int(g)
	}
	return out, nil
}
