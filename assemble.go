package diffusion

import (
	"fmt"

	"github.com/Naktakala/PDEs/material"
	"github.com/Naktakala/PDEs/mesh"
)

// AssembleMatrix rebuilds the operator from scratch.  Removal, diffusion and
// boundary terms are always assembled; flags adds the cross-group scattering
// and fission couplings.  Assembling twice with the same flags produces a
// bitwise identical operator.
func (s *Solver) AssembleMatrix(flags AssemblerFlags) error {
	if s.state == Uninitialized {
		return fmt.Errorf("diffusion: assemble: %w", ErrNotInitialized)
	}
	s.assemble(flags, nil)
	return nil
}

// SetSource adds the selected source terms to the right hand side.  It does
// not clear it first; the scattering and fission sources are evaluated with
// the current Phi.
func (s *Solver) SetSource(flags SourceFlags) error {
	if s.state == Uninitialized {
		return fmt.Errorf("diffusion: set source: %w", ErrNotInitialized)
	}
	s.setSource(flags, nil)
	return nil
}

// transfers selects the group pairs (into gi, from gpi) that cross-group
// terms are added for.  nil selects every pair.
type transfers func(gi, gpi int) bool

func (s *Solver) assemble(flags AssemblerFlags, pairs transfers) {
	A := s.A
	A.Clear()
	G := len(s.groups)

	for _, cell := range s.Mesh.Cells {
		xs := s.cellXS[cell.ID]
		V := cell.Volume

		for gi, g := range s.groups {
			i := cell.ID*G + gi
			D := xs.D[g]

			A.Add(i, i, (xs.SigmaT[g]+D*s.Buckling)*V)

			for _, face := range cell.Faces {
				if face.HasNeighbor {
					v := s.couplingCoefficient(cell, face, g)
					A.Add(i, i, v)
					A.Add(i, face.NeighborID*G+gi, -v)
					continue
				}
				bc := s.boundaries[face.NeighborID][gi]
				a, _, w := bc.weight(D, face.Area, cell.Centroid.Dist(face.Centroid))
				A.Add(i, i, a*w)
			}

			if !flags.Scatter && !flags.Fission {
				continue
			}
			for gpi, gp := range s.groups {
				if pairs != nil && !pairs(gi, gpi) {
					continue
				}
				v := 0.0
				if flags.Scatter {
					v += xs.SigmaS[g][gp]
				}
				if flags.Fission {
					v += s.fissionTransfer(xs, g, gp)
				}
				if v != 0 {
					A.Add(i, cell.ID*G+gpi, -v*V)
				}
			}
		}
	}
}

// couplingCoefficient returns D_f*A/d_PN for an interior face, where D_f is
// the distance-weighted harmonic mean of the diffusion coefficients on both
// sides of the face.
func (s *Solver) couplingCoefficient(cell mesh.Cell, face mesh.Face, g int) float64 {
	nbr := s.Mesh.Cells[face.NeighborID]
	dP := s.cellXS[cell.ID].D[g]
	dN := s.cellXS[nbr.ID].D[g]

	dPN := cell.Centroid.Dist(nbr.Centroid)
	w := cell.Centroid.Dist(face.Centroid) / dPN
	Df := 1 / (w/dP + (1-w)/dN)
	return Df * face.Area / dPN
}

// fissionTransfer returns the production of group g neutrons per unit flux
// in group gp, divided by the eigenvalue.  With precursors enabled the
// delayed neutrons are emitted with their own spectra.
func (s *Solver) fissionTransfer(xs *material.CrossSections, g, gp int) float64 {
	if s.usePrecursors && xs.HasPrecursors() {
		v := xs.ChiPrompt[g] * xs.NuPromptSigmaF[gp]
		for j := range xs.Lambda {
			v += xs.ChiDelayed[g][j] * xs.Gamma[j] * xs.NuDelayedSigmaF[gp]
		}
		return v / s.Eigenvalue
	}
	return xs.Chi[g] * xs.NuSigmaF[gp] / s.Eigenvalue
}

func (s *Solver) setSource(flags SourceFlags, pairs transfers) {
	b := s.b
	G := len(s.groups)

	for _, cell := range s.Mesh.Cells {
		xs := s.cellXS[cell.ID]
		src := s.Materials[cell.MaterialID].Source
		V := cell.Volume
		uc := s.Phi[cell.ID*G : (cell.ID+1)*G]

		for gi, g := range s.groups {
			i := cell.ID*G + gi

			if flags.Material && src != nil {
				b[i] += src.Values[g] * V
			}

			if flags.Scatter || flags.Fission {
				v := 0.0
				for gpi, gp := range s.groups {
					if pairs != nil && !pairs(gi, gpi) {
						continue
					}
					if flags.Scatter {
						v += xs.SigmaS[g][gp] * uc[gpi]
					}
					if flags.Fission {
						v += s.fissionTransfer(xs, g, gp) * uc[gpi]
					}
				}
				b[i] += v * V
			}

			if !flags.Boundary {
				continue
			}
			for _, face := range cell.Faces {
				if face.HasNeighbor {
					continue
				}
				bc := s.boundaries[face.NeighborID][gi]
				_, f, w := bc.weight(xs.D[g], face.Area, cell.Centroid.Dist(face.Centroid))
				b[i] += f * w
			}
		}
	}
}
