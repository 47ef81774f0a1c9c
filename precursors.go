package diffusion

import "fmt"

// ComputePrecursors evaluates the steady-state delayed neutron precursor
// concentrations from the current flux:
//
//	C_j = gamma_j / lambda_j * sum_g nu_d sigma_f,g phi_g / k
//
// for every precursor j of the material in each cell.  It does nothing when
// precursors are disabled.
func (s *Solver) ComputePrecursors() error {
	switch s.state {
	case Uninitialized:
		return fmt.Errorf("diffusion: compute precursors: %w", ErrNotInitialized)
	case Initialized, Failed:
		return fmt.Errorf("diffusion: compute precursors: %w", ErrNotSolved)
	}
	if !s.usePrecursors {
		return nil
	}

	G, P := len(s.groups), s.nPrecursors
	s.Precursors.Zero()
	for _, cell := range s.Mesh.Cells {
		xs := s.cellXS[cell.ID]
		if !xs.HasPrecursors() {
			continue
		}
		uc := s.Phi[cell.ID*G : (cell.ID+1)*G]

		production := 0.0
		for gi, g := range s.groups {
			production += xs.NuDelayedSigmaF[g] * uc[gi]
		}
		production /= s.Eigenvalue

		dof := cell.ID*P + s.precursorOffset[cell.MaterialID]
		for j := range xs.Lambda {
			s.Precursors[dof+j] = xs.Gamma[j] / xs.Lambda[j] * production
		}
	}
	return nil
}
