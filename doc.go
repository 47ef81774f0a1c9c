// Package diffusion solves the steady-state multigroup neutron diffusion
// equation
//
//	-div(D_g grad phi_g) + sigma_t,g phi_g =
//	    sum_g' sigma_s,g<-g' phi_g' + chi_g/k sum_g' nu sigma_f,g' phi_g' + q_g
//
// with a cell centered finite volume discretization on the meshes built by
// package mesh.  Each cell carries one unknown per group; neighboring cells
// are coupled through the harmonic mean of their diffusion coefficients and
// boundary faces through a Robin condition a phi + b dphi/dn = f that covers
// all supported boundary types.
//
// The cross-group coupling is either assembled into a single operator and
// solved once (Direct) or iterated on through the right hand side with a
// within-group operator that is factorized once (Iterative).  The linear
// systems are solved with package sparse.
//
// A typical run:
//
//	m, _ := mesh.New1D(vertices, mesh.Cartesian)
//	s := diffusion.New(m, materials)
//	s.Algorithm = diffusion.Iterative
//	if err := s.Initialize(); err != nil {
//		return err
//	}
//	res, err := s.Execute()
package diffusion
