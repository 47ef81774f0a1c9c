// Package material holds the macroscopic multigroup cross sections and
// inhomogeneous sources that make up a diffusion problem, and reads them from
// YAML files.
package material

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCrossSections is wrapped by every cross section validation error.
var ErrInvalidCrossSections = errors.New("invalid cross sections")

// CrossSections is a set of macroscopic multigroup cross sections.  Group
// indices run from fast (0) to thermal.
type CrossSections struct {
	SigmaT []float64 `yaml:"sigma_t"`
	// D is the diffusion coefficient.  It defaults to 1/(3 SigmaT).
	D []float64 `yaml:"diffusion_coeff,omitempty"`
	// SigmaS[g][gp] is the scattering cross section from group gp into
	// group g.
	SigmaS   [][]float64 `yaml:"sigma_s,omitempty"`
	Chi      []float64   `yaml:"chi,omitempty"`
	NuSigmaF []float64   `yaml:"nu_sigma_f,omitempty"`

	// Delayed neutron data.  Lambda and Gamma have one entry per
	// precursor; ChiDelayed[g][j] is the emission spectrum of precursor j.
	Lambda          []float64   `yaml:"lambda,omitempty"`
	Gamma           []float64   `yaml:"gamma,omitempty"`
	ChiPrompt       []float64   `yaml:"chi_prompt,omitempty"`
	ChiDelayed      [][]float64 `yaml:"chi_delayed,omitempty"`
	NuPromptSigmaF  []float64   `yaml:"nu_prompt_sigma_f,omitempty"`
	NuDelayedSigmaF []float64   `yaml:"nu_delayed_sigma_f,omitempty"`
}

func (xs *CrossSections) NumGroups() int     { return len(xs.SigmaT) }
func (xs *CrossSections) NumPrecursors() int { return len(xs.Lambda) }

// HasFission reports whether any group produces fission neutrons.
func (xs *CrossSections) HasFission() bool {
	for g := range xs.NuSigmaF {
		if xs.NuSigmaF[g] > 0 {
			return true
		}
	}
	for _, v := range xs.NuPromptSigmaF {
		if v > 0 {
			return true
		}
	}
	for _, v := range xs.NuDelayedSigmaF {
		if v > 0 {
			return true
		}
	}
	return false
}

// HasPrecursors reports whether delayed neutron data is present.
func (xs *CrossSections) HasPrecursors() bool { return len(xs.Lambda) > 0 }

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("material: %s: %w", fmt.Sprintf(format, args...), ErrInvalidCrossSections)
}

func checkLen(name string, v []float64, n int) error {
	if len(v) != n {
		return invalid("%s has %d entries, want %d", name, len(v), n)
	}
	return nil
}

// Finalize validates the cross sections and fills in the optional fields:
// D from SigmaT, zero scattering, fission and chi when they are absent, and
// a normalized fission spectrum.  It is safe to call more than once.
func (xs *CrossSections) Finalize() error {
	G := xs.NumGroups()
	if G == 0 {
		return invalid("no groups")
	}
	for g, st := range xs.SigmaT {
		if !(st > 0) || math.IsInf(st, 0) {
			return invalid("sigma_t[%d] = %g must be positive", g, st)
		}
	}

	if xs.D == nil {
		xs.D = make([]float64, G)
		for g := range xs.D {
			xs.D[g] = 1 / (3 * xs.SigmaT[g])
		}
	}
	if err := checkLen("diffusion_coeff", xs.D, G); err != nil {
		return err
	}
	for g, d := range xs.D {
		if !(d > 0) {
			return invalid("diffusion_coeff[%d] = %g must be positive", g, d)
		}
	}

	if xs.SigmaS == nil {
		xs.SigmaS = make([][]float64, G)
	}
	if len(xs.SigmaS) != G {
		return invalid("sigma_s has %d rows, want %d", len(xs.SigmaS), G)
	}
	for g := range xs.SigmaS {
		if xs.SigmaS[g] == nil {
			xs.SigmaS[g] = make([]float64, G)
		}
		if err := checkLen(fmt.Sprintf("sigma_s[%d]", g), xs.SigmaS[g], G); err != nil {
			return err
		}
		for gp, s := range xs.SigmaS[g] {
			if s < 0 {
				return invalid("sigma_s[%d][%d] = %g is negative", g, gp, s)
			}
		}
	}

	if xs.NuSigmaF == nil {
		xs.NuSigmaF = make([]float64, G)
	}
	if err := checkLen("nu_sigma_f", xs.NuSigmaF, G); err != nil {
		return err
	}
	if xs.Chi == nil {
		xs.Chi = make([]float64, G)
	}
	if err := checkLen("chi", xs.Chi, G); err != nil {
		return err
	}
	if err := normalize("chi", xs.Chi); err != nil {
		return err
	}

	if !xs.HasPrecursors() {
		if xs.Gamma != nil || xs.ChiDelayed != nil || xs.NuDelayedSigmaF != nil {
			return invalid("delayed neutron data without decay constants")
		}
		return nil
	}
	return xs.finalizePrecursors()
}

func (xs *CrossSections) finalizePrecursors() error {
	G, J := xs.NumGroups(), xs.NumPrecursors()
	if err := checkLen("gamma", xs.Gamma, J); err != nil {
		return err
	}
	for j := 0; j < J; j++ {
		if !(xs.Lambda[j] > 0) {
			return invalid("lambda[%d] = %g must be positive", j, xs.Lambda[j])
		}
		if xs.Gamma[j] < 0 {
			return invalid("gamma[%d] = %g is negative", j, xs.Gamma[j])
		}
	}

	gamma := 0.0
	for _, v := range xs.Gamma {
		gamma += v
	}
	if gamma == 0 {
		return invalid("gamma sums to zero")
	}
	for j := range xs.Gamma {
		xs.Gamma[j] /= gamma
	}

	if err := checkLen("nu_prompt_sigma_f", xs.NuPromptSigmaF, G); err != nil {
		return err
	}
	if err := checkLen("nu_delayed_sigma_f", xs.NuDelayedSigmaF, G); err != nil {
		return err
	}
	if err := xs.checkFissionSplit(); err != nil {
		return err
	}
	if xs.ChiPrompt == nil {
		xs.ChiPrompt = append([]float64(nil), xs.Chi...)
	}
	if err := checkLen("chi_prompt", xs.ChiPrompt, G); err != nil {
		return err
	}
	if err := normalize("chi_prompt", xs.ChiPrompt); err != nil {
		return err
	}

	if len(xs.ChiDelayed) != G {
		return invalid("chi_delayed has %d rows, want %d", len(xs.ChiDelayed), G)
	}
	for g := range xs.ChiDelayed {
		if err := checkLen(fmt.Sprintf("chi_delayed[%d]", g), xs.ChiDelayed[g], J); err != nil {
			return err
		}
	}
	// each precursor's spectrum sums to one over the groups
	for j := 0; j < J; j++ {
		sum := 0.0
		for g := 0; g < G; g++ {
			if xs.ChiDelayed[g][j] < 0 {
				return invalid("chi_delayed[%d][%d] is negative", g, j)
			}
			sum += xs.ChiDelayed[g][j]
		}
		if sum == 0 {
			return invalid("chi_delayed for precursor %d is zero", j)
		}
		for g := 0; g < G; g++ {
			xs.ChiDelayed[g][j] /= sum
		}
	}
	return nil
}

// splitTol is the relative tolerance on nu_prompt_sigma_f +
// nu_delayed_sigma_f = nu_sigma_f.
const splitTol = 1e-8

// checkFissionSplit requires the prompt and delayed yields to add up to the
// total yield, so that splitting fission leaves the flux unchanged.  A total
// yield left at zero is filled in from the split.
func (xs *CrossSections) checkFissionSplit() error {
	unset := true
	for _, v := range xs.NuSigmaF {
		if v != 0 {
			unset = false
		}
	}
	for g := range xs.NuSigmaF {
		p, d := xs.NuPromptSigmaF[g], xs.NuDelayedSigmaF[g]
		if p < 0 || d < 0 {
			return invalid("prompt and delayed yields of group %d must be non-negative", g)
		}
		if unset {
			xs.NuSigmaF[g] = p + d
			continue
		}
		total := xs.NuSigmaF[g]
		if math.Abs(p+d-total) > splitTol*math.Abs(total) {
			return invalid("group %d: nu_prompt_sigma_f + nu_delayed_sigma_f = %g, nu_sigma_f = %g", g, p+d, total)
		}
	}
	return nil
}

// normalize scales a non-negative spectrum to unit sum.  An all-zero
// spectrum is left as is.
func normalize(name string, v []float64) error {
	sum := 0.0
	for g, x := range v {
		if x < 0 {
			return invalid("%s[%d] = %g is negative", name, g, x)
		}
		sum += x
	}
	if sum == 0 {
		return nil
	}
	for g := range v {
		v[g] /= sum
	}
	return nil
}

// IsotropicSource is an inhomogeneous multigroup source density, one value
// per cross section group.
type IsotropicSource struct {
	Values []float64 `yaml:"values"`
}

// Material couples cross sections with an optional source.  Several
// materials may share the same CrossSections.
type Material struct {
	Name   string           `yaml:"name"`
	XS     *CrossSections   `yaml:"xs"`
	Source *IsotropicSource `yaml:"source,omitempty"`
}
