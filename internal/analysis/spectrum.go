package analysis

import (
	"sort"

	"github.com/san-kum/epicycle/internal/epicycle"
)

// Bin collects the vectors sharing one |n|.
type Bin struct {
	N         int
	Amplitude float64
	Count     int
}

// Spectrum returns one bin per |n| from 0 to the highest frequency in vs.
// Amplitudes of +n and -n add up.
func Spectrum(vs epicycle.VectorSet) []Bin {
	if len(vs) == 0 {
		return nil
	}
	bins := make([]Bin, vs.MaxFrequency()+1)
	for i := range bins {
		bins[i].N = i
	}
	for _, v := range vs {
		n := v.N
		if n < 0 {
			n = -n
		}
		bins[n].Amplitude += v.Magnitude()
		bins[n].Count++
	}
	return bins
}

// Amplitudes flattens a spectrum for plotting.
func Amplitudes(bins []Bin) []float64 {
	out := make([]float64, len(bins))
	for i, b := range bins {
		out[i] = b.Amplitude
	}
	return out
}

// EnergyRank returns the smallest number of vectors, taken largest first,
// whose squared magnitudes reach share of the total.
func EnergyRank(vs epicycle.VectorSet, share float64) int {
	if len(vs) == 0 || share <= 0 {
		return 0
	}
	energy := make([]float64, len(vs))
	total := 0.0
	for i, v := range vs {
		m := v.Magnitude()
		energy[i] = m * m
		total += energy[i]
	}
	if total == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(energy)))

	acc := 0.0
	for i, e := range energy {
		acc += e
		if acc/total >= share {
			return i + 1
		}
	}
	return len(vs)
}
