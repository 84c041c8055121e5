// Package analysis inspects a frequency vector set without animating it.
//
//   - [Spectrum]: amplitude per |n| bucket, the input of the spectrum chart
//   - [EnergyRank]: how many vectors carry a given share of the energy
//   - [Trace]: one full period of the reconstructed curve
//   - [Bounds]: bounding box of a point set, used for fitting and export
//
// A quick look at a drawing in the terminal:
//
//	pts := analysis.Trace(vs, 400)
//	fmt.Print(analysis.TraceToASCII(pts, 60, 20))
package analysis
