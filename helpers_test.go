package rhkstm

import (
	"math"

	"github.com/zrbyte/rhkstm/sm4"
	"gonum.org/v1/gonum/mat"
)

// rawValue is the synthetic value stored at (sample, column) of a raw channel.
// Every entry is distinct, so misplaced spectra are caught.
func rawValue(sample, column, spectra int, scale float64) float64 {
	return float64(sample*spectra+column+1) * scale
}

// syntheticMapFile builds a decoded spectroscopy-map file with mapsize x
// mapsize tip positions, reps repetitions and optionally alternating sweeps.
// Tip coordinates are on a 1 nm grid, in meters; currents are in amperes.
func syntheticMapFile(samples, mapsize, reps int, alternate bool) *sm4.File {
	perPosition := reps
	if alternate {
		perPosition *= 2
	}
	spectra := mapsize * mapsize * perPosition

	lia := mat.NewDense(samples, spectra, nil)
	current := mat.NewDense(samples, spectra, nil)
	for s := 0; s < samples; s++ {
		for c := 0; c < spectra; c++ {
			lia.Set(s, c, rawValue(s, c, spectra, 1e-12))
			current.Set(s, c, rawValue(s, c, spectra, -1e-11))
		}
	}
	bias := make([]float64, samples)
	for s := range bias {
		bias[s] = -1 + 2*float64(s)/float64(samples)
	}
	driftX := make([]float64, spectra)
	driftY := make([]float64, spectra)
	for c := 0; c < spectra; c++ {
		position := c / perPosition
		driftX[c] = float64(position%mapsize)*1e-9 + 5e-9
		driftY[c] = float64(position/mapsize)*1e-9 - 2e-9
	}

	attrs := func(current float64) sm4.Attrs {
		return sm4.Attrs{
			sm4.KeyMinorVer:     6,
			sm4.KeyPageType:     PageTypeSpecGrid,
			sm4.KeyLineType:     LineTypeIV,
			sm4.KeyDriftX:       driftX,
			sm4.KeyDriftY:       driftY,
			sm4.KeyCurrent:      current,
			sm4.KeyDate:         "05/12/23",
			sm4.KeyTime:         "14:03:27",
			sm4.KeyBias:         0.5,
			sm4.KeyTimePerPoint: 2e-4,
		}
	}
	return &sm4.File{
		Filename: "synthetic.sm4",
		Channels: []*sm4.Channel{
			{Name: ChannelCurrent, Data: current, X: bias, Attrs: attrs(1e-10)},
			{Name: ChannelLIA, Data: lia, X: bias, Attrs: attrs(1e-10)},
		},
	}
}

// ellipsePoints returns n points on an ellipse whose covariance eigenvalues
// have the ratio aspect.
func ellipsePoints(n int, aspect float64) (x, y []float64) {
	x = make([]float64, n)
	y = make([]float64, n)
	a := math.Sqrt(aspect)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		x[i] = 1e-8 + a*1e-9*math.Cos(theta)
		y[i] = 3e-8 + 1e-9*math.Sin(theta)
	}
	return
}

// gridFile returns a one-channel file of the given page and line type whose
// tip positions lie on an ellipse with the given aspect ratio.
func gridFile(pageType, lineType int, aspect float64) *sm4.File {
	x, y := ellipsePoints(64, aspect)
	return &sm4.File{Channels: []*sm4.Channel{{
		Name: ChannelLIA,
		Attrs: sm4.Attrs{
			sm4.KeyPageType: pageType,
			sm4.KeyLineType: lineType,
			sm4.KeyDriftX:   x,
			sm4.KeyDriftY:   y,
		},
	}}}
}
