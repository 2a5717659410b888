package rhkstm

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/zrbyte/rhkstm/sm4"
	"gonum.org/v1/gonum/mat"
)

// Names of the raw channels a spectroscopy map is built from.
const (
	ChannelLIA     = "LIA_Current"
	ChannelCurrent = "Current"
)

// ErrMissingChannel is returned when a file lacks a channel needed to
// build a SpecMap.
var ErrMissingChannel = errors.New("missing data channel")

// Reconstruct rearranges the lock-in and current channels of f into a
// SpecMap. Each raw channel holds one spectrum per column, grouped by tip
// position; the result is indexed by (bias, specpos_x, specpos_y,
// repetitions, biasscandir). Values keep the units of the raw data.
//
// When alternate is false every spectrum is a forward sweep and the backward
// entries of the biasscandir axis are NaN.
func Reconstruct(f *sm4.File, repetitions int, alternate bool) (*SpecMap, error) {
	lia, ok := f.Channel(ChannelLIA)
	if !ok {
		return nil, fmt.Errorf("%w: %s (file has %v)", ErrMissingChannel, ChannelLIA, f.Names())
	}
	current, ok := f.Channel(ChannelCurrent)
	if !ok {
		return nil, fmt.Errorf("%w: %s (file has %v)", ErrMissingChannel, ChannelCurrent, f.Names())
	}

	samples, spectra := lia.Dims()
	g, err := NewGeometry(samples, spectra, repetitions, alternate)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", ChannelLIA, err)
	}
	if cs, cn := current.Dims(); cs != samples || cn != spectra {
		return nil, fmt.Errorf("%w: channel %s is %d x %d but %s is %d x %d", ErrIncompatibleGeometry,
			ChannelCurrent, cs, cn, ChannelLIA, samples, spectra)
	}
	if len(lia.X) != samples {
		return nil, fmt.Errorf("%w: channel %s has %d bias values for %d samples", ErrIncompatibleGeometry,
			ChannelLIA, len(lia.X), samples)
	}

	specposX, specposY, err := tipCoordinates(lia.Attrs, g)
	if err != nil {
		return nil, err
	}

	reps := make([]float64, repetitions)
	for r := range reps {
		reps[r] = float64(r)
	}
	sm := &SpecMap{
		Geometry: g,
		Coords: map[string]*Coord{
			DimBias:        {Values: append([]float64(nil), lia.X...), Attrs: Attrs{}},
			DimSpecPosX:    {Values: specposX, Attrs: Attrs{}},
			DimSpecPosY:    {Values: specposY, Attrs: Attrs{}},
			DimRepetitions: {Values: reps, Attrs: Attrs{}},
			DimScanDir:     {Labels: append([]string(nil), ScanDirLabels...), Attrs: Attrs{}},
		},
		Vars: map[string]*Variable{
			VarLIA:     reshapeChannel(lia.Data, g),
			VarCurrent: reshapeChannel(current.Data, g),
		},
		Attrs: Attrs{"filename": f.Filename},
	}
	return sm, nil
}

// reshapeChannel places each raw column of data at its map position.
func reshapeChannel(data *mat.Dense, g Geometry) *Variable {
	arr := sparse.ZerosDense(g.Samples, g.MapSize, g.MapSize, g.Repetitions, len(ScanDirLabels))
	for i := 0; i < g.MapSize; i++ {
		for j := 0; j < g.MapSize; j++ {
			for r := 0; r < g.Repetitions; r++ {
				for d := range ScanDirLabels {
					col, ok := g.Column(i, j, r, d)
					for s := 0; s < g.Samples; s++ {
						if ok {
							arr.Set(data.At(s, col), s, i, j, r, d)
						} else {
							arr.Set(math.NaN(), s, i, j, r, d)
						}
					}
				}
			}
		}
	}
	return &Variable{Dims: append([]string(nil), SpecMapDims...), Data: arr, Attrs: Attrs{}}
}

// tipCoordinates returns the specpos_x and specpos_y axes from the drift
// coordinate arrays, which hold one entry per raw column. The coordinates are
// taken from the first spectrum of the first row and column of the scan; all
// spectra at one tip position are assumed to share them.
func tipCoordinates(attrs sm4.Attrs, g Geometry) (x, y []float64, err error) {
	rawX, err := attrs.Float64s(sm4.KeyDriftX)
	if err != nil {
		return nil, nil, err
	}
	rawY, err := attrs.Float64s(sm4.KeyDriftY)
	if err != nil {
		return nil, nil, err
	}
	if len(rawX) != g.Spectra || len(rawY) != g.Spectra {
		return nil, nil, fmt.Errorf("%w: %d x and %d y tip coordinates for %d spectra",
			ErrIncompatibleGeometry, len(rawX), len(rawY), g.Spectra)
	}
	m, n := g.MapSize, g.PerPosition
	x = make([]float64, m)
	y = make([]float64, m)
	for k := 0; k < m; k++ {
		x[k] = rawX[k*n]
		y[k] = rawY[k*m*n]
	}
	return x, y, nil
}
