package rhkstm

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/mat"
)

// Dimension names of a SpecMap variable, in storage order.
const (
	DimBias        = "bias"
	DimSpecPosX    = "specpos_x"
	DimSpecPosY    = "specpos_y"
	DimRepetitions = "repetitions"
	DimScanDir     = "biasscandir"
)

// SpecMapDims lists the dimensions of every SpecMap variable.
var SpecMapDims = []string{DimBias, DimSpecPosX, DimSpecPosY, DimRepetitions, DimScanDir}

// ScanDirLabels name the two entries of the biasscandir axis: forward
// sweeps first, then backward.
var ScanDirLabels = []string{"left", "right"}

// Variable names of a SpecMap.
const (
	VarLIA     = "lia"
	VarCurrent = "current"
)

// Attrs holds annotations of a dataset, variable or coordinate.
type Attrs map[string]interface{}

// Coord is the coordinate vector of one dimension. The biasscandir axis is
// labelled by strings; all others by numbers.
type Coord struct {
	Values []float64
	Labels []string
	Attrs  Attrs
}

// Len returns the length of the coordinate.
func (c *Coord) Len() int {
	if c.Labels != nil {
		return len(c.Labels)
	}
	return len(c.Values)
}

// Variable is one data variable of a SpecMap, stored row-major over Dims.
type Variable struct {
	Dims  []string
	Data  *sparse.DenseArray
	Attrs Attrs
}

// SpecMap is a reconstructed spectroscopy map: per variable a 5-D array
// indexed by (bias, specpos_x, specpos_y, repetitions, biasscandir), with
// coordinates for each axis.
type SpecMap struct {
	Geometry Geometry
	Coords   map[string]*Coord
	Vars     map[string]*Variable
	Attrs    Attrs
}

// Shape returns the shape shared by every variable.
func (sm *SpecMap) Shape() []int {
	g := sm.Geometry
	return []int{g.Samples, g.MapSize, g.MapSize, g.Repetitions, len(ScanDirLabels)}
}

// Var returns the named variable or an error if it is absent.
func (sm *SpecMap) Var(name string) (*Variable, error) {
	v, ok := sm.Vars[name]
	if !ok {
		return nil, fmt.Errorf("specmap has no variable '%s'", name)
	}
	return v, nil
}

// ErrIncompatibleGeometry is returned when the number of recorded spectra
// does not fit a square map with the given repetitions and sweep settings.
var ErrIncompatibleGeometry = errors.New("incompatible acquisition geometry")

// Geometry describes how the columns of a raw spectroscopy channel map onto
// tip positions.
type Geometry struct {
	Samples     int  // points per spectrum
	Spectra     int  // total recorded spectra (raw columns)
	PerPosition int  // spectra recorded at each tip position
	MapSize     int  // tip positions along each side of the map
	Repetitions int  // repeated spectra per position and sweep direction
	Alternate   bool // forward and backward sweeps alternate
}

// NewGeometry checks that spectra recorded spectra split into a square map of
// tip positions with (alternate ? 2 : 1) * repetitions spectra each.
func NewGeometry(samples, spectra, repetitions int, alternate bool) (Geometry, error) {
	g := Geometry{Samples: samples, Spectra: spectra, Repetitions: repetitions, Alternate: alternate}
	g.PerPosition = repetitions
	if alternate {
		g.PerPosition *= 2
	}
	if g.PerPosition <= 0 {
		return g, fmt.Errorf("%w: %d spectra per tip position", ErrIncompatibleGeometry, g.PerPosition)
	}
	if spectra <= 0 || samples <= 0 {
		return g, fmt.Errorf("%w: raw data is %d x %d", ErrIncompatibleGeometry, samples, spectra)
	}
	if spectra%g.PerPosition != 0 {
		return g, fmt.Errorf("%w: %d spectra do not divide into groups of %d per tip position",
			ErrIncompatibleGeometry, spectra, g.PerPosition)
	}
	positions := spectra / g.PerPosition
	g.MapSize = int(math.Round(math.Sqrt(float64(positions))))
	if g.MapSize*g.MapSize != positions {
		return g, fmt.Errorf("%w: %d tip positions do not form a square map", ErrIncompatibleGeometry, positions)
	}
	return g, nil
}

// Column returns the raw column holding the spectrum stored at map position
// (i, j), repetition r and sweep direction d (0 forward, 1 backward), and
// false if no such spectrum was recorded.
//
// Raw columns are grouped by tip position in scan order, each group holding
// PerPosition spectra with forward and backward sweeps alternating when
// Alternate is set. The map is flipped along its first axis relative to the
// scan order.
func (g Geometry) Column(i, j, r, d int) (int, bool) {
	var k int
	switch {
	case g.Alternate:
		k = 2*r + d
	case d == 0:
		k = r
	default:
		return 0, false
	}
	position := (g.MapSize-1-i)*g.MapSize + j
	return position*g.PerPosition + k, true
}

// Flatten undoes the reconstruction of the named variable, returning the
// samples x spectra matrix in raw column order. Values are returned in the
// variable's current units.
func (sm *SpecMap) Flatten(name string) (*mat.Dense, error) {
	v, err := sm.Var(name)
	if err != nil {
		return nil, err
	}
	g := sm.Geometry
	out := mat.NewDense(g.Samples, g.Spectra, nil)
	for i := 0; i < g.MapSize; i++ {
		for j := 0; j < g.MapSize; j++ {
			for r := 0; r < g.Repetitions; r++ {
				for d := range ScanDirLabels {
					col, ok := g.Column(i, j, r, d)
					if !ok {
						continue
					}
					for s := 0; s < g.Samples; s++ {
						out.Set(s, col, v.Data.Get(s, i, j, r, d))
					}
				}
			}
		}
	}
	return out, nil
}
