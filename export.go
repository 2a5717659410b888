package rhkstm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// WriteNetCDF writes sm to w as a netCDF-3 file with one dimension and one
// coordinate variable per SpecMap axis. The biasscandir labels are stored in
// the global attribute of the same name. Spaces in attribute names become
// underscores.
func WriteNetCDF(sm *SpecMap, w cdf.ReaderWriterAt) error {
	shape := sm.Shape()
	h := cdf.NewHeader(SpecMapDims, shape)
	h.AddAttribute("", "comment", "RHK STM spectroscopy map")
	h.AddAttribute("", DimScanDir, strings.Join(sm.Coords[DimScanDir].Labels, ","))
	for _, name := range sortedKeys(sm.Attrs) {
		h.AddAttribute("", ncName(name), ncValue(sm.Attrs[name]))
	}

	coordNames := []string{DimBias, DimSpecPosX, DimSpecPosY, DimRepetitions}
	for _, name := range coordNames {
		c, ok := sm.Coords[name]
		if !ok {
			return fmt.Errorf("specmap has no coordinate '%s'", name)
		}
		h.AddVariable(name, []string{name}, []float64{0})
		for _, a := range sortedKeys(c.Attrs) {
			h.AddAttribute(name, ncName(a), ncValue(c.Attrs[a]))
		}
	}
	varNames := sortedKeys(sm.Vars)
	for _, name := range varNames {
		v := sm.Vars[name]
		h.AddVariable(name, v.Dims, []float64{0})
		for _, a := range sortedKeys(v.Attrs) {
			h.AddAttribute(name, ncName(a), ncValue(v.Attrs[a]))
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, name := range coordNames {
		if err := writeNCF(f, name, sm.Coords[name].Values); err != nil {
			return err
		}
	}
	for _, name := range varNames {
		if err := writeNCF(f, name, sm.Vars[name].Data.Elements); err != nil {
			return err
		}
	}
	// no record dimension, so the header's record count needs no update
	return nil
}

func writeNCF(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	n := 1
	for _, v := range end {
		n *= v
	}
	if len(data) != n {
		return fmt.Errorf("netcdf variable %s: dims are %d but array length is %d", name, n, len(data))
	}
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("netcdf variable %s: %v", name, err)
	}
	return nil
}

// ncName makes an annotation name usable as a netCDF attribute name.
func ncName(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// ncValue converts an annotation to a type netCDF attributes can hold.
func ncValue(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return []float64{x}
	case []float64:
		return x
	case int:
		return []int32{int32(x)}
	case int32:
		return []int32{x}
	default:
		return fmt.Sprint(x)
	}
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteNPY writes each variable of sm to dir as <name>.npy, a 2-D array of
// shape (bias, specpos_x*specpos_y*repetitions*biasscandir) in row-major
// order, and the numeric coordinates as 1-D arrays <axis>.npy.
// In numpy, data.reshape(shape) restores the 5-D layout.
func WriteNPY(sm *SpecMap, dir string) error {
	if err := os.MkdirAll(dir, 0775); err != nil {
		return err
	}
	samples := sm.Geometry.Samples
	for _, name := range sortedKeys(sm.Vars) {
		elems := sm.Vars[name].Data.Elements
		m := mat.NewDense(samples, len(elems)/samples, elems)
		if err := writeNpyFile(filepath.Join(dir, name+".npy"), m); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	for _, name := range []string{DimBias, DimSpecPosX, DimSpecPosY} {
		if err := writeNpyFile(filepath.Join(dir, name+".npy"), sm.Coords[name].Values); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func writeNpyFile(name string, val interface{}) error {
	fp, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := npyio.Write(fp, val); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
