package sm4

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAttrs(t *testing.T) {
	a := Attrs{
		KeyMinorVer: int32(6),
		KeyPageType: 16.0,
		KeyCurrent:  "1e-10",
		KeyDate:     "05/12/23",
		KeyDriftX:   []interface{}{1, 2.5, 3},
	}
	v, err := a.Int(KeyMinorVer)
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	v, err = a.Int(KeyPageType)
	require.NoError(t, err)
	assert.Equal(t, 16, v)

	f, err := a.Float64(KeyCurrent)
	require.NoError(t, err)
	assert.Equal(t, 1e-10, f)

	s, err := a.String(KeyDate)
	require.NoError(t, err)
	assert.Equal(t, "05/12/23", s)

	fs, err := a.Float64s(KeyDriftX)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 3}, fs)

	assert.True(t, a.Has(KeyDate))
	assert.False(t, a.Has(KeyTime))

	var missingtests = []func() error{
		func() error { _, err := a.Int(KeyLineType); return err },
		func() error { _, err := a.Float64(KeyBias); return err },
		func() error { _, err := a.String(KeyTime); return err },
		func() error { _, err := a.Float64s(KeyDriftY); return err },
		func() error { _, err := a.Int(KeyDate); return err },
	}
	for i, get := range missingtests {
		if err := get(); !errors.Is(err, ErrMissingAttr) {
			t.Errorf("missing attribute test %d: err=%v, want ErrMissingAttr", i, err)
		}
	}
}

func TestFileLookup(t *testing.T) {
	f := &File{Channels: []*Channel{
		{Name: "Current"},
		{Name: "LIA_Current"},
	}}
	assert.Equal(t, []string{"Current", "LIA_Current"}, f.Names())
	assert.Equal(t, "LIA_Current", f.Last().Name)
	c, ok := f.Channel("Current")
	require.True(t, ok)
	assert.Equal(t, "Current", c.Name)
	_, ok = f.Channel("Topography")
	assert.False(t, ok)

	empty := &File{}
	assert.Nil(t, empty.Last())
	s, n := (&Channel{}).Dims()
	assert.Equal(t, 0, s)
	assert.Equal(t, 0, n)
}

func TestBundleRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scan.bundle")
	data := mat.NewDense(3, 4, []float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	})
	in := &File{
		Filename: "scan0001.sm4",
		Channels: []*Channel{
			{
				Name: "LIA_Current",
				Data: data,
				X:    []float64{-0.1, 0, 0.1},
				Attrs: Attrs{
					KeyPageType: 16,
					KeyDriftX:   []float64{1e-9, 2e-9, 3e-9, 4e-9},
					KeyDate:     "05/12/23",
				},
			},
		},
	}
	require.NoError(t, WriteBundle(dir, in))

	for _, path := range []string{dir, filepath.Join(dir, ManifestName)} {
		out, err := ReadBundle(path)
		require.NoError(t, err)
		assert.Equal(t, "scan0001.sm4", out.Filename)
		require.Len(t, out.Channels, 1)
		ch := out.Channels[0]
		assert.Equal(t, "LIA_Current", ch.Name)
		assert.True(t, mat.Equal(data, ch.Data), "channel data changed in bundle round trip")
		assert.Equal(t, []float64{-0.1, 0, 0.1}, ch.X)

		pt, err := ch.Attrs.Int(KeyPageType)
		require.NoError(t, err)
		assert.Equal(t, 16, pt)
		xs, err := ch.Attrs.Float64s(KeyDriftX)
		require.NoError(t, err)
		assert.Equal(t, []float64{1e-9, 2e-9, 3e-9, 4e-9}, xs)
	}

	decoded, err := BundleDecoder.Decode(dir)
	require.NoError(t, err)
	assert.Len(t, decoded.Channels, 1)
}

func TestBundleErrors(t *testing.T) {
	if _, err := ReadBundle("doesnt exist and can\not exist"); err == nil {
		t.Error("ReadBundle on a missing path should error")
	}

	dir := t.TempDir()
	if _, err := ReadBundle(dir); err == nil {
		t.Error("ReadBundle on a directory without manifest should error")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("channels: []\n"), 0664))
	if _, err := ReadBundle(dir); err == nil {
		t.Error("ReadBundle on a manifest without channels should error")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName),
		[]byte("channels:\n  - name: Current\n    data: Current.npy\n"), 0664))
	if _, err := ReadBundle(dir); err == nil {
		t.Error("ReadBundle with a missing data array should error")
	}

	bad := &File{Channels: []*Channel{{Name: "Current"}}}
	if err := WriteBundle(t.TempDir(), bad); err == nil {
		t.Error("WriteBundle of a channel without data should error")
	}
}
