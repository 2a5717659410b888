package rhkstm

import (
	"errors"
	"testing"

	"github.com/zrbyte/rhkstm/sm4"
)

func TestClassify(t *testing.T) {
	var classifytests = []struct {
		name     string
		pageType int
		lineType int
		aspect   float64
		datatype DataType
		spectype SpecType
	}{
		{"image", PageTypeImage, LineTypeNone, 1, DataImage, SpecNone},
		{"image ignores line type", PageTypeImage, 99, 1, DataImage, SpecNone},
		{"image with iv line type", PageTypeImage, LineTypeIV, 1, DataImage, SpecIV},
		{"single iv spectrum", PageTypeSpec, LineTypeIV, 1, DataSpec, SpecIV},
		{"single iz spectrum", PageTypeSpec, LineTypeIZ, 1, DataSpec, SpecIZ},
		{"square map", PageTypeSpecGrid, LineTypeIV, 1, DataMap, SpecIV},
		{"oblong map", PageTypeSpecGrid, LineTypeIV, 3, DataMap, SpecIV},
		{"line", PageTypeSpecGrid, LineTypeIZ, 50, DataLine, SpecIZ},
	}
	for _, ct := range classifytests {
		datatype, spectype, err := Classify(gridFile(ct.pageType, ct.lineType, ct.aspect))
		if err != nil {
			t.Errorf("%s: Classify error: %v", ct.name, err)
			continue
		}
		if datatype != ct.datatype {
			t.Errorf("%s: datatype = %s, want %s", ct.name, datatype, ct.datatype)
		}
		if spectype != ct.spectype {
			t.Errorf("%s: spectype = %s, want %s", ct.name, spectype, ct.spectype)
		}
	}
}

func TestClassifyReadsLastChannel(t *testing.T) {
	f := gridFile(PageTypeSpec, LineTypeIV, 1)
	first := &sm4.Channel{Name: "Topography", Attrs: sm4.Attrs{
		sm4.KeyPageType: PageTypeImage,
		sm4.KeyLineType: LineTypeNone,
	}}
	f.Channels = append([]*sm4.Channel{first}, f.Channels...)
	datatype, _, err := Classify(f)
	if err != nil {
		t.Fatal(err)
	}
	if datatype != DataSpec {
		t.Errorf("datatype = %s, want %s from the last channel", datatype, DataSpec)
	}
}

func TestClassifyUnclassifiable(t *testing.T) {
	noDrift := gridFile(PageTypeSpecGrid, LineTypeIV, 1)
	delete(noDrift.Channels[0].Attrs, sm4.KeyDriftY)
	noPage := gridFile(PageTypeSpec, LineTypeIV, 1)
	delete(noPage.Channels[0].Attrs, sm4.KeyPageType)

	var badtests = []struct {
		name string
		file *sm4.File
	}{
		{"unknown page type", gridFile(99, LineTypeIV, 1)},
		{"unknown line type on a spectrum", gridFile(PageTypeSpec, 99, 1)},
		{"unknown line type on a grid", gridFile(PageTypeSpecGrid, 3, 1)},
		{"no drift coordinates", noDrift},
		{"no page type", noPage},
		{"no channels", &sm4.File{}},
	}
	for _, bt := range badtests {
		if _, _, err := Classify(bt.file); !errors.Is(err, ErrUnclassifiable) {
			t.Errorf("%s: Classify err=%v, want ErrUnclassifiable", bt.name, err)
		}
	}
}
