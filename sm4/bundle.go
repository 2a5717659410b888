package sm4

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// ManifestName is the name of the YAML file describing a channel bundle.
const ManifestName = "manifest.yaml"

// manifest is the on-disk description of a channel bundle.
type manifest struct {
	Filename string            `yaml:"filename"`
	Channels []manifestChannel `yaml:"channels"`
}

type manifestChannel struct {
	Name  string                 `yaml:"name"`
	Data  string                 `yaml:"data"`
	X     string                 `yaml:"x,omitempty"`
	Attrs map[string]interface{} `yaml:"attrs"`
}

// BundleDecoder decodes channel bundles. The filename passed to Decode may be
// the bundle directory or its manifest.
var BundleDecoder Decoder = DecoderFunc(ReadBundle)

// ReadBundle reads a channel bundle from path, which is either the bundle
// directory or the manifest file inside it.
func ReadBundle(path string) (*File, error) {
	dir := path
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("sm4: bundle '%s': %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("sm4: bundle '%s': parsing manifest: %w", path, err)
	}
	if len(m.Channels) == 0 {
		return nil, fmt.Errorf("sm4: bundle '%s' lists no channels", path)
	}

	f := &File{Filename: m.Filename}
	if f.Filename == "" {
		f.Filename = path
	}
	for _, mc := range m.Channels {
		ch := &Channel{Name: mc.Name, Attrs: Attrs(mc.Attrs)}
		if ch.Attrs == nil {
			ch.Attrs = make(Attrs)
		}
		var data mat.Dense
		if err := readNpy(filepath.Join(dir, mc.Data), &data); err != nil {
			return nil, fmt.Errorf("sm4: channel %s data: %w", mc.Name, err)
		}
		ch.Data = &data
		if mc.X != "" {
			if err := readNpy(filepath.Join(dir, mc.X), &ch.X); err != nil {
				return nil, fmt.Errorf("sm4: channel %s x axis: %w", mc.Name, err)
			}
		}
		f.Channels = append(f.Channels, ch)
	}
	return f, nil
}

// WriteBundle writes f as a channel bundle into dir, creating it if needed.
func WriteBundle(dir string, f *File) error {
	if err := os.MkdirAll(dir, 0775); err != nil {
		return err
	}
	m := manifest{Filename: f.Filename}
	for _, ch := range f.Channels {
		if ch.Data == nil {
			return fmt.Errorf("sm4: channel %s has no data", ch.Name)
		}
		mc := manifestChannel{Name: ch.Name, Data: ch.Name + ".npy", Attrs: ch.Attrs}
		if err := writeNpy(filepath.Join(dir, mc.Data), ch.Data); err != nil {
			return fmt.Errorf("sm4: channel %s data: %w", ch.Name, err)
		}
		if len(ch.X) > 0 {
			mc.X = ch.Name + "_x.npy"
			if err := writeNpy(filepath.Join(dir, mc.X), ch.X); err != nil {
				return fmt.Errorf("sm4: channel %s x axis: %w", ch.Name, err)
			}
		}
		m.Channels = append(m.Channels, mc)
	}
	raw, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), raw, 0664)
}

func readNpy(name string, ptr interface{}) error {
	fp, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fp.Close()
	return npyio.Read(fp, ptr)
}

func writeNpy(name string, val interface{}) error {
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
