package overlay

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/puzzlebox/internal/barcode"
)

// ManifestVersion is written into every plane manifest.
const ManifestVersion = 1

// Options controls how the plane is rendered.
type Options struct {
	Opacity     float64 // texture opacity (0-1)
	DoubleSided bool    // render both faces of the plane
	ReadCodes   bool    // record barcodes found on the corrected lid
}

// DefaultOptions returns the rendering used for comparing against a puzzle
// in progress: half transparent and visible from both sides.
func DefaultOptions() Options {
	return Options{Opacity: 0.5, DoubleSided: true}
}

// Plane is everything the renderer needs to texture a horizontal plane
// with the corrected image.
type Plane struct {
	Version     int            `yaml:"version" json:"version"`
	Size        PhysicalSize   `yaml:"size" json:"size"`
	Opacity     float64        `yaml:"opacity" json:"opacity"`
	DoubleSided bool           `yaml:"double_sided" json:"double_sided"`
	RotationX   float64        `yaml:"rotation_x" json:"rotation_x"` // radians; -π/2 lays the plane flat
	Texture     Texture        `yaml:"texture" json:"texture"`
	Codes       []barcode.Code `yaml:"codes,omitempty" json:"codes,omitempty"`

	image image.Image
}

// Texture references the corrected image.
type Texture struct {
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// NewPlane builds a plane of the given size textured with img.
func NewPlane(img image.Image, size PhysicalSize, opts Options) Plane {
	p := Plane{
		Version:     ManifestVersion,
		Size:        size,
		Opacity:     math.Max(0, math.Min(1, opts.Opacity)),
		DoubleSided: opts.DoubleSided,
		RotationX:   -math.Pi / 2,
		image:       img,
	}
	if img != nil {
		b := img.Bounds()
		p.Texture.Width, p.Texture.Height = b.Dx(), b.Dy()
	}
	return p
}

// Image returns the texture image, nil for a plane read from a manifest.
func (p Plane) Image() image.Image { return p.image }

// WithTexturePath returns p with the texture file recorded.
func (p Plane) WithTexturePath(path string) Plane {
	p.Texture.Path = path
	return p
}

// WithCodes returns p with the barcodes read from its texture.
func (p Plane) WithCodes(codes []barcode.Code) Plane {
	p.Codes = codes
	return p
}

// Encode writes p as YAML.
func (p Plane) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode plane manifest: %w", err)
	}
	return enc.Close()
}

// WriteManifest writes p as YAML to path, creating parent directories.
func WriteManifest(path string, p Plane) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path is user-provided
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := p.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadManifest loads a plane manifest written by WriteManifest.
func ReadManifest(r io.Reader) (Plane, error) {
	var p Plane
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return Plane{}, fmt.Errorf("decode plane manifest: %w", err)
	}
	if p.Version != ManifestVersion {
		return Plane{}, fmt.Errorf("unsupported manifest version %d", p.Version)
	}
	return p, nil
}
