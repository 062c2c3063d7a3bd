// Package barcode reads the product codes printed on a straightened box
// lid, such as the EAN of the puzzle or a QR code linking to it.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotFound reports an image without a readable code.
var ErrNotFound = errors.New("no barcode found")

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatDataMatrix
	FormatEAN8
	FormatEAN13
	FormatUPCA
	FormatUPCE
	FormatCode128
	FormatCode39
	FormatITF
)

var formatNames = map[Format]string{
	FormatQR:         "qr",
	FormatDataMatrix: "datamatrix",
	FormatEAN8:       "ean8",
	FormatEAN13:      "ean13",
	FormatUPCA:       "upca",
	FormatUPCE:       "upce",
	FormatCode128:    "code128",
	FormatCode39:     "code39",
	FormatITF:        "itf",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFormat parses a format name as written by Format.String.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown barcode format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Code is one decoded barcode.
type Code struct {
	Format Format          `yaml:"format" json:"format"`
	Value  string          `yaml:"value" json:"value"`
	Bounds image.Rectangle `yaml:"-" json:"-"` // in the pixel space of the decoded image
}

// Options controls decoding.
type Options struct {
	// Formats constrains the symbologies searched; empty means all.
	Formats []Format

	// TryHarder enables a slower, more exhaustive search.
	TryHarder bool
}

// Reader decodes barcodes with one gozxing reader per symbology family.
type Reader struct {
	opts    Options
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewReader returns a reader for opts.
func NewReader(opts Options) *Reader {
	r := &Reader{opts: opts, hints: make(map[gozxing.DecodeHintType]interface{})}
	if opts.TryHarder {
		r.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	want := func(fs ...Format) bool {
		if len(opts.Formats) == 0 {
			return true
		}
		for _, f := range fs {
			for _, o := range opts.Formats {
				if f == o {
					return true
				}
			}
		}
		return false
	}
	if want(FormatQR) {
		r.readers = append(r.readers, qrcode.NewQRCodeReader())
	}
	if want(FormatDataMatrix) {
		r.readers = append(r.readers, datamatrix.NewDataMatrixReader())
	}
	if want(FormatEAN8, FormatEAN13, FormatUPCA, FormatUPCE) {
		r.readers = append(r.readers, oned.NewMultiFormatUPCEANReader(r.hints))
	}
	if want(FormatCode128) {
		r.readers = append(r.readers, oned.NewCode128Reader())
	}
	if want(FormatCode39) {
		r.readers = append(r.readers, oned.NewCode39Reader())
	}
	if want(FormatITF) {
		r.readers = append(r.readers, oned.NewITFReader())
	}
	return r
}

// Read returns every code found in img, at most one per symbology family,
// or ErrNotFound.
func (r *Reader) Read(ctx context.Context, img image.Image) ([]Code, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	var codes []Code
	seen := make(map[string]bool)
	for _, reader := range r.readers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := reader.Decode(bmp, r.hints)
		reader.Reset()
		if err != nil || res == nil {
			continue
		}
		code := Code{Format: formatFromZXing(res.GetBarcodeFormat()), Value: res.GetText()}
		if !r.accepts(code.Format) {
			continue
		}
		key := code.Format.String() + "\x00" + code.Value
		if seen[key] {
			continue
		}
		seen[key] = true

		var pts []image.Point
		for _, p := range res.GetResultPoints() {
			pts = append(pts, image.Pt(int(p.GetX()), int(p.GetY())))
		}
		code.Bounds = rectFromPoints(pts)
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, ErrNotFound
	}
	return codes, nil
}

// Lookup is Read for callers that treat a lid without codes as normal. Only
// unexpected failures are logged above debug level.
func (r *Reader) Lookup(ctx context.Context, img image.Image) []Code {
	codes, err := r.Read(ctx, img)
	switch {
	case errors.Is(err, ErrNotFound):
		slog.Debug("no barcode on lid")
		return nil
	case err != nil:
		slog.Warn("barcode read failed", "error", err)
		return nil
	}
	for _, c := range codes {
		slog.Debug("barcode found", "format", c.Format.String(), "value", c.Value)
	}
	return codes
}

// accepts filters families that decode more symbologies than requested.
func (r *Reader) accepts(f Format) bool {
	if len(r.opts.Formats) == 0 {
		return true
	}
	for _, o := range r.opts.Formats {
		if o == f {
			return true
		}
	}
	return false
}

func formatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return FormatDataMatrix
	case gozxing.BarcodeFormat_EAN_8:
		return FormatEAN8
	case gozxing.BarcodeFormat_EAN_13:
		return FormatEAN13
	case gozxing.BarcodeFormat_UPC_A:
		return FormatUPCA
	case gozxing.BarcodeFormat_UPC_E:
		return FormatUPCE
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	case gozxing.BarcodeFormat_CODE_39:
		return FormatCode39
	case gozxing.BarcodeFormat_ITF:
		return FormatITF
	default:
		return FormatUnknown
	}
}

func rectFromPoints(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}
	for _, p := range pts[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}
