package rectify

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/sync/errgroup"
)

// minBandRows keeps row bands large enough to amortise goroutine startup.
const minBandRows = 16

// sampler writes the colour at continuous pixel-index coordinates (x, y)
// of src into px (4 bytes, NRGBA).
type sampler func(src *image.NRGBA, x, y float64, bg color.NRGBA, px []uint8)

func samplerFor(mode Interpolation) sampler {
	if mode == InterpolationNearest {
		return nearestSample
	}
	return bilinearSample
}

// warpPerspective fills a dstW x dstH image by mapping each destination
// pixel centre through inv into src. inv maps continuous destination
// coordinates to continuous source coordinates, both with pixel (0,0)
// spanning [0,1)x[0,1).
func warpPerspective(src *image.NRGBA, inv Homography, dstW, dstH int, cfg Config) (*image.NRGBA, error) {
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	sample := samplerFor(cfg.Interpolation)
	bg := cfg.Background

	workers := cfg.workers()
	band := max(minBandRows, (dstH+workers-1)/workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < dstH; y0 += band {
		y1 := min(y0+band, dstH)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				row := out.Pix[y*out.Stride:]
				for x := range dstW {
					px := row[x*4 : x*4+4]
					sx, sy, ok := inv.Apply(float64(x)+0.5, float64(y)+0.5)
					if !ok {
						setNRGBA(px, bg)
						continue
					}
					sample(src, sx-0.5, sy-0.5, bg, px)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// outside reports whether (x, y) lies beyond the half-pixel border around
// the pixel centres of src.
func outside(src *image.NRGBA, x, y float64) bool {
	b := src.Bounds()
	return math.IsNaN(x) || math.IsNaN(y) ||
		x < -0.5 || y < -0.5 ||
		x > float64(b.Dx())-0.5 || y > float64(b.Dy())-0.5
}

func nearestSample(src *image.NRGBA, x, y float64, bg color.NRGBA, px []uint8) {
	if outside(src, x, y) {
		setNRGBA(px, bg)
		return
	}
	b := src.Bounds()
	ix := clampIndex(int(math.Floor(x+0.5)), b.Dx())
	iy := clampIndex(int(math.Floor(y+0.5)), b.Dy())
	copy(px, src.Pix[iy*src.Stride+ix*4:iy*src.Stride+ix*4+4])
}

func bilinearSample(src *image.NRGBA, x, y float64, bg color.NRGBA, px []uint8) {
	if outside(src, x, y) {
		setNRGBA(px, bg)
		return
	}
	b := src.Bounds()
	fx0 := math.Floor(x)
	fy0 := math.Floor(y)
	fx := x - fx0
	fy := y - fy0
	x0 := clampIndex(int(fx0), b.Dx())
	y0 := clampIndex(int(fy0), b.Dy())
	x1 := clampIndex(int(fx0)+1, b.Dx())
	y1 := clampIndex(int(fy0)+1, b.Dy())

	c00 := src.Pix[y0*src.Stride+x0*4:]
	c10 := src.Pix[y0*src.Stride+x1*4:]
	c01 := src.Pix[y1*src.Stride+x0*4:]
	c11 := src.Pix[y1*src.Stride+x1*4:]
	for i := range 4 {
		top := lerp(float64(c00[i]), float64(c10[i]), fx)
		bot := lerp(float64(c01[i]), float64(c11[i]), fx)
		px[i] = uint8(math.Min(255, lerp(top, bot, fy)+0.5))
	}
}

func setNRGBA(px []uint8, c color.NRGBA) {
	px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
