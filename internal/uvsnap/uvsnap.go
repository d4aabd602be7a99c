// Package uvsnap renders face division loops in surface parameter space
// to PNG images for diagnostics.
package uvsnap

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"golang.org/x/image/vector"
)

// Loop is one closed polygon in parameter space with its fill shade.
type Loop struct {
	Pts   []v2.Vec
	Shade uint8
}

// margin keeps loop geometry off the image border, as a fraction of the
// image size.
const margin = 0.08

// Write renders the loops into a size-by-size PNG at path, creating the
// directory if needed. The parameter hull of all loops is fitted into the
// image; the v axis points up.
func Write(path string, size int, loops []Loop) error {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, l := range loops {
		for _, p := range l.Pts {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	span := math.Max(maxX-minX, maxY-minY)
	if math.IsInf(minX, 1) || span <= 0 {
		minX, minY, span = 0, 0, 1
	}
	pad := margin * float64(size)
	scale := (float64(size) - 2*pad) / span
	toPix := func(p v2.Vec) (float32, float32) {
		x := pad + (p.X-minX)*scale
		y := float64(size) - pad - (p.Y-minY)*scale
		return float32(x), float32(y)
	}

	for _, l := range loops {
		if len(l.Pts) < 3 {
			continue
		}
		z := vector.NewRasterizer(size, size)
		x, y := toPix(l.Pts[0])
		z.MoveTo(x, y)
		for _, p := range l.Pts[1:] {
			x, y = toPix(p)
			z.LineTo(x, y)
		}
		z.ClosePath()
		z.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: l.Shade}), image.Point{})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}
