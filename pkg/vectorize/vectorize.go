// Package vectorize produces SVG outlines from a mask by delegating to the
// external potrace tracer. Tracing quality knobs map directly onto potrace
// flags; everything else (temp files, inversion to potrace's black-on-white
// convention) is handled here.
package vectorize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/image/bmp"

	"github.com/mylar3d/mylar/pkg/raster"
)

// Options control the potrace invocation.
type Options struct {
	TurdSize int     // suppress speckles up to this size
	AlphaMax float64 // corner smoothing: 0 is sharp, 1.334 is smooth
	Potrace  string  // tracer binary; "potrace" resolved from PATH if empty
}

// DefaultOptions returns the tracing defaults.
func DefaultOptions() Options {
	return Options{TurdSize: 10, AlphaMax: 1.0}
}

// ToSVG traces the mask's ink regions (samples >= 128) into an SVG document.
// The context cancels the tracer process.
func ToSVG(ctx context.Context, r *raster.Raster, opts Options) (string, error) {
	bin := opts.Potrace
	if bin == "" {
		bin = "potrace"
	}

	dir, err := os.MkdirTemp("", "mylar-trace-")
	if err != nil {
		return "", fmt.Errorf("vectorize: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	bmpPath := filepath.Join(dir, "input.bmp")
	svgPath := filepath.Join(dir, "output.svg")

	if err := writeBMP(bmpPath, invert(r)); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, bin,
		bmpPath,
		"-s",
		"-o", svgPath,
		"--turdsize", strconv.Itoa(opts.TurdSize),
		"--alphamax", strconv.FormatFloat(opts.AlphaMax, 'f', -1, 64),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("vectorize: potrace: %w: %s", err, stderr.String())
	}

	svg, err := os.ReadFile(svgPath)
	if err != nil {
		return "", fmt.Errorf("vectorize: read potrace output: %w", err)
	}
	return string(svg), nil
}

// invert flips the mask so ink becomes black foreground, which is what
// potrace traces.
func invert(r *raster.Raster) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, r.W, r.H))
	for i, v := range r.Pix {
		g.Pix[i] = 255 - v
	}
	return g
}

func writeBMP(path string, img *image.Gray) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vectorize: create %s: %w", path, err)
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("vectorize: encode bmp: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("vectorize: close %s: %w", path, err)
	}
	return nil
}
