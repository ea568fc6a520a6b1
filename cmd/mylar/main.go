// Command mylar converts a mask image into a 3D-printable stencil STL.
// Dark pixels become solid material, light pixels become cutouts, and a
// solid border frame is always added.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"github.com/mylar3d/mylar/pkg/raster"
	"github.com/mylar3d/mylar/pkg/stencil"
	"github.com/mylar3d/mylar/pkg/vectorize"
)

func main() {
	var (
		in        string
		out       string
		svgOut    string
		width     float64
		thickness float64
		border    float64
		maxRes    int
		workers   int
	)
	flag.StringVar(&in, "in", "", "input mask image (png, jpeg, gif, bmp, tiff)")
	flag.StringVar(&out, "o", "stencil.stl", "output STL file")
	flag.StringVar(&svgOut, "svg", "", "also write a traced SVG outline to this file")
	flag.Float64Var(&width, "width", 150, "physical width in mm, border included")
	flag.Float64Var(&thickness, "thickness", 0.8, "extrusion height in mm")
	flag.Float64Var(&border, "border", 3, "border frame thickness in mm")
	flag.IntVar(&maxRes, "max-resolution", 0, "cell ceiling on the wider axis (0 = default)")
	flag.IntVar(&workers, "workers", 1, "row-band emission workers")
	flag.Parse()

	logger := log.New(os.Stderr)
	if in == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		logger.Fatal("read input", "err", err)
	}
	img, err := raster.Decode(data)
	if err != nil {
		logger.Fatal("decode input", "err", err)
	}

	stlBytes, st, err := stencil.Generate(img, stencil.Params{
		WidthMM:       width,
		ThicknessMM:   thickness,
		BorderMM:      border,
		MaxResolution: maxRes,
		Workers:       workers,
	})
	if err != nil {
		logger.Fatal("generate stencil", "err", err)
	}
	if err := os.WriteFile(out, stlBytes, 0o644); err != nil {
		logger.Fatal("write stl", "err", err)
	}
	logger.Info("wrote stencil",
		"path", out,
		"grid", st.Rows*st.Cols,
		"cell_mm", st.CellSizeMM,
		"solid_cells", st.SolidCells,
		"triangles", st.Triangles,
		"bytes", st.SizeBytes)
	if st.Degenerate() {
		logger.Warn("mask was entirely void; output is the minimal fallback triangle")
	}

	if svgOut != "" {
		svg, err := vectorize.ToSVG(context.Background(), img, vectorize.DefaultOptions())
		if err != nil {
			logger.Fatal("trace svg", "err", err)
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0o644); err != nil {
			logger.Fatal("write svg", "err", err)
		}
		logger.Info("wrote outline", "path", svgOut)
	}
}
