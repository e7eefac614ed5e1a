// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Size is a canvas size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// titleScale enlarges the 7x13 bitmap face used for figure titles.
const titleScale = 2

// Figure is an explicit rows x cols canvas. Charts are placed into it through
// Panel handles and the composition is rasterized on demand.
type Figure struct {
	Rows  int
	Cols  int
	Size  Size
	Title string

	panels map[[2]int]image.Image
}

// NewFigure allocates an empty grid.
func NewFigure(rows, cols int, size Size) *Figure {
	return &Figure{
		Rows:   rows,
		Cols:   cols,
		Size:   size,
		panels: map[[2]int]image.Image{},
	}
}

// Panel is a handle to one cell of a Figure.
type Panel struct {
	fig      *Figure
	row, col int
}

// Panel returns the handle for (row, col), zero based.
func (f *Figure) Panel(row, col int) (*Panel, error) {
	if row < 0 || row >= f.Rows || col < 0 || col >= f.Cols {
		return nil, fmt.Errorf("panel (%d,%d) outside a %dx%d figure", row, col, f.Rows, f.Cols)
	}
	return &Panel{fig: f, row: row, col: col}, nil
}

// PanelCount is the number of panels drawn so far.
func (f *Figure) PanelCount() int {
	return len(f.panels)
}

func (f *Figure) titleBand() int {
	lines := 0
	if f.Title != "" {
		lines = len(strings.Split(f.Title, "\n"))
	}
	if lines == 0 {
		return 0
	}
	return 16 + lines*basicfont.Face7x13.Height*titleScale
}

// Size of one cell.
func (p *Panel) Size() Size {
	f := p.fig
	return Size{
		Width:  f.Size.Width / f.Cols,
		Height: (f.Size.Height - f.titleBand()) / f.Rows,
	}
}

func (p *Panel) place(img image.Image) {
	p.fig.panels[[2]int{p.row, p.col}] = img
}

// Image composes the title and every placed panel.
func (f *Figure) Image() *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, f.Size.Width, f.Size.Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	band := f.titleBand()
	if band > 0 {
		drawTitle(canvas, f.Title, band)
	}

	for key, img := range f.panels {
		p := Panel{fig: f, row: key[0], col: key[1]}
		ps := p.Size()
		origin := image.Pt(key[1]*ps.Width, band+key[0]*ps.Height)
		dst := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(ps.Width, ps.Height))}
		draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Over)
	}
	return canvas
}

// drawTitle renders each line centered with the basic bitmap face, then
// scales it up into the title band.
func drawTitle(dst *image.RGBA, title string, band int) {
	face := basicfont.Face7x13
	lines := strings.Split(title, "\n")

	smallW := dst.Bounds().Dx() / titleScale
	smallH := band / titleScale
	small := image.NewRGBA(image.Rect(0, 0, smallW, smallH))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)

	dr := &font.Drawer{Dst: small, Src: image.NewUniform(color.Black), Face: face}
	y := 4 + face.Metrics().Ascent.Ceil()
	for _, line := range lines {
		w := dr.MeasureString(line).Ceil()
		dr.Dot = fixed.Point26_6{X: fixed.I((smallW - w) / 2), Y: fixed.I(y)}
		dr.DrawString(line)
		y += face.Height
	}

	draw.NearestNeighbor.Scale(dst, image.Rect(0, 0, smallW*titleScale, smallH*titleScale), small, small.Bounds(), draw.Src, nil)
}

// Encode writes the composed figure as PNG or JPEG, chosen by ext.
func (f *Figure) Encode(w io.Writer, ext string) error {
	img := f.Image()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png", "":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90}) //nolint:mnd
	default:
		return fmt.Errorf("unsupported figure format %q", ext)
	}
}

// Save persists the figure under the dated and latest names for name and
// kind.
func (f *Figure) Save(dir, name string, kind Kind, date time.Time, ext string) (Artifact, error) {
	a, err := persist(dir, name, kind, date, ext, func(w io.Writer) error {
		return f.Encode(w, ext)
	})
	if err != nil {
		return Artifact{}, err
	}
	logSaved("Figure", a)
	return a, nil
}
