package seed

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"path"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 400
	placeholderHeight = 300
	jpegQuality       = 85
	labelScale        = 5
	borderWidth       = 3
)

var (
	borderColor = color.RGBA{200, 200, 200, 255}
	shadowColor = color.NRGBA{0, 0, 0, 128}
)

func placeholderName(d Dish) string {
	return strings.ToLower(d.Name) + ".jpg"
}

// writePlaceholder returns "" when the file already exists.
func (s *Seeder) writePlaceholder(d Dish) (string, error) {
	name := placeholderName(d)
	p := path.Join(s.dir, name)

	exists, err := afero.Exists(s.fs, p)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", p, err)
	}
	if exists {
		return "", nil
	}

	f, err := s.fs.Create(p)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", p, err)
	}
	if err := jpeg.Encode(f, renderPlaceholder(d), &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		_ = s.fs.Remove(p)
		return "", fmt.Errorf("encode %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", p, err)
	}
	return name, nil
}

func renderPlaceholder(d Dish) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(d.Background), image.Point{}, draw.Src)

	label := textMask(d.Name)
	w, h := label.Bounds().Dx()*labelScale, label.Bounds().Dy()*labelScale
	x, y := (placeholderWidth-w)/2, (placeholderHeight-h)/2

	stamp(img, image.Rect(x+2, y+2, x+2+w, y+2+h), label, shadowColor)
	stamp(img, image.Rect(x, y, x+w, y+h), label, d.Text)

	b := img.Bounds()
	frame := image.NewUniform(borderColor)
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+borderWidth),
		image.Rect(b.Min.X, b.Max.Y-borderWidth, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+borderWidth, b.Max.Y),
		image.Rect(b.Max.X-borderWidth, b.Min.Y, b.Max.X, b.Max.Y),
	} {
		draw.Draw(img, r, frame, image.Point{}, draw.Src)
	}
	return img
}

// textMask renders s in the built-in bitmap face at 1:1.
func textMask(s string) *image.Alpha {
	face := basicfont.Face7x13
	d := &font.Drawer{Src: image.Opaque, Face: face}
	width := d.MeasureString(s).Ceil()

	mask := image.NewAlpha(image.Rect(0, 0, width, face.Height))
	d.Dst = mask
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(s)
	return mask
}

// stamp scales mask to fill r and paints c through it.
func stamp(dst *image.RGBA, r image.Rectangle, mask *image.Alpha, c color.Color) {
	scaled := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, scaled, image.Point{}, draw.Over)
}
