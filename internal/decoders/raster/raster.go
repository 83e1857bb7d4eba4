// Package raster decodes 2D raster images as single-slice volumes. Still images
// become a one-step sequence; animated GIF frames become successive time-steps.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

// Decoder implements decoder.Decoder for png, jpeg and gif files.
type Decoder struct{}

// New returns the image decoder.
func New() *Decoder {
	return &Decoder{}
}

// Info implements decoder.Decoder.
func (d *Decoder) Info() decoder.Info {
	return decoder.Info{
		Name:    "image",
		Version: "1.0.0",
		Extensions: []decoder.Extension{
			{Ext: "png", Description: "PNG image slice"},
			{Ext: "jpg", Description: "JPEG image slice"},
			{Ext: "jpeg", Description: "JPEG image slice"},
			{Ext: "gif", Description: "GIF image or animation"},
		},
	}
}

// Decode implements decoder.Decoder.
func (d *Decoder) Decode(ctx context.Context, path string, progress decoder.ProgressFunc) (*volume.Sequence, error) {
	frames, err := loadFrames(path)
	if err != nil {
		return nil, err
	}

	seq := &volume.Sequence{Source: filepath.Base(path), Steps: make([]*volume.Volume, 0, len(frames))}
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bounds := frame.Bounds()
		vol, err := volume.NewVolume([3]int{bounds.Dx(), bounds.Dy(), 1}, imageToFloat(frame))
		if err != nil {
			return nil, err
		}
		vol.Information.ValueRange = volume.Range{Min: 0, Max: 1}
		vol.Information.ValueName = "intensity"
		vol.Information.Axes = volume.DefaultAxes()
		seq.Steps = append(seq.Steps, vol.WithMeta(volume.MetaFilename, seq.Source))
		if progress != nil {
			progress(float64(i+1) / float64(len(frames)))
		}
	}
	return seq, nil
}

func loadFrames(path string) ([]image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch decoder.ExtensionOf(path) {
	case "png":
		img, err := png.Decode(file)
		if err != nil {
			return nil, err
		}
		return []image.Image{img}, nil
	case "jpg", "jpeg":
		img, err := jpeg.Decode(file)
		if err != nil {
			return nil, err
		}
		return []image.Image{img}, nil
	case "gif":
		anim, err := gif.DecodeAll(file)
		if err != nil {
			return nil, err
		}
		return composite(anim), nil
	default:
		return nil, fmt.Errorf("unsupported image extension %q", decoder.ExtensionOf(path))
	}
}

// composite renders each GIF frame onto the logical screen so every time-step
// has the same dimensions.
func composite(anim *gif.GIF) []image.Image {
	bounds := image.Rect(0, 0, anim.Config.Width, anim.Config.Height)
	if bounds.Empty() && len(anim.Image) > 0 {
		bounds = anim.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	out := make([]image.Image, 0, len(anim.Image))
	for _, frame := range anim.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		snapshot := image.NewRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)
		out = append(out, snapshot)
	}
	return out
}

// imageToFloat converts an image to luminance in [0,1], row-major.
func imageToFloat(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			result[y*width+x] = float64(gray.Y) / 65535.0
		}
	}
	return result
}

var _ decoder.Decoder = (*Decoder)(nil)
