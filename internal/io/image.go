package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// jpegQuality is used for every re-encoded image.
const jpegQuality = 90

// ImageService provides optional post-processing for downloaded images.
//
// ImageService is used to:
//   - Resize images to fit maximum dimensions
//   - Convert images to JPEG, since stored files always carry .jpg
//   - Caption images with their APOD title
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Resize to max 1024x1024 and convert to JPEG
//	resized, _ := svc.ResizeImage(ctx, imageData, 1024, 1024)
//	jpeg, _ := svc.ConvertToJPEG(ctx, resized)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// DetectFormat returns the registered format name of data ("jpeg", "png",
// "gif", "webp"), reading only the header.
func (s *ImageService) DetectFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return format, nil
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved. If the image is already smaller than the
// maximum dimensions, it will still be processed (re-encoded as JPEG).
//
// Parameters:
//   - ctx: Context for cancellation (currently unused)
//   - data: Original image data (JPEG, PNG, GIF, WebP)
//   - maxWidth: Maximum width in pixels
//   - maxHeight: Maximum height in pixels
//
// Returns the resized image as JPEG-encoded bytes.
//
// The Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// Resize to fit within 1000x1000, maintaining aspect ratio
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
//	// A 1500x1000 image becomes 1000x666
//	// A 800x600 image remains 800x600 (but re-encoded)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Calculate new dimensions maintaining aspect ratio
	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

// ConvertToJPEG converts an image to JPEG format.
//
// Parameters:
//   - ctx: Context for cancellation (currently unused)
//   - data: Original image data (JPEG, PNG, GIF, WebP)
//
// Returns the image as JPEG-encoded bytes with 90% quality.
//
// Note: If the input is already JPEG, it will be re-encoded. Use
// DetectFormat first to avoid that.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return encodeJPEG(img)
}

// Caption draws text on a dark band along the bottom edge of the image and
// returns the result as JPEG.
//
// The text uses a 7x13 bitmap font and is cut short with "..." when it does
// not fit the image width.
func (s *ImageService) Caption(ctx context.Context, data []byte, text string) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Src)

	const (
		padding    = 6
		fontHeight = 13
	)
	bandHeight := fontHeight + 2*padding
	if bandHeight > canvas.Bounds().Dy() {
		bandHeight = canvas.Bounds().Dy()
	}
	band := image.Rect(0, canvas.Bounds().Dy()-bandHeight, canvas.Bounds().Dx(), canvas.Bounds().Dy())
	draw.Draw(canvas, band, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(padding),
			Y: fixed.I(band.Max.Y - padding - basicfont.Face7x13.Descent),
		},
	}
	d.DrawString(fitText(d, text, canvas.Bounds().Dx()-2*padding))

	return encodeJPEG(canvas)
}

// fitText shortens text until it fits within maxWidth pixels.
func fitText(d *font.Drawer, text string, maxWidth int) string {
	limit := fixed.I(maxWidth)
	if d.MeasureString(text) <= limit {
		return text
	}

	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if d.MeasureString(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
