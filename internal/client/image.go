package client

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/fatkhan05/ai-try-on/internal/tryon"
)

const (
	targetSize    = 512
	targetQuality = 80
)

// Preprocess scales a captured frame to 512x512 and re-encodes it as a
// JPEG data URL.
func Preprocess(imageData string) (string, error) {
	src, err := decode(imageData)
	if err != nil {
		return "", err
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetSize, targetSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: targetQuality}); err != nil {
		return "", fmt.Errorf("encode resized frame: %w", err)
	}
	return tryon.EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

// Resolution is an image size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageQuality is the local pre-flight check of a captured frame.
type ImageQuality struct {
	IsValid         bool       `json:"isValid"`
	Resolution      Resolution `json:"resolution"`
	Quality         string     `json:"quality"`
	Recommendations []string   `json:"recommendations"`
}

// ValidateImageQuality decodes a data URL and grades it by resolution.
func ValidateImageQuality(imageData string) ImageQuality {
	img, err := decode(imageData)
	if err != nil {
		return ImageQuality{
			Quality:         "unknown",
			Recommendations: []string{"Recapture the photo; the image could not be decoded."},
		}
	}

	b := img.Bounds()
	q := ImageQuality{
		IsValid:         true,
		Resolution:      Resolution{Width: b.Dx(), Height: b.Dy()},
		Recommendations: []string{},
	}

	switch {
	case b.Dx() >= 1280 && b.Dy() >= 720:
		q.Quality = "excellent"
	case b.Dx() >= 640 && b.Dy() >= 480:
		q.Quality = "good"
	case b.Dx() >= targetSize/2 && b.Dy() >= targetSize/2:
		q.Quality = "fair"
		q.Recommendations = append(q.Recommendations, "Move closer to the camera or use a higher resolution.")
	default:
		q.IsValid = false
		q.Quality = "poor"
		q.Recommendations = append(q.Recommendations, "Image resolution is too low for try-on.")
	}
	return q
}

func decode(imageData string) (image.Image, error) {
	u, err := tryon.ParseDataURL(imageData)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s frame: %w", u.MimeType, err)
	}
	return img, nil
}
