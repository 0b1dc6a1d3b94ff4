package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DecodeImage decodes a jpeg or png and reports its format ("jpeg" or "png").
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	if format != "jpeg" && format != "png" {
		return nil, "", ErrUnsupportedImage
	}
	return img, format, nil
}

// Thumbnail scales img down to maxWidth keeping its aspect ratio. Narrower
// images are returned unchanged.
func Thumbnail(img image.Image, maxWidth uint) image.Image {
	if uint(img.Bounds().Dx()) <= maxWidth {
		return img
	}
	return resize.Resize(maxWidth, 0, img, resize.Lanczos3)
}

func EncodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case "png":
		err = png.Encode(&buf, img)
	default:
		return nil, ErrUnsupportedImage
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Dimensions(img image.Image) ImageDimensions {
	b := img.Bounds()
	return ImageDimensions{Width: b.Dx(), Height: b.Dy()}
}

func IsValidImageFormat(filename string) bool {
	return containsString(AllowedImageTypes, strings.ToLower(filepath.Ext(filename)))
}

func ImageContentType(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

func ImageExtension(format string) string {
	if format == "png" {
		return ".png"
	}
	return ".jpg"
}
