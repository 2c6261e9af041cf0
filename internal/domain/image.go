package domain

import "fmt"

// PlaceholderImage is returned for movies without a poster
const PlaceholderImage = "/placeholder-movie.jpg"

// ImageSize is a poster rendition size
type ImageSize string

const (
	ImageSizeSmall    ImageSize = "small"
	ImageSizeMedium   ImageSize = "medium"
	ImageSizeLarge    ImageSize = "large"
	ImageSizeOriginal ImageSize = "original"
)

// Token returns the CDN path token for the size
func (s ImageSize) Token() string {
	switch s {
	case ImageSizeSmall:
		return "w200"
	case ImageSizeLarge:
		return "w500"
	case ImageSizeOriginal:
		return "original"
	default:
		return "w300"
	}
}

// ParseImageSize converts a config value to an ImageSize
func ParseImageSize(s string) (ImageSize, error) {
	switch ImageSize(s) {
	case ImageSizeSmall, ImageSizeMedium, ImageSizeLarge, ImageSizeOriginal:
		return ImageSize(s), nil
	case "":
		return ImageSizeMedium, nil
	}
	return "", fmt.Errorf("unknown image size %q", s)
}
