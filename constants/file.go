package constants

import "strings"

// AllowedImageExtensions holds the image extensions accepted for price-tag uploads.
var AllowedImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// MaxImageBytes caps uploads sent to the vision model.
const MaxImageBytes = 20 * 1024 * 1024

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsImageExt reports whether ext (with or without dot) is an accepted image extension.
func IsImageExt(ext string) bool {
	_, ok := AllowedImageExtensions[NormalizeExt(ext)]
	return ok
}
