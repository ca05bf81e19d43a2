package constants

import "strings"

// File formats handled by the converter and the page server.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// PageImageExt is the extension used for rasterized manual pages.
const PageImageExt = "jpg"

// TaskFileName is the task descriptor written next to the page images of a converted manual.
const TaskFileName = "data_json.json"

// AllowedExtensions holds the extensions the converter picks up from an inbox.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
	"gif":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns PDF or IMAGE for known extensions and "" otherwise.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if ext == "pdf" {
		return PDF
	}
	if _, ok := imageExtensions[ext]; ok {
		return IMAGE
	}
	return ""
}
