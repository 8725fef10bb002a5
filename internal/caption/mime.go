package caption

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"ytbridge/internal/catalog"
)

var mimeAliases = map[string]string{
	"text/vtt":                 "vtt",
	"text/webvtt":              "vtt",
	"application/x-subrip":     "srt",
	"application/srt":          "srt",
	"text/srt":                 "srt",
	"application/ttml+xml":     "dfxp",
	"application/ttaf+xml":     "dfxp",
	"application/dfxp+xml":     "dfxp",
	"text/x-ssa":               "ssa",
	"application/x-ssa":        "ssa",
	"application/x-ass":        "ass",
	"application/x-sami":       "sami",
	"application/smil+xml":     "smil",
	"text/plain":               "",
	"application/octet-stream": "",
}

// NormalizeMimeType reduces a MIME type or bare extension to the short format
// name used by the allow-list ("text/vtt" becomes "vtt").
func NormalizeMimeType(mime string) string {
	value := strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.IndexByte(value, ';'); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	if value == "" {
		return ""
	}
	if !strings.Contains(value, "/") {
		return strings.TrimPrefix(value, ".")
	}
	if alias, ok := mimeAliases[value]; ok {
		return alias
	}
	subtype := value[strings.IndexByte(value, '/')+1:]
	subtype = strings.TrimPrefix(subtype, "x-")
	if idx := strings.IndexByte(subtype, '+'); idx > 0 {
		subtype = subtype[:idx]
	}
	return subtype
}

// MaterialFormat returns the normalized format of a material, sniffing the
// file content when the catalog did not record a MIME type and falling back to
// the file extension.
func MaterialFormat(m catalog.Material) string {
	if format := NormalizeMimeType(m.MimeType); format != "" {
		return format
	}
	if m.Path != "" {
		if detected, err := mimetype.DetectFile(m.Path); err == nil {
			if format := NormalizeMimeType(detected.String()); format != "" {
				return format
			}
		}
	}
	return NormalizeMimeType(filepath.Ext(m.Path))
}
