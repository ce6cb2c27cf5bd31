package imageupload

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kailas-cloud/reformhub/internal/domain"
)

// defaultExtension is used for any content type missing from extensions.
const defaultExtension = ".jpg"

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/pjpeg":   ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/avif":    ".avif",
}

// Extension maps a media type to a file extension, defaulting to ".jpg".
func Extension(contentType string) string {
	if ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]; ok {
		return ext
	}
	return defaultExtension
}

// ContentType settles the stored media type. A declared image type is trusted;
// otherwise the body is sniffed. Text bodies such as HTML error pages are rejected.
func ContentType(declared string, body []byte) (string, error) {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if strings.HasPrefix(declared, "image/") {
		return declared, nil
	}

	sniffed := mimetype.Detect(body)
	mt := strings.ToLower(sniffed.String())
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return mt, nil
	case strings.HasPrefix(mt, "text/"), strings.HasPrefix(declared, "text/"):
		return "", domain.ErrUnsupportedMedia
	case declared != "":
		return declared, nil
	default:
		return mt, nil
	}
}

// Key derives the storage key for an image of resource id fetched from srcURL.
// The same source always lands on the same key.
func Key(id, srcURL, contentType string) string {
	sum := sha256.Sum256([]byte(srcURL))
	return "resources/" + sanitize(id) + "/" + hex.EncodeToString(sum[:])[:16] + Extension(contentType)
}

func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
