package scene

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/webp" // WebP decoder
)

const pngDataURIPrefix = "data:image/png;base64,"

// DecodeDataURI decodes a base64 image data URI.
func DecodeDataURI(uri string) (image.Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("not a base64 image data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// EncodeDataURI encodes raw image bytes of the given format as a data URI.
func EncodeDataURI(format string, raw []byte) string {
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// ImageFileDataURI sniffs raw image bytes and returns a data URI for them
// together with the image dimensions.
func ImageFileDataURI(raw []byte) (uri string, width, height int, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", 0, 0, fmt.Errorf("unsupported image: %w", err)
	}
	return EncodeDataURI(format, raw), cfg.Width, cfg.Height, nil
}

func pngDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding png: %w", err)
	}
	return pngDataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
