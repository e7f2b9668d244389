package proto

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// faviconSize is the fixed dimension the status response's icon field
// requires (spec-unrelated client requirement, but universal across
// vanilla and modded clients alike).
const faviconSize = 64

// LoadFavicon reads a PNG at path, resizes it to 64x64 if it isn't
// already, and returns it as the data URL StatusResponse.Favicon
// expects. It is the proxy's own icon, shown while the backend hasn't
// been probed yet; once the prober discovers the backend's own
// favicon that one takes precedence.
func LoadFavicon(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("proto: open favicon: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return "", fmt.Errorf("proto: decode favicon: %w", err)
	}

	b := img.Bounds()
	if b.Dx() != faviconSize || b.Dy() != faviconSize {
		img = resize.Resize(faviconSize, faviconSize, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("proto: encode favicon: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
