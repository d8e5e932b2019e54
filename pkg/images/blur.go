package images

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// BlurRadius matches the privacy blur applied to found-document
// images before they are shown publicly.
const BlurRadius = 25

// BlurJPEG reads an image, applies a strong Gaussian blur and
// re-encodes it as JPEG. The blurred copy is the only rendition the
// public listing endpoints ever reference.
func BlurJPEG(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	blurred := imaging.Blur(img, BlurRadius)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, blurred, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode blurred image: %w", err)
	}
	return buf.Bytes(), nil
}
