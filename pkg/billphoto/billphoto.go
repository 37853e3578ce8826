// Package billphoto prepares utility-bill photos for upload.
package billphoto

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/zfogg/dormdesk/pkg/logger"
)

const (
	DefaultMaxWidth = 1600
	DefaultQuality  = 82
	ContentType     = "image/jpeg"
)

// Options controls the output size and quality
type Options struct {
	MaxWidth int
	Quality  int
}

// Photo is an encoded JPEG ready for upload
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// ContentType is always JPEG
func (p *Photo) ContentType() string {
	return ContentType
}

// Reader returns a fresh reader over the encoded bytes
func (p *Photo) Reader() io.Reader {
	return bytes.NewReader(p.Data)
}

// Prepare decodes a JPEG or PNG, applies its EXIF orientation, scales it
// down to MaxWidth and re-encodes it as JPEG
func Prepare(r io.Reader, opts Options) (*Photo, error) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > opts.MaxWidth {
		logger.Debug("Downscaling bill photo", "from", bounds.Dx(), "to", opts.MaxWidth)
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}

	out := img.Bounds()
	return &Photo{Data: buf.Bytes(), Width: out.Dx(), Height: out.Dy()}, nil
}
