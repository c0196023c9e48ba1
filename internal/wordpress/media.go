package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

const defaultMaxImageBytes = 20 << 20

// Media is an uploaded attachment.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
	MimeType  string `json:"mime_type"`
	Slug      string `json:"slug"`
}

// ProcessedImage describes an uploaded image in the shape the portal front
// end consumes. All refs point at the same source URL; WordPress builds the
// size variants on its side.
type ProcessedImage struct {
	ID           int    `json:"id"`
	ThumbnailRef string `json:"thumbnailRef"`
	StandardRef  string `json:"standardRef"`
	HighResRef   string `json:"highResRef"`
	OriginalURL  string `json:"originalUrl"`
}

// NewProcessedImage wraps an uploaded media item.
func NewProcessedImage(m *Media) *ProcessedImage {
	return &ProcessedImage{
		ID:           m.ID,
		ThumbnailRef: m.SourceURL,
		StandardRef:  m.SourceURL,
		HighResRef:   m.SourceURL,
		OriginalURL:  m.SourceURL,
	}
}

// UploadImage uploads raw image bytes to the media library. The content
// type is sniffed from the data; anything that is not an image is refused.
func (c *Client) UploadImage(ctx context.Context, data []byte, filename string) (*ProcessedImage, error) {
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return nil, fmt.Errorf("failed to upload %s: not an image", filename)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", kind.MIME.Value)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		url:         c.apiEndpoint("/media", nil),
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var media Media
	if err := decodeBody(resp.Body, &media); err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	return NewProcessedImage(&media), nil
}

// UploadImageFromURL downloads a remote image, downscales it when it is
// wider than the configured maximum and uploads it under filename.
func (c *Client) UploadImageFromURL(ctx context.Context, imageURL, filename string) (*ProcessedImage, error) {
	data, err := c.download(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", imageURL, err)
	}

	resized, err := c.downscale(data, filename)
	if err != nil {
		slog.Debug("Image downscale skipped", "url", imageURL, "error", err)
	} else {
		data = resized
	}

	return c.UploadImage(ctx, data, filename)
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	// image hosts are not the WordPress site; only the shared limiter applies
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", c.maxImageBytes)
	}
	return data, nil
}

// downscale returns data unchanged when the image already fits.
func (c *Client) downscale(data []byte, filename string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() <= c.maxImageWidth {
		return data, nil
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		format = imaging.JPEG
	}
	img = imaging.Resize(img, c.maxImageWidth, 0, imaging.Lanczos)

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
