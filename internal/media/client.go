// Package media handles texture download and finished-file upload.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"cruxcast/internal/pkg/errors"
)

// uploadContentType is fixed by the upload contract.
const uploadContentType = "video/mp4"

// Client performs the job runner's outbound HTTP calls.
type Client struct {
	client *http.Client
}

// NewClient creates a media client. A zero timeout defaults to ten minutes,
// long enough for large uploads on slow links.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{client: &http.Client{Timeout: timeout}}
}

// FetchTexture downloads and decodes a texture image.
func (c *Client) FetchTexture(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeTransport, "media.fetch", "invalid texture url")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeTransport, "media.fetch", "texture fetch failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Newf(errors.CodeTransport, "texture fetch http %d", res.StatusCode)
	}

	img, _, err := image.Decode(res.Body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInternal, "media.fetch", "texture decode failed")
	}
	return img, nil
}

// Upload PUTs the complete finished file to the given URL. No retries, no
// chunking.
func (c *Client) Upload(ctx context.Context, url, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeInternal, "media.upload", "failed to read output file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeTransport, "media.upload", "invalid upload url")
	}
	req.Header.Set("Content-Type", uploadContentType)
	req.ContentLength = int64(len(data))

	res, err := c.client.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeTransport, "media.upload", "upload failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.New(errors.CodeTransport, fmt.Sprintf("upload http %d", res.StatusCode))
	}
	return nil
}
