package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/pipeline"
)

// MaxAttachmentBytes caps a single download. Chat voice messages are far smaller.
const MaxAttachmentBytes = 25 << 20

const defaultTimeout = 30 * time.Second

// AttachmentDownloader fetches attachment bytes from the chat CDN.
type AttachmentDownloader struct {
	client   *http.Client
	maxBytes int64
}

// NewAttachmentDownloader creates a downloader. A nil client gets a 30s timeout.
func NewAttachmentDownloader(client *http.Client) *AttachmentDownloader {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &AttachmentDownloader{client: client, maxBytes: MaxAttachmentBytes}
}

// Fetch downloads the attachment. Failures wrap ErrDownload.
func (d *AttachmentDownloader) Fetch(ctx context.Context, attachment pipeline.Attachment) ([]byte, error) {
	if attachment.URL == "" {
		return nil, apperrors.Stage(apperrors.ErrDownload, fmt.Errorf("attachment %q has no url", attachment.Filename))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrDownload, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Stage(apperrors.ErrDownload, fmt.Errorf("GET %s: %s", attachment.Filename, resp.Status))
	}
	if resp.ContentLength > d.maxBytes {
		return nil, apperrors.Stage(apperrors.ErrDownload,
			fmt.Errorf("attachment is %d bytes, limit is %d", resp.ContentLength, d.maxBytes))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, apperrors.Stage(apperrors.ErrDownload, err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, apperrors.Stage(apperrors.ErrDownload, fmt.Errorf("attachment exceeds %d bytes", d.maxBytes))
	}
	return body, nil
}
