package downloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "vm-transcriber/internal/app/errors"
	"vm-transcriber/internal/app/pipeline"
)

func TestAttachmentDownloader_Fetch(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		maxBytes   int64
		wantBody   string
		wantErr    bool
		errContain string
	}{
		{
			name:     "ok",
			status:   http.StatusOK,
			body:     "OggS voice bytes",
			wantBody: "OggS voice bytes",
		},
		{
			name:       "expired cdn link",
			status:     http.StatusNotFound,
			body:       "not found",
			wantErr:    true,
			errContain: "404",
		},
		{
			name:       "oversized attachment",
			status:     http.StatusOK,
			body:       strings.Repeat("x", 64),
			maxBytes:   16,
			wantErr:    true,
			errContain: "limit is 16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("Expected GET, got %s", r.Method)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			d := NewAttachmentDownloader(server.Client())
			if tt.maxBytes > 0 {
				d.maxBytes = tt.maxBytes
			}

			got, err := d.Fetch(context.Background(), pipeline.Attachment{
				URL:      server.URL + "/attachments/2000/1100/voice-message.ogg",
				Filename: "voice-message.ogg",
			})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Fetch() expected error, got nil")
				}
				if !errors.Is(err, apperrors.ErrDownload) {
					t.Errorf("Fetch() error = %v, want ErrDownload", err)
				}
				if !strings.Contains(err.Error(), tt.errContain) {
					t.Errorf("Fetch() error = %v, want it to contain %q", err, tt.errContain)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v, want nil", err)
			}
			if string(got) != tt.wantBody {
				t.Errorf("Fetch() = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestAttachmentDownloader_MissingURL(t *testing.T) {
	_, err := NewAttachmentDownloader(nil).Fetch(context.Background(), pipeline.Attachment{Filename: "voice-message.ogg"})
	if !errors.Is(err, apperrors.ErrDownload) {
		t.Errorf("Fetch() error = %v, want ErrDownload", err)
	}
}

func TestAttachmentDownloader_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAttachmentDownloader(server.Client()).Fetch(ctx, pipeline.Attachment{URL: server.URL})
	if !errors.Is(err, apperrors.ErrDownload) {
		t.Errorf("Fetch() error = %v, want ErrDownload", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled in chain", err)
	}
}
