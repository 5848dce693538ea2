// -----------------------------------------------------------------------
// File Transfer - moves documents between the browser automation
// environment and local disk via the file relay API
// -----------------------------------------------------------------------

package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
)

// NotFoundError indicates the requested remote file does not exist.
type NotFoundError struct {
	RemotePath string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote file not found: %s", e.RemotePath)
}

// TransferError indicates a transfer started but did not complete.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed for %s: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Service implements FileTransfer against the file relay API. Downloads
// are a two-step export-then-fetch: the relay first exports the remote
// file and returns a temporary URL, then the file is streamed to the
// local work directory. Uploads run the same flow in reverse against a
// pre-signed URL.
type Service struct {
	config  *common.TransferConfig
	workDir string
	client  *http.Client
	logger  arbor.ILogger
}

// NewService creates a file transfer service. Downloaded files land in
// workDir.
func NewService(config *common.TransferConfig, workDir string, logger arbor.ILogger) (*Service, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("transfer base URL is required")
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory %s: %w", workDir, err)
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	return &Service{
		config:  config,
		workDir: workDir,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type exportRequest struct {
	Path string `json:"path"`
}

type exportResponse struct {
	URL string `json:"url"`
}

type uploadURLRequest struct {
	Name string `json:"name"`
}

type uploadURLResponse struct {
	URL       string `json:"url"`
	PublicURL string `json:"public_url"`
}

// Download exports a remote file and streams it into the work directory,
// returning the local path.
func (s *Service) Download(ctx context.Context, remotePath string) (string, error) {
	s.logger.Debug().Str("remote_path", remotePath).Msg("Exporting remote file")

	downloadURL, err := s.exportFile(ctx, remotePath)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(s.workDir, filepath.Base(remotePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", &TransferError{Path: remotePath, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransferError{Path: remotePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", &NotFoundError{RemotePath: remotePath}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &TransferError{Path: remotePath, Err: fmt.Errorf("download returned status %d", resp.StatusCode)}
	}

	f, err := os.Create(localPath)
	if err != nil {
		return "", &TransferError{Path: remotePath, Err: err}
	}
	defer f.Close()

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(localPath)
		return "", &TransferError{Path: remotePath, Err: err}
	}

	s.logger.Info().
		Str("remote_path", remotePath).
		Str("local_path", localPath).
		Int64("bytes", written).
		Msg("Downloaded remote file")

	return localPath, nil
}

// Upload stores a local file via a pre-signed URL and returns the
// durable public URL.
func (s *Service) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{RemotePath: localPath}
		}
		return "", &TransferError{Path: localPath, Err: err}
	}

	uploadURL, publicURL, err := s.uploadURL(ctx, filepath.Base(localPath))
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", &TransferError{Path: localPath, Err: err}
	}
	req.Header.Set("Content-Type", contentTypeFor(localPath))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransferError{Path: localPath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransferError{Path: localPath, Err: fmt.Errorf("upload returned status %d", resp.StatusCode)}
	}

	s.logger.Info().
		Str("local_path", localPath).
		Str("public_url", publicURL).
		Int("bytes", len(data)).
		Msg("Uploaded file")

	return publicURL, nil
}

// exportFile asks the relay to export a remote file and returns the
// temporary download URL.
func (s *Service) exportFile(ctx context.Context, remotePath string) (string, error) {
	body, err := json.Marshal(exportRequest{Path: remotePath})
	if err != nil {
		return "", &TransferError{Path: remotePath, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/files/export", bytes.NewReader(body))
	if err != nil {
		return "", &TransferError{Path: remotePath, Err: err}
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransferError{Path: remotePath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", &NotFoundError{RemotePath: remotePath}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &TransferError{Path: remotePath, Err: fmt.Errorf("export returned status %d", resp.StatusCode)}
	}

	var export exportResponse
	if err := json.NewDecoder(resp.Body).Decode(&export); err != nil {
		return "", &TransferError{Path: remotePath, Err: fmt.Errorf("invalid export response: %w", err)}
	}
	if export.URL == "" {
		return "", &TransferError{Path: remotePath, Err: fmt.Errorf("export response missing url")}
	}

	return export.URL, nil
}

// uploadURL requests a pre-signed upload slot for a file name.
func (s *Service) uploadURL(ctx context.Context, name string) (string, string, error) {
	body, err := json.Marshal(uploadURLRequest{Name: name})
	if err != nil {
		return "", "", &TransferError{Path: name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/files/upload-url", bytes.NewReader(body))
	if err != nil {
		return "", "", &TransferError{Path: name, Err: err}
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", &TransferError{Path: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &TransferError{Path: name, Err: fmt.Errorf("upload-url returned status %d", resp.StatusCode)}
	}

	var slot uploadURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&slot); err != nil {
		return "", "", &TransferError{Path: name, Err: fmt.Errorf("invalid upload-url response: %w", err)}
	}
	if slot.URL == "" || slot.PublicURL == "" {
		return "", "", &TransferError{Path: name, Err: fmt.Errorf("upload-url response incomplete")}
	}

	return slot.URL, slot.PublicURL, nil
}

func (s *Service) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
