package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// HTTPStore talks to the image host's HTTP API: multipart POST to /upload,
// DELETE to /assets/{handle}.
type HTTPStore struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPStore constructs a store for the given endpoint.
func NewHTTPStore(endpoint, apiKey string, client *http.Client) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{Endpoint: endpoint, APIKey: apiKey, Client: client}
}

type uploadResponse struct {
	URL    string `json:"url"`
	Handle string `json:"handle"`
}

// Upload sends the file under a fresh object key and returns the asset.
func (s *HTTPStore) Upload(ctx context.Context, filename string, r io.Reader) (Asset, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	key := uuid.NewString() + path.Ext(filename)
	if err := writer.WriteField("key", key); err != nil {
		return Asset{}, fmt.Errorf("storage: write key field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Asset{}, fmt.Errorf("storage: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Asset{}, fmt.Errorf("storage: copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Asset{}, fmt.Errorf("storage: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint+"/upload", &body)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	res, err := s.Client.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("storage: upload: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return Asset{}, fmt.Errorf("storage: upload: unexpected status %d", res.StatusCode)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return Asset{}, fmt.Errorf("storage: decode upload response: %w", err)
	}
	if decoded.URL == "" || decoded.Handle == "" {
		return Asset{}, fmt.Errorf("storage: upload response missing url or handle")
	}
	return Asset{URL: decoded.URL, Handle: decoded.Handle}, nil
}

// Delete removes the asset behind the handle. Deleting an already-removed
// handle is not an error.
func (s *HTTPStore) Delete(ctx context.Context, handle string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.Endpoint+"/assets/"+handle, nil)
	if err != nil {
		return err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	res, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("storage: delete: unexpected status %d", res.StatusCode)
	}
	return nil
}

var _ Store = (*HTTPStore)(nil)
