package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrStorage is wrapped by blob-store failures, both on upload and on
// the later signed-URL fetch.  It is distinct from a missing record so
// callers can tell "never existed" from "temporarily unavailable".
var ErrStorage = errors.New("receipt storage failed")

// uploadTimeout bounds the upload and download calls so a slow upstream
// cannot hold a request open indefinitely.
const uploadTimeout = 15 * time.Second

// signedURLTTL is the lifetime of a minted download link.
const signedURLTTL = time.Hour

// Store uploads rendered receipts to Cloudinary as authenticated raw
// assets and fetches them back through freshly signed URLs.  The asset
// key is derived from the receipt number, which makes re-uploads after
// a partial failure idempotent.
type Store struct {
	cld  *cloudinary.Cloudinary
	http *http.Client
}

// NewStore returns a Store backed by the given Cloudinary client.
func NewStore(cld *cloudinary.Cloudinary) *Store {
	return &Store{
		cld:  cld,
		http: &http.Client{Timeout: uploadTimeout},
	}
}

// Upload stores the PDF under a key derived from the receipt number and
// returns the store-assigned public ID.  The ID, not a URL, is what the
// caller persists: links to private assets are minted per download.
func (s *Store) Upload(ctx context.Context, receiptNumber string, pdf []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		PublicID:     "receipts/" + receiptNumber,
		ResourceType: "raw",
		Type:         "authenticated",
		Overwrite:    api.Bool(true),
		Tags:         []string{"receipt"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload: %v", ErrStorage, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("%w: upload: %s", ErrStorage, res.Error.Message)
	}
	return res.PublicID, nil
}

// SignedURL mints a time-bounded download URL for a stored receipt.
func (s *Store) SignedURL(assetID string) (string, error) {
	a, err := s.cld.File(assetID)
	if err != nil {
		return "", fmt.Errorf("%w: build asset: %v", ErrStorage, err)
	}
	a.DeliveryType = "authenticated"
	a.Config.URL.SignURL = true
	if a.Config.AuthToken.Key != "" {
		a.Config.AuthToken.Duration = int64(signedURLTTL / time.Second)
	}
	u, err := a.String()
	if err != nil {
		return "", fmt.Errorf("%w: sign url: %v", ErrStorage, err)
	}
	return u, nil
}

// Fetch mints a signed URL for the asset and downloads the bytes
// server-side so the private link never leaves the backend.
func (s *Store) Fetch(ctx context.Context, assetID string) ([]byte, error) {
	u, err := s.SignedURL(assetID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrStorage, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", ErrStorage, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch: upstream status %d", ErrStorage, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrStorage, err)
	}
	return body, nil
}
