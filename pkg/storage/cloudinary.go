package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryMirror copies uploaded files to Cloudinary so they can be served
// from a public CDN URL.
type CloudinaryMirror struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryMirror builds a mirror from a CLOUDINARY_URL style connection string.
func NewCloudinaryMirror(url, folder string) (*CloudinaryMirror, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryMirror{cld: cld, folder: folder}, nil
}

// Upload stores r under publicID and returns the secure URL.
func (m *CloudinaryMirror) Upload(ctx context.Context, publicID string, r io.Reader) (string, error) {
	res, err := m.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       m.folder,
		PublicID:     publicID,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// Remove deletes a mirrored asset. Missing assets are not an error.
func (m *CloudinaryMirror) Remove(ctx context.Context, publicID string) error {
	if _, err := m.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: m.qualified(publicID)}); err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	return nil
}

func (m *CloudinaryMirror) qualified(publicID string) string {
	if m.folder == "" {
		return publicID
	}
	return m.folder + "/" + publicID
}
