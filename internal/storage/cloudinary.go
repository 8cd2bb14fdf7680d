package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(url string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, folder string) (*UploadResult, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return &UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	return nil
}
