package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/storage"
)

// MediaService validates uploads, normalizes images and writes them to the object store.
type MediaService struct {
	store storage.ObjectStore
}

func NewMediaService(store storage.ObjectStore) *MediaService {
	return &MediaService{store: store}
}

func (s *MediaService) UploadAvatar(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error) {
	return s.uploadImage(ctx, file, header, model.AvatarSpec)
}

func (s *MediaService) UploadCoverImage(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error) {
	return s.uploadImage(ctx, file, header, model.CoverImageSpec)
}

func (s *MediaService) UploadThumbnail(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error) {
	return s.uploadImage(ctx, file, header, model.ThumbnailSpec)
}

// uploadImage enforces size/type, crops to the ImageSpec dimensions as JPEG, and uploads.
func (s *MediaService) uploadImage(ctx context.Context, file io.Reader, header *multipart.FileHeader, spec model.ImageSpec) (*model.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header, spec.MaxSizeBytes)
	if err != nil {
		return nil, err
	}

	jpegBytes, err := resizeToJPEG(data, spec.Width, spec.Height, model.ImageJPEGQuality)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s%s", spec.Folder, uuid.NewString(), model.ImageExt)
	url, err := s.store.Put(ctx, key, bytes.NewReader(jpegBytes), int64(len(jpegBytes)), model.ContentTypeJPEG, model.ImageCacheControl)
	if err != nil {
		return nil, err
	}
	return &model.UploadResult{URL: url, Key: key}, nil
}

// UploadVideo streams a video file to the store without buffering it in memory.
func (s *MediaService) UploadVideo(ctx context.Context, file io.ReadSeeker, header *multipart.FileHeader) (*model.UploadResult, error) {
	if header.Size > model.MaxVideoSizeBytes {
		return nil, model.ErrFileTooLarge
	}

	contentType, err := videoContentType(file, header)
	if err != nil {
		return nil, err
	}
	ext, ok := model.VideoExtension(contentType)
	if !ok {
		return nil, model.ErrInvalidVideoType
	}

	key := fmt.Sprintf("%s/%s%s", model.VideoFolder, uuid.NewString(), ext)
	body := io.LimitReader(file, model.MaxVideoSizeBytes)
	url, err := s.store.Put(ctx, key, body, header.Size, contentType, model.VideoCacheControl)
	if err != nil {
		return nil, err
	}

	logging.Component(ctx, "media_service").Info("video uploaded", "key", key, "size", header.Size)
	return &model.UploadResult{URL: url, Key: key}, nil
}

// DeleteObject removes an object by key. Empty keys are ignored.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.store.Delete(ctx, key)
}

// DeleteObjects removes several objects, logging rather than returning failures.
func (s *MediaService) DeleteObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.DeleteObject(ctx, key); err != nil {
			logging.Component(ctx, "media_service").Warn("delete object failed", "key", key, "error", err)
		}
	}
}

// readAndValidateImage loads the upload into memory with size and type checks.
func readAndValidateImage(file io.Reader, header *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if header.Size > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", model.ErrFileTooLarge
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	contentType = stripParams(contentType)
	if !model.IsAllowedImageType(contentType) {
		return nil, "", model.ErrInvalidImageType
	}

	return data, contentType, nil
}

// videoContentType trusts the part header, falling back to sniffing the first bytes.
func videoContentType(file io.ReadSeeker, header *multipart.FileHeader) (string, error) {
	if ct := stripParams(header.Header.Get("Content-Type")); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}
	return stripParams(http.DetectContentType(sniff[:n])), nil
}

func stripParams(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidImageType, err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
