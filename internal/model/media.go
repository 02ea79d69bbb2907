package model

import (
	"errors"
	"strings"
)

// ImageSpec describes how an uploaded image is normalized before storage.
type ImageSpec struct {
	Folder       string
	Width        int
	Height       int
	MaxSizeBytes int64
}

var (
	AvatarSpec     = ImageSpec{Folder: "avatars", Width: 400, Height: 400, MaxSizeBytes: 5 * 1024 * 1024}
	CoverImageSpec = ImageSpec{Folder: "covers", Width: 1280, Height: 320, MaxSizeBytes: 8 * 1024 * 1024}
	ThumbnailSpec  = ImageSpec{Folder: "thumbnails", Width: 1280, Height: 720, MaxSizeBytes: 8 * 1024 * 1024}
)

const (
	ImageExt          = ".jpg"
	ImageJPEGQuality  = 85
	ImageCacheControl = "public, max-age=31536000" // 1 year

	VideoFolder       = "videos"
	MaxVideoSizeBytes = 512 * 1024 * 1024
	VideoCacheControl = "public, max-age=86400"
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

var videoExtensions = map[string]string{
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
	"video/ogg":        ".ogv",
}

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
	CodeInvalidVideoType = "INVALID_VIDEO_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrInvalidVideoType = errors.New("invalid video type")
)

// UploadResult represents the uploaded object location.
// Key is the object key inside the bucket, kept for later deletes.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}

// VideoExtension returns the file extension for a supported video content type.
func VideoExtension(contentType string) (string, bool) {
	ext, ok := videoExtensions[strings.ToLower(contentType)]
	return ext, ok
}
