package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxFileSize is the per-file upload ceiling (2 MiB).
	MaxFileSize int64 = 2 << 20
	// MaxPetImages bounds a single pet listing upload.
	MaxPetImages = 8

	KindUsers = "users"
	KindPets  = "pets"
)

type UploadReason int

const (
	ReasonWrongType UploadReason = iota
	ReasonTooLarge
	ReasonTooMany
	ReasonIO
)

// UploadError distinguishes ingest violations so each maps to its own
// user-facing message.
type UploadError struct {
	Reason  UploadReason
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

func errWrongType(filename string) *UploadError {
	return &UploadError{
		Reason:  ReasonWrongType,
		Message: fmt.Sprintf("%s is not a valid image, please send only png, jpg or jpeg", filename),
	}
}

func errTooLarge(filename string) *UploadError {
	return &UploadError{
		Reason:  ReasonTooLarge,
		Message: fmt.Sprintf("%s is too large, images must be at most 2 MB", filename),
	}
}

func errTooMany(max int) *UploadError {
	return &UploadError{
		Reason:  ReasonTooMany,
		Message: fmt.Sprintf("too many images, at most %d are allowed", max),
	}
}

func errIO(err error) *UploadError {
	return &UploadError{
		Reason:  ReasonIO,
		Message: fmt.Sprintf("failed to store image: %v", err),
	}
}

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ImageStore persists uploads under {root}/{users|pets}/{entityID}/ with
// collision-resistant filenames.
type ImageStore struct {
	root string
}

func NewImageStore(root string) *ImageStore {
	return &ImageStore{root: root}
}

func (s *ImageStore) EntityDir(kind, entityID string) string {
	return filepath.Join(s.root, kind, entityID)
}

// SaveOne ingests a single file for the given entity.
func (s *ImageStore) SaveOne(fh *multipart.FileHeader, kind, entityID string) (string, error) {
	names, err := s.SaveAll([]*multipart.FileHeader{fh}, kind, entityID, 1)
	if err != nil {
		return "", err
	}
	return names[0], nil
}

// SaveAll validates every file before writing any, so a rejected batch
// leaves the upload directory untouched. Returns the stored filenames in
// upload order.
func (s *ImageStore) SaveAll(files []*multipart.FileHeader, kind, entityID string, max int) ([]string, error) {
	if len(files) > max {
		return nil, errTooMany(max)
	}

	for _, fh := range files {
		if err := validate(fh); err != nil {
			return nil, err
		}
	}

	dir := s.EntityDir(kind, entityID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errIO(err)
	}

	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.write(fh, dir)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// RemoveDir deletes the entity's whole image directory.
func (s *ImageStore) RemoveDir(kind, entityID string) error {
	return os.RemoveAll(s.EntityDir(kind, entityID))
}

func validate(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return errWrongType(fh.Filename)
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "image/png" && ct != "image/jpeg" {
		return errWrongType(fh.Filename)
	}
	if fh.Size > MaxFileSize {
		return errTooLarge(fh.Filename)
	}
	return nil
}

func (s *ImageStore) write(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errIO(err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString()[:8], ext)

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errIO(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errIO(err)
	}
	return name, nil
}
