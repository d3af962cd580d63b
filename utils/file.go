package utils

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnsureUploadDir creates the uploads directory if it doesn't exist
func EnsureUploadDir() error {
	return os.MkdirAll(filepath.Join("uploads", "evidence"), os.ModePerm)
}

// SaveEvidenceLocal writes the photo under uploads/evidence and returns its
// served path. Used when R2 is not configured.
func SaveEvidenceLocal(filename string, data []byte) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	destPath := filepath.Join("uploads", "evidence", name)

	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(destPath), nil
}

// StoreEvidence persists an evidence photo to R2 when configured, local disk
// otherwise, and returns a URL for the audit row.
func StoreEvidence(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !isImageExt(ext) {
		return "", fmt.Errorf("unsupported evidence type: %q", ext)
	}

	if R2Enabled() {
		key := "evidence/" + uuid.NewString() + ext
		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return UploadBytesToR2(key, contentType, data)
	}
	return SaveEvidenceLocal(filename, data)
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic":
		return true
	}
	return false
}
