package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abhishekgusain07/studioanimations.app/pkg/config"
)

// VideoStorageService publishes rendered videos into the public directory
// served under the video path prefix.
type VideoStorageService struct {
	basePath string
	baseURL  string
}

func NewVideoStorageService() *VideoStorageService {
	basePath := config.VideosDir
	baseURL := config.VideoPathPrefix

	os.MkdirAll(basePath, 0755)

	return &VideoStorageService{
		basePath: basePath,
		baseURL:  baseURL,
	}
}

// PublishVideo copies the rendered file into the public directory under a
// job-unique name and returns the URL path clients can fetch it from.
func (s *VideoStorageService) PublishVideo(srcPath, jobID string) (string, error) {
	filename := fmt.Sprintf("%s_GeneratedManimScene.mp4", jobID)
	dstPath := filepath.Join(s.basePath, filename)

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open rendered video: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create public video: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("copy video: %w", err)
	}

	return s.baseURL + "/" + filename, nil
}
