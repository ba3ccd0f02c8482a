package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/abhishekgusain07/studioanimations.app/pkg/config"
)

// Renderer converts generated scene code plus a quality level into a video
// artifact reachable by URL. progress receives coarse percentages in [0,100]
// with a short human-readable note; implementations may call it any number
// of times but values must not decrease.
type Renderer interface {
	Render(ctx context.Context, code, quality string, progress func(pct float64, note string)) (videoURL string, err error)
}

// ManimRenderer shells out to `python -m manim` in a per-job scratch
// directory and publishes the resulting mp4 through the storage service.
type ManimRenderer struct {
	python  string
	tempDir string
	storage *VideoStorageService
}

func NewManimRenderer(storage *VideoStorageService) *ManimRenderer {
	os.MkdirAll(config.TempJobsDir, 0755)
	return &ManimRenderer{
		python:  config.ManimPython,
		tempDir: config.TempJobsDir,
		storage: storage,
	}
}

// qualityFlag maps the API quality levels onto manim's render presets.
func qualityFlag(quality string) string {
	switch quality {
	case "high":
		return "-qh"
	case "medium":
		return "-qm"
	default:
		return "-ql"
	}
}

func (r *ManimRenderer) Render(ctx context.Context, code, quality string, progress func(pct float64, note string)) (string, error) {
	jobID := uuid.NewString()
	jobDir := filepath.Join(r.tempDir, jobID)
	mediaDir := filepath.Join(jobDir, "media_output")
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	defer os.RemoveAll(jobDir)

	scriptPath := filepath.Join(jobDir, "generatedmanimscene_script.py")
	if err := os.WriteFile(scriptPath, []byte(code), 0644); err != nil {
		return "", fmt.Errorf("write scene script: %w", err)
	}

	progress(40, "Rendering animation")

	cmd := exec.CommandContext(ctx, r.python, "-m", "manim",
		scriptPath,
		"GeneratedManimScene",
		qualityFlag(quality),
		"--format", "mp4",
		"--media_dir", mediaDir,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("manim render cancelled: %w", ctx.Err())
		}
		log.Printf("[manim] render failed: %v", err)
		return "", fmt.Errorf("manim execution failed: %s", lastLines(string(out), 10))
	}

	progress(85, "Publishing video")

	videoFile, err := findRenderedVideo(mediaDir)
	if err != nil {
		return "", err
	}

	url, err := r.storage.PublishVideo(videoFile, jobID)
	if err != nil {
		return "", err
	}

	progress(95, "Finalizing")
	return url, nil
}

// findRenderedVideo locates GeneratedManimScene.mp4 anywhere below the media
// directory; the exact subpath depends on the quality preset.
func findRenderedVideo(mediaDir string) (string, error) {
	var found string
	err := filepath.WalkDir(mediaDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "GeneratedManimScene.mp4" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search rendered video: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("generated video file not found")
	}
	return found, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
