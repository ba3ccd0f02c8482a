package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateManimCodeLocal(t *testing.T) {
	ctx := context.Background()

	code := GenerateManimCodeLocal(ctx, "a bouncing circle", "")
	require.Contains(t, code, "class GeneratedManimScene(Scene):")
	require.Contains(t, code, "Circle()")

	// same query yields the same code
	require.Equal(t, code, GenerateManimCodeLocal(ctx, "a bouncing circle", ""))

	shape := GenerateManimCodeLocal(ctx, "morph a TRIANGLE into a SQUARE", "")
	require.Contains(t, shape, "class GeneratedManimScene(Scene):")
	require.Contains(t, shape, "Triangle()")
	require.Contains(t, shape, "Transform(triangle, square)")
}

func TestExtractPythonCode(t *testing.T) {
	raw := "from manim import *\n\nclass GeneratedManimScene(Scene):\n    pass\n"
	require.Equal(t, strings.TrimSpace(raw), extractPythonCode(raw))

	fenced := "```python\n" + raw + "```\n"
	require.Equal(t, strings.TrimSpace(raw), extractPythonCode(fenced))

	require.Equal(t, "", extractPythonCode(""))
	require.Equal(t, "", extractPythonCode("   "))
	// code without the required scene class is rejected
	require.Equal(t, "", extractPythonCode("print('hello')"))
	require.Equal(t, "", extractPythonCode("```python\nprint('hello')\n```"))
}

func TestQualityFlag(t *testing.T) {
	require.Equal(t, "-ql", qualityFlag("low"))
	require.Equal(t, "-qm", qualityFlag("medium"))
	require.Equal(t, "-qh", qualityFlag("high"))
	require.Equal(t, "-ql", qualityFlag(""))
}

func TestLastLines(t *testing.T) {
	require.Equal(t, "a\nb\nc", lastLines("a\nb\nc", 5))
	require.Equal(t, "d\ne", lastLines("a\nb\nc\nd\ne", 2))
	require.Equal(t, "x", lastLines("\n\nx\n\n", 3))
}

func TestIsRetriable(t *testing.T) {
	require.False(t, isRetriable(nil))
	require.False(t, isRetriable(errors.New("status 400: bad request")))
	require.True(t, isRetriable(errors.New("status 503: overloaded")))
	require.True(t, isRetriable(errors.New("status 429: RESOURCE_EXHAUSTED")))
	require.True(t, isRetriable(errors.New("model quota exceeded")))
}

func TestPublishVideo(t *testing.T) {
	srcDir := t.TempDir()
	pubDir := t.TempDir()

	srcPath := filepath.Join(srcDir, "GeneratedManimScene.mp4")
	require.NoError(t, os.WriteFile(srcPath, []byte("not really an mp4"), 0644))

	storage := &VideoStorageService{basePath: pubDir, baseURL: "/manim_videos"}
	url, err := storage.PublishVideo(srcPath, "job123")
	require.NoError(t, err)
	require.Equal(t, "/manim_videos/job123_GeneratedManimScene.mp4", url)

	published, err := os.ReadFile(filepath.Join(pubDir, "job123_GeneratedManimScene.mp4"))
	require.NoError(t, err)
	require.Equal(t, "not really an mp4", string(published))

	_, err = storage.PublishVideo(filepath.Join(srcDir, "missing.mp4"), "job456")
	require.Error(t, err)
}

func TestFindRenderedVideo(t *testing.T) {
	mediaDir := t.TempDir()
	nested := filepath.Join(mediaDir, "videos", "scene", "480p15")
	require.NoError(t, os.MkdirAll(nested, 0755))

	_, err := findRenderedVideo(mediaDir)
	require.Error(t, err)

	target := filepath.Join(nested, "GeneratedManimScene.mp4")
	require.NoError(t, os.WriteFile(target, []byte("v"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "partial.mp4"), []byte("x"), 0644))

	found, err := findRenderedVideo(mediaDir)
	require.NoError(t, err)
	require.Equal(t, target, found)
}
