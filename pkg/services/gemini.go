package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/abhishekgusain07/studioanimations.app/pkg/config"
)

// GeminiService turns a natural-language animation request into Manim scene
// code via the Gemini API.
type GeminiService struct {
	apiKey  string
	enabled bool
}

var (
	ErrGeminiDisabled = errors.New("gemini is disabled via config")
)

func NewGeminiService() *GeminiService {
	return &GeminiService{
		apiKey:  config.GeminiAPIKey,
		enabled: config.IsGeminiEnabled,
	}
}

const codegenSystemPrompt = "You write Manim Community Edition scene code. " +
	"Respond with a single complete Python file defining exactly one Scene subclass named GeneratedManimScene. " +
	"No prose, no markdown fences, only code. The scene must render with `python -m manim`."

// GenerateManimCode asks Gemini for scene code satisfying the query. When
// previousCode is non-empty the model is asked to modify that code instead
// of starting from scratch (iterative refinement).
func (s *GeminiService) GenerateManimCode(ctx context.Context, query, previousCode string) (string, error) {
	if !s.enabled {
		log.Printf("[gemini] disabled via config (IsGeminiEnabled=false)")
		return "", ErrGeminiDisabled
	}
	if strings.TrimSpace(s.apiKey) == "" {
		log.Printf("[gemini] GEMINI_API_KEY is not set")
		return "", fmt.Errorf("GEMINI_API_KEY is not set")
	}

	var prompt string
	if strings.TrimSpace(previousCode) != "" {
		prompt = fmt.Sprintf(
			"Modify this existing Manim scene so that it satisfies the new request.\n\nExisting code:\n%s\n\nNew request: %s",
			previousCode, query)
	} else {
		prompt = fmt.Sprintf("Create a Manim scene for this request: %s", query)
	}

	models := []string{config.GeminiModel, "gemini-2.0-flash"}
	tried := make(map[string]error)

	for _, m := range models {
		if strings.TrimSpace(m) == "" {
			continue
		}
		text, err := s.callGenerateContent(ctx, m, prompt)
		if err != nil && isRetriable(err) {
			sleepWithContext(ctx, 2*time.Second)
			text, err = s.callGenerateContent(ctx, m, prompt)
		}
		if err == nil {
			if code := extractPythonCode(text); code != "" {
				return code, nil
			}
			err = fmt.Errorf("response contained no usable code")
		}
		tried[m] = err
		log.Printf("[gemini] model %s failed: %v", m, err)
	}

	var b strings.Builder
	b.WriteString("all gemini models failed: ")
	first := true
	for m, e := range tried {
		if !first {
			b.WriteString("; ")
		}
		first = false
		b.WriteString(fmt.Sprintf("%s -> %v", m, e))
	}
	return "", errors.New(b.String())
}

func (s *GeminiService) callGenerateContent(ctx context.Context, model, prompt string) (string, error) {
	reqBody := map[string]any{
		"systemInstruction": map[string]any{
			"parts": []any{map[string]any{"text": codegenSystemPrompt}},
		},
		"contents": []any{
			map[string]any{
				"role":  "user",
				"parts": []any{map[string]any{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     0.4,
			"maxOutputTokens": 4096,
			"topK":            40,
			"topP":            0.9,
		},
	}
	bodyBytes, _ := json.Marshal(reqBody)

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", model, s.apiKey)
	log.Printf("[gemini] using model %s", model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return strings.TrimSpace(string(respBytes)), nil
	}
	if cands, ok := parsed["candidates"].([]any); ok && len(cands) > 0 {
		if first, ok := cands[0].(map[string]any); ok {
			if content, ok := first["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok {
					for _, p := range parts {
						if pm, ok := p.(map[string]any); ok {
							if txt, ok := pm["text"].(string); ok && strings.TrimSpace(txt) != "" {
								return txt, nil
							}
						}
					}
				}
			}
		}
	}
	return strings.TrimSpace(string(respBytes)), nil
}

// extractPythonCode strips markdown fences models sometimes add despite the
// system prompt.
func extractPythonCode(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		var kept []string
		inFence := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inFence = !inFence
				continue
			}
			if inFence {
				kept = append(kept, line)
			}
		}
		text = strings.TrimSpace(strings.Join(kept, "\n"))
	}
	if !strings.Contains(text, "GeneratedManimScene") {
		return ""
	}
	return text
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	if strings.Contains(e, "status 503") || strings.Contains(e, "unavailable") {
		return true
	}
	if strings.Contains(e, "status 429") || strings.Contains(e, "resource_exhausted") || strings.Contains(e, "quota") {
		return true
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
