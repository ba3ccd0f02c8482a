package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abhishekgusain07/studioanimations.app/pkg/cache"
	"github.com/abhishekgusain07/studioanimations.app/pkg/config"
)

// CodeGenerator produces Manim scene code for a query, optionally refining
// previously generated code.
type CodeGenerator interface {
	Generate(ctx context.Context, query, previousCode string) (string, error)
}

// GeminiCodeGenerator tries Gemini first, falls back to the local generator,
// and caches results per query+previousCode so repeated prompts skip the API.
type GeminiCodeGenerator struct {
	gemini *GeminiService
}

func NewCodeGenerator() *GeminiCodeGenerator {
	return &GeminiCodeGenerator{gemini: NewGeminiService()}
}

func (g *GeminiCodeGenerator) Generate(ctx context.Context, query, previousCode string) (string, error) {
	key := cache.KeyFromStrings("manim-code", query, previousCode)
	if v, ok := cache.Default().Get(key); ok {
		if code, ok := v.(string); ok && code != "" {
			log.Printf("[codegen] cache hit for query %q", truncateForLog(query))
			return code, nil
		}
	}

	code, err := g.gemini.GenerateManimCode(ctx, query, previousCode)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("code generation cancelled: %w", ctx.Err())
		}
		log.Printf("[codegen] gemini failed, using local generator: %v", err)
		code = GenerateManimCodeLocal(ctx, query, previousCode)
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("code generation produced no output")
	}

	cache.Default().Set(key, code, time.Duration(config.CodeCacheTTLSeconds)*time.Second)
	return code, nil
}

func truncateForLog(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
