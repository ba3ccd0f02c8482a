package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	GeminiAPIKey string
	GeminiModel  string
	AppEnv       string
	IsStaging    bool
	IsProduction bool
	// IsGeminiEnabled is a flag to enable/disable Gemini API usage (enum: "1" or "0")
	IsGeminiEnabled bool

	Port         string
	DatabasePath string

	// rendering
	VideosDir         string
	VideoPathPrefix   string
	TempJobsDir       string
	ManimPython       string
	RenderWorkers     int
	RenderQueueSize   int
	RenderTimeoutSecs int
	StaleProcessSecs  int
	StaleSweepSecs    int

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	DuplicateWindowSeconds int
	CodeCacheTTLSeconds    int
	CodeCacheMaxItems      int
)

// loadAppEnv only loads .env outside production; production deployments are
// expected to carry real environment variables.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")

	if AppEnv == "production" {
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	GeminiModel = os.Getenv("GEMINI_MODEL")

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}

	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	// IS_GEMINI_ENABLED: "1" for enabled, anything else disables the API
	IsGeminiEnabled = os.Getenv("IS_GEMINI_ENABLED") == "1"

	// default model if not provided; can be overridden via GEMINI_MODEL env
	if GeminiModel == "" {
		GeminiModel = "gemini-2.0-flash"
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	DatabasePath = strOr(os.Getenv("DATABASE_PATH"), "app.db")

	VideosDir = strOr(os.Getenv("VIDEOS_DIR"), "temp_manim_jobs/public_videos")
	VideoPathPrefix = strOr(os.Getenv("VIDEO_PATH_PREFIX"), "/manim_videos")
	TempJobsDir = strOr(os.Getenv("TEMP_JOBS_DIR"), "temp_manim_jobs")
	ManimPython = strOr(os.Getenv("MANIM_PYTHON"), "python")

	RenderWorkers = atoiOr(os.Getenv("RENDER_WORKERS"), 2)
	RenderQueueSize = atoiOr(os.Getenv("RENDER_QUEUE_SIZE"), 32)
	RenderTimeoutSecs = atoiOr(os.Getenv("RENDER_TIMEOUT_SECONDS"), 300)
	StaleProcessSecs = atoiOr(os.Getenv("STALE_PROCESSING_SECONDS"), 900)
	StaleSweepSecs = atoiOr(os.Getenv("STALE_SWEEP_INTERVAL_SECONDS"), 60)

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	CodeCacheTTLSeconds = atoiOr(os.Getenv("CODE_CACHE_TTL_SECONDS"), 600)
	CodeCacheMaxItems = atoiOr(os.Getenv("CODE_CACHE_MAX_ITEMS"), 500)

	// Log important config values to help debug environment
	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] IsGeminiEnabled=%v GeminiAPIKeyPresent=%v GeminiModel=%s", IsGeminiEnabled, GeminiAPIKey != "", GeminiModel)
	log.Printf("[config] Render workers=%d queue=%d timeout=%ds staleAfter=%ds sweepEvery=%ds",
		RenderWorkers, RenderQueueSize, RenderTimeoutSecs, StaleProcessSecs, StaleSweepSecs)
	log.Printf("[config] RateLimit window=%ds capacity=%d dupWindow=%ds codeCacheTTL=%ds codeCacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, DuplicateWindowSeconds, CodeCacheTTLSeconds, CodeCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func strOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
