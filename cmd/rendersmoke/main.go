// rendersmoke submits one animation generation request to a running server
// and polls its status until the job reaches a terminal state, printing each
// observed transition. Useful as a manual end-to-end check.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

type generateResponse struct {
	ID             string `json:"id"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Version        int    `json:"version"`
}

type statusResponse struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"`
	StatusMessage string  `json:"status_message"`
	VideoURL      string  `json:"video_url"`
}

func main() {
	base := flag.String("base", "http://127.0.0.1:5000", "server base URL")
	query := flag.String("query", "a circle that bounces left and right", "animation query")
	quality := flag.String("quality", "low", "render quality (low|medium|high)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall poll timeout")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	flag.Parse()

	userID := uuid.NewString()

	body, _ := json.Marshal(map[string]string{
		"query":   *query,
		"quality": *quality,
		"user_id": userID,
	})
	resp, err := http.Post(*base+"/api/generate-animation", "application/json", bytes.NewReader(body))
	if err != nil {
		fatal("submit failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		fatal("submit returned status %d", resp.StatusCode)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		fatal("decode submit response: %v", err)
	}
	fmt.Printf("submitted animation %s (conversation %s, version %d)\n", gen.ID, gen.ConversationID, gen.Version)

	deadline := time.Now().Add(*timeout)
	lastStatus := ""
	for time.Now().Before(deadline) {
		st, err := pollStatus(*base, gen.ID, userID)
		if err != nil {
			fatal("poll failed: %v", err)
		}
		if st.Status != lastStatus {
			fmt.Printf("-> %s (%.0f%%) %s\n", st.Status, st.Progress, st.StatusMessage)
			lastStatus = st.Status
		}
		if st.Status == "completed" {
			fmt.Printf("video: %s\n", st.VideoURL)
			return
		}
		if st.Status == "failed" {
			fatal("animation failed: %s", st.StatusMessage)
		}
		time.Sleep(*interval)
	}
	fatal("timed out after %s waiting for terminal state", *timeout)
}

func pollStatus(base, animationID, userID string) (*statusResponse, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/animations/%s/status?user_id=%s", base, animationID, userID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
