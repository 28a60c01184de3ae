package profiling

import (
	"net/http"
	"testing"
	"time"

	"github.com/hmcoe/skillprofile/internal/config"
)

func TestClose_Idempotent(t *testing.T) {
	cfg := config.ClientConfig{BaseURL: "http://localhost:5000", Timeout: time.Second}
	c, err := NewClient(cfg, &http.Client{Transport: &http.Transport{}})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
