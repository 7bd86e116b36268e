package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 1 << 20

// poster POSTs JSON bodies with a bounded wait.
type poster struct {
	client *http.Client
}

func newPoster(timeout time.Duration) poster {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return poster{client: &http.Client{Timeout: timeout}}
}

type postReply struct {
	status int
	ok     bool
	body   []byte
}

func (p poster) postJSON(ctx context.Context, url string, body any, headers map[string]string) (postReply, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return postReply{}, fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return postReply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return postReply{}, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return postReply{
		status: resp.StatusCode,
		ok:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		body:   respBody,
	}, nil
}
