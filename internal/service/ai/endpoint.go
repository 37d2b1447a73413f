package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/logger"
)

// DefaultEndpointURL is the local chat endpoint the companion talks to.
const DefaultEndpointURL = "http://localhost:8000/chat"

// EndpointResponder POSTs each turn to a remote chat endpoint. There is no
// retry; every failure becomes FallbackReply.
type EndpointResponder struct {
	url    string
	client *http.Client
	log    *logger.Logger
}

// NewEndpointResponder creates a responder for url. timeout 0 means none.
func NewEndpointResponder(url string, timeout time.Duration, log *logger.Logger) *EndpointResponder {
	if strings.TrimSpace(url) == "" {
		url = DefaultEndpointURL
	}
	return &EndpointResponder{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.With("service", "EndpointResponder"),
	}
}

type endpointRequest struct {
	UserInput      string         `json:"user_input"`
	History        []string       `json:"history"`
	PatientContext PatientContext `json:"patient_context"`
}

func (r *EndpointResponder) Respond(ctx context.Context, req Request) Reply {
	reply, err := r.call(ctx, req)
	if err != nil {
		r.log.Warn("chat endpoint failed, using fallback", "url", r.url, "error", err)
		return FallbackReply()
	}
	return reply
}

func (r *EndpointResponder) call(ctx context.Context, req Request) (Reply, error) {
	body, err := json.Marshal(endpointRequest{
		UserInput:      req.UserInput,
		History:        nonNil(req.History),
		PatientContext: req.PatientContext,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(reply.Response) == "" {
		return Reply{}, fmt.Errorf("response missing reply text")
	}
	// 缺失的情绪与标签在本地补齐。
	if strings.TrimSpace(reply.Emotion) == "" {
		reply.Emotion = "neutral"
	}
	if strings.TrimSpace(reply.MemoryTag) == "" {
		reply.MemoryTag = DeriveMemoryTag(req.UserInput)
	}
	return reply, nil
}
