package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-autofill/internal/llm"
	pdferrors "github.com/a3tai/mcp-pdf-autofill/internal/pdf/errors"
)

// maxPayload bounds how much of an error body is kept for diagnosis
const maxPayload = 4096

// GenerateValues implements llm.ValueGenerator with a single user message
// per request. Transport failures, 429 and 5xx responses are retried up to
// MaxRetries times; any other non-2xx status fails immediately.
func (c *Client) GenerateValues(ctx context.Context, req llm.GenerateRequest) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.generate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"fields_bytes", len(req.FieldsJSON),
		"has_context", strings.TrimSpace(req.AdditionalText) != "",
		"file", req.SourceFile,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": llm.BuildPrompt(req)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.postWithRetry(ctx, rid, endpoint, body)
	if err != nil {
		c.log.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.generate.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeMalformedResponse, "failed to decode chat completion", err).
			WithResponse(http.StatusOK, truncate(raw))
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.generate.no_choices", "req_id", rid, "raw", string(raw))
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedResponse, "no choices in chat completion").
			WithResponse(http.StatusOK, truncate(raw))
	}

	content := cc.Choices[0].Message.Content
	values, err := llm.ParseFieldValues(content)
	if err != nil {
		c.log.Error("llm.generate.parse_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.log.Info("llm.generate.ok",
		"req_id", rid,
		"values", len(values),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return values, nil
}

func (c *Client) postWithRetry(ctx context.Context, rid, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.RetryBackoff * time.Duration(attempt)
			c.log.Warn("llm.http.retry", "req_id", rid, "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", lastErr)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		raw, retriable, err := c.post(ctx, rid, url, b)
		if err == nil {
			return raw, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !retriable {
			return nil, err
		}
		lastErr = err
	}

	var pe *pdferrors.PDFError
	if errors.As(lastErr, &pe) {
		pe.WithContext(fmt.Sprintf("gave up after %d attempts", c.cfg.MaxRetries+1))
		return nil, pe
	}
	return nil, lastErr
}

// post sends one request and reports whether a failure may be retried
func (c *Client) post(ctx context.Context, rid, url string, body []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", rid)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, pdferrors.WrapError(pdferrors.ErrorTypeServiceUnavailable, "openai request failed", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("llm.http.response_body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, pdferrors.WrapError(pdferrors.ErrorTypeServiceUnavailable, "failed to read openai response", err).
			WithResponse(resp.StatusCode, "")
	}

	c.log.Info("llm.http.response", "req_id", rid, "status", resp.StatusCode, "bytes", len(raw))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, pdferrors.NewPDFError(pdferrors.ErrorTypeServiceUnavailable,
			fmt.Sprintf("openai status %d", resp.StatusCode)).
			WithResponse(resp.StatusCode, truncate(raw))
	default:
		return nil, false, pdferrors.NewPDFError(pdferrors.ErrorTypeValueGeneration,
			fmt.Sprintf("openai status %d", resp.StatusCode)).
			WithResponse(resp.StatusCode, truncate(raw))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(raw []byte) string {
	if len(raw) > maxPayload {
		return string(raw[:maxPayload]) + "..."
	}
	return string(raw)
}
