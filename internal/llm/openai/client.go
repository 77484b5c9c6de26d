package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
)

var _ llm.Extractor = (*Client)(nil)

var errMissingKey = errors.New("openai api key is not configured")

// Extract implements llm.Extractor using a single vision chat/completions call.
// It never returns an error: any failure yields a Result with an empty
// candidate list and the failure kind set.
func (c *Client) Extract(ctx context.Context, image []byte) llm.Result {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"image_bytes", len(image),
	)

	if c.cfg.APIKey == "" {
		return c.fail(rid, start, llm.FailureMissingCredential, errMissingKey)
	}

	body := llm.BuildChatRequest(c.cfg.Model, c.cfg.Temperature, image)
	raw, code, err := llm.SendJSON(ctx, c.http, c.endpoint(), body,
		map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}, c.logger)
	if err != nil {
		if code == 0 {
			return c.fail(rid, start, llm.FailureTransport, fmt.Errorf("openai http error: %w", err))
		}
		return c.fail(rid, start, llm.FailureBadStatus, fmt.Errorf("openai status %d: %w", code, err))
	}

	content, err := messageContent(raw)
	if err != nil {
		return c.fail(rid, start, llm.FailureEnvelope, err)
	}

	cands, kind, err := llm.DecodeProducts(content)
	if err != nil {
		c.logger.Debug("llm.extract.bad_content", "req_id", rid, "content", content)
		return c.fail(rid, start, kind, err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"candidates", len(cands),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Succeeded(cands)
}

func (c *Client) fail(rid string, start time.Time, kind llm.FailureKind, err error) llm.Result {
	c.logger.Error("llm.extract.failed",
		"req_id", rid,
		"kind", string(kind),
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Failed(kind, err)
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
}

// messageContent pulls choices[0].message.content out of the response envelope.
func messageContent(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message *struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	msg := cc.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", errors.New("no message content in openai response")
	}
	return *msg.Content, nil
}
