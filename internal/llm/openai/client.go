package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
	"github.com/joseph-ayodele/property-annotator/internal/llm"
)

// ExtractProperties implements llm.PropertyExtractor.
//
// A rate limit rotates to the next credential and re-issues the call once. A
// rate limit with no credential left exhausts the pool; exhaustion is returned
// as common.ErrCredentialsExhausted and later calls fail without contacting the oracle.
func (c *Client) ExtractProperties(ctx context.Context, text string) ([]entity.PropertyTriple, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	key, idx, ok := c.pool.Current()
	if !ok {
		c.log.Warn("llm.extract.skipped_exhausted", "req_id", rid)
		return nil, fmt.Errorf("extract properties: %w", common.ErrCredentialsExhausted)
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
		"credential", idx,
	)

	req := goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.BuildUserPrompt(text)},
		},
	}

	content, err := c.complete(ctx, idx, key, req)
	if isRateLimited(err) {
		next, nextIdx, ok := c.pool.Advance(idx)
		if !ok {
			c.log.Error("llm.extract.credentials_exhausted",
				"req_id", rid, "credential", idx, "pool_size", c.pool.Size(),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, fmt.Errorf("extract properties: %w: %v", common.ErrCredentialsExhausted, err)
		}
		c.log.Warn("llm.extract.rotate_credential",
			"req_id", rid, "from", idx, "to", nextIdx, "error", err,
		)
		content, err = c.complete(ctx, nextIdx, next, req)
		if isRateLimited(err) {
			if _, _, ok := c.pool.Advance(nextIdx); !ok {
				c.log.Error("llm.extract.credentials_exhausted",
					"req_id", rid, "credential", nextIdx, "pool_size", c.pool.Size(),
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return nil, fmt.Errorf("extract properties: %w: %v", common.ErrCredentialsExhausted, err)
			}
			c.log.Warn("llm.extract.rate_limited_after_rotation",
				"req_id", rid, "credential", nextIdx, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, fmt.Errorf("extract properties: %w: %v", common.ErrRateLimited, err)
		}
	}
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("extract properties: %w: %w", common.ErrOracleUnavailable, err)
	}

	triples, dropped, perr := llm.ParseProperties(content)
	if perr != nil {
		c.log.Warn("llm.extract.malformed_output",
			"req_id", rid, "error", perr, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return []entity.PropertyTriple{}, nil
	}
	if dropped > 0 {
		c.log.Warn("llm.extract.records_dropped", "req_id", rid, "dropped", dropped)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"properties", len(triples),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return triples, nil
}

// complete issues one chat completion with the credential at idx and returns
// the trimmed reply text.
func (c *Client) complete(ctx context.Context, idx int, key string, req goopenai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.bind(idx, key).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// bind returns the completer for credential idx, rebuilding it when the pool rotated.
func (c *Client) bind(idx int, key string) ChatCompleter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.completer == nil || c.boundIdx != idx {
		c.completer = c.newCompleter(key)
		c.boundIdx = idx
	}
	return c.completer
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	return false
}
