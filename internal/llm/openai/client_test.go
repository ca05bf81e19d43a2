package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/property-annotator/internal/common"
	"github.com/joseph-ayodele/property-annotator/internal/llm"
)

// scriptedOracle answers calls in order, recording which credential made each call.
type scriptedOracle struct {
	mu      sync.Mutex
	replies []reply
	keys    []string
	reqs    []goopenai.ChatCompletionRequest
}

type reply struct {
	content string
	err     error
}

func (o *scriptedOracle) factory(key string) ChatCompleter {
	return &boundCompleter{oracle: o, key: key}
}

func (o *scriptedOracle) calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.keys...)
}

type boundCompleter struct {
	oracle *scriptedOracle
	key    string
}

func (b *boundCompleter) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	o := b.oracle
	o.mu.Lock()
	defer o.mu.Unlock()
	o.keys = append(o.keys, b.key)
	o.reqs = append(o.reqs, req)
	if len(o.replies) == 0 {
		return goopenai.ChatCompletionResponse{}, errors.New("unexpected call")
	}
	r := o.replies[0]
	o.replies = o.replies[1:]
	if r.err != nil {
		return goopenai.ChatCompletionResponse{}, r.err
	}
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{Content: r.content}}},
	}, nil
}

func rateLimit() error {
	return &goopenai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limit"}
}

func newTestClient(t *testing.T, keys []string, oracle *scriptedOracle) *Client {
	t.Helper()
	pool, err := llm.NewCredentialPool(keys)
	if err != nil {
		t.Fatalf("NewCredentialPool() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{Model: "test-model"}, pool, logger, WithCompleterFactory(oracle.factory))
}

func TestExtractPropertiesOK(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{{content: `[{"prop-name":"Battery","prop-value":"5000","prop-unit":"mAh"}]`}}}
	c := newTestClient(t, []string{"k1"}, oracle)

	got, err := c.ExtractProperties(context.Background(), "Battery 5000 mAh")
	if err != nil {
		t.Fatalf("ExtractProperties() error = %v", err)
	}
	if len(got) != 1 || got[0].Value != "5000" {
		t.Fatalf("ExtractProperties() = %+v", got)
	}
	req := oracle.reqs[0]
	if req.Model != "test-model" || req.Temperature != 0.1 {
		t.Errorf("request model/temp = %q/%v", req.Model, req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != goopenai.ChatMessageRoleSystem {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
}

func TestExtractPropertiesMalformedOutputIsEmpty(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{{content: "Sorry, I found nothing technical here."}}}
	c := newTestClient(t, []string{"k1"}, oracle)

	got, err := c.ExtractProperties(context.Background(), "hello")
	if err != nil {
		t.Fatalf("ExtractProperties() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("ExtractProperties() = %#v, want empty non-nil list", got)
	}
}

func TestRotationRetriesOnceWithNextCredential(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{
		{err: rateLimit()},
		{content: `[{"prop-name":"Weight","prop-value":"180","prop-unit":"g"}]`},
	}}
	c := newTestClient(t, []string{"k1", "k2"}, oracle)

	got, err := c.ExtractProperties(context.Background(), "Weight 180 g")
	if err != nil {
		t.Fatalf("ExtractProperties() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ExtractProperties() = %+v", got)
	}
	if calls := oracle.calls(); len(calls) != 2 || calls[0] != "k1" || calls[1] != "k2" {
		t.Fatalf("calls = %v, want [k1 k2]", calls)
	}
	if _, idx, _ := c.Pool().Current(); idx != 1 {
		t.Errorf("pool index = %d, want 1", idx)
	}
}

func TestRotationPoolOfTwoExhaustsAfterOneRetry(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{{err: rateLimit()}, {err: rateLimit()}}}
	c := newTestClient(t, []string{"k1", "k2"}, oracle)

	_, err := c.ExtractProperties(context.Background(), "x")
	if !errors.Is(err, common.ErrCredentialsExhausted) {
		t.Fatalf("ExtractProperties() error = %v, want ErrCredentialsExhausted", err)
	}
	if calls := oracle.calls(); len(calls) != 2 || calls[1] != "k2" {
		t.Fatalf("calls = %v, want exactly one retry with k2", calls)
	}

	// exhausted pool short-circuits
	_, err = c.ExtractProperties(context.Background(), "y")
	if !errors.Is(err, common.ErrCredentialsExhausted) {
		t.Fatalf("second call error = %v, want ErrCredentialsExhausted", err)
	}
	if n := len(oracle.calls()); n != 2 {
		t.Fatalf("oracle called %d times after exhaustion, want 2 total", n)
	}
}

func TestRotationPoolOfOneNoRetry(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{{err: rateLimit()}}}
	c := newTestClient(t, []string{"k1"}, oracle)

	_, err := c.ExtractProperties(context.Background(), "x")
	if !errors.Is(err, common.ErrCredentialsExhausted) || !common.IsTerminal(err) {
		t.Fatalf("ExtractProperties() error = %v, want terminal exhaustion", err)
	}
	if n := len(oracle.calls()); n != 1 {
		t.Fatalf("oracle called %d times, want 1", n)
	}
}

func TestRateLimitAfterRotationWithSpareCredential(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{
		{err: rateLimit()},
		{err: &goopenai.RequestError{HTTPStatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}},
		{content: `[]`},
	}}
	c := newTestClient(t, []string{"k1", "k2", "k3"}, oracle)

	_, err := c.ExtractProperties(context.Background(), "x")
	if !errors.Is(err, common.ErrRateLimited) || common.IsTerminal(err) {
		t.Fatalf("ExtractProperties() error = %v, want non-terminal ErrRateLimited", err)
	}
	if n := len(oracle.calls()); n != 2 {
		t.Fatalf("oracle called %d times, want 2", n)
	}

	// next call uses the third credential
	if _, err := c.ExtractProperties(context.Background(), "x"); err != nil {
		t.Fatalf("follow-up ExtractProperties() error = %v", err)
	}
	if calls := oracle.calls(); calls[2] != "k3" {
		t.Fatalf("calls = %v, want third call on k3", calls)
	}
}

func TestOracleUnavailable(t *testing.T) {
	oracle := &scriptedOracle{replies: []reply{{err: &goopenai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"}}}}
	c := newTestClient(t, []string{"k1", "k2"}, oracle)

	_, err := c.ExtractProperties(context.Background(), "x")
	if !errors.Is(err, common.ErrOracleUnavailable) {
		t.Fatalf("ExtractProperties() error = %v, want ErrOracleUnavailable", err)
	}
	if c.Pool().Exhausted() {
		t.Fatal("non rate-limit failure must not touch the pool")
	}
	if n := len(oracle.calls()); n != 1 {
		t.Fatalf("oracle called %d times, want 1", n)
	}
}
