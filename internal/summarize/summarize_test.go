package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a canned-response llms.Model for testing.
type fakeModel struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.lastPrompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.response, f.err
}

func TestService_Summarize(t *testing.T) {
	model := &fakeModel{response: "The field value failed validation; the user should shorten it."}
	svc := New(model, nil)

	got, err := svc.Summarize(context.Background(), "Custom field: data value too large for field Description__c (max length=255)")
	require.NoError(t, err)
	assert.Equal(t, model.response, got)
	assert.Equal(t, 1, model.calls)
	assert.Contains(t, model.lastPrompt, "support engineer")
	assert.Contains(t, model.lastPrompt, "data value too large")
}

func TestService_Summarize_ShortMessageSkipsCall(t *testing.T) {
	model := &fakeModel{response: "should not be used"}
	svc := New(model, nil)

	tests := []string{"", "   ", "short", "  tiny  "}
	for _, msg := range tests {
		got, err := svc.Summarize(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, FallbackUnusable, got)
	}

	assert.Equal(t, 0, model.calls, "LLM must not be called for short messages")
}

func TestService_Summarize_ModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	svc := New(model, nil)

	_, err := svc.Summarize(context.Background(), "a message long enough to summarize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestService_Summarize_EmptyModelOutput(t *testing.T) {
	model := &fakeModel{response: "   "}
	svc := New(model, nil)

	_, err := svc.Summarize(context.Background(), "a message long enough to summarize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty summary")
}

func TestService_Summarize_TrimsModelOutput(t *testing.T) {
	model := &fakeModel{response: "\n  A trimmed summary.  \n"}
	svc := New(model, nil)

	got, err := svc.Summarize(context.Background(), "a message long enough to summarize")
	require.NoError(t, err)
	assert.Equal(t, "A trimmed summary.", got)
	assert.False(t, strings.HasSuffix(got, " "))
}

func TestService_Summarize_NormalizesMessage(t *testing.T) {
	model := &fakeModel{response: "A summary."}
	svc := New(model, nil)

	_, err := svc.Summarize(context.Background(), `upsert failed:\n'DUPLICATE_VALUE'\tuse one of these records`)
	require.NoError(t, err)
	assert.Contains(t, model.lastPrompt, "upsert failed: DUPLICATE_VALUE use one of these records")
	assert.NotContains(t, model.lastPrompt, `\n`)
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
