package generate

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immuse/tourwizard/internal/apperr"
	"github.com/immuse/tourwizard/internal/llm"
	"github.com/immuse/tourwizard/internal/metrics"
)

const greetingSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["greeting", "count"],
	"properties": {
		"greeting": {"type": "string"},
		"count": {"type": "number"}
	}
}`

type greeting struct {
	Greeting string  `json:"greeting"`
	Count    float64 `json:"count"`
}

type scriptedChat struct {
	content string
	err     error
	last    llm.ChatRequest
}

func (s *scriptedChat) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.content}, nil
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema("broken", []byte(`{"type": 12}`))
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompileSchema("broken", []byte(`not json`)) })
}

func TestStructured_Success(t *testing.T) {
	schema := MustCompileSchema("Greeting", []byte(greetingSchema))
	chat := &scriptedChat{content: `{"greeting":"hi","count":2}`}

	var out greeting
	err := NewGenerator(chat).Structured(context.Background(), Prompt{System: "sys", User: "usr", Temperature: 0.7}, schema, &out)
	require.NoError(t, err)
	assert.Equal(t, greeting{Greeting: "hi", Count: 2}, out)

	require.NotNil(t, chat.last.ResponseSchema)
	assert.Equal(t, "Greeting", chat.last.ResponseSchema.Name)
	assert.JSONEq(t, greetingSchema, string(chat.last.ResponseSchema.Schema))
	require.Len(t, chat.last.Messages, 2)
	assert.Equal(t, "system", chat.last.Messages[0].Role)
}

func TestStructured_StripsFences(t *testing.T) {
	schema := MustCompileSchema("Greeting", []byte(greetingSchema))
	chat := &scriptedChat{content: "```json\n{\"greeting\":\"hi\",\"count\":1}\n```"}

	var out greeting
	require.NoError(t, NewGenerator(chat).Structured(context.Background(), Prompt{User: "u"}, schema, &out))
	assert.Equal(t, "hi", out.Greeting)
}

func TestStructured_Failures(t *testing.T) {
	schema := MustCompileSchema("Greeting", []byte(greetingSchema))
	cases := map[string]*scriptedChat{
		"provider error":   {err: errors.New("timeout")},
		"empty":            {content: "  "},
		"not json":         {content: "Here is your plan"},
		"schema violation": {content: `{"greeting":"hi"}`},
		"extra property":   {content: `{"greeting":"hi","count":1,"mood":"sunny"}`},
	}
	for name, chat := range cases {
		t.Run(name, func(t *testing.T) {
			var out greeting
			err := NewGenerator(chat).Structured(context.Background(), Prompt{User: "u"}, schema, &out)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindExternal))
		})
	}
}

func TestText(t *testing.T) {
	text, err := NewGenerator(&scriptedChat{content: "  Welcome to hall one.  "}).Text(context.Background(), Prompt{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to hall one.", text)

	_, err = NewGenerator(&scriptedChat{content: ""}).Text(context.Background(), Prompt{User: "u"})
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestAttempt(t *testing.T) {
	ctx := context.Background()
	fallback := []string{"x", "y"}

	ok := Attempt(ctx, "test_ok", func(context.Context) ([]string, error) { return []string{"a"}, nil }, fallback)
	assert.False(t, ok.Fallback)
	assert.NoError(t, ok.Err)
	assert.Equal(t, []string{"a"}, ok.Value)

	before := testutil.ToFloat64(metrics.GenerationFallbacks.WithLabelValues("test_fail"))
	boom := errors.New("boom")
	failed := Attempt(ctx, "test_fail", func(context.Context) ([]string, error) {
		// partial results never leak into the outcome
		return []string{"partial"}, boom
	}, fallback)
	assert.True(t, failed.Fallback)
	assert.ErrorIs(t, failed.Err, boom)
	assert.Equal(t, fallback, failed.Value)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GenerationFallbacks.WithLabelValues("test_fail")))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(` {"a":1} `))
	assert.Equal(t, "", stripFences("```"))
}
