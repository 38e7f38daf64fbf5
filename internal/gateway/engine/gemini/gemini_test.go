package gemini

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yungbote/lewa-backend/internal/gateway/config"
	"github.com/yungbote/lewa-backend/internal/gateway/engine"
	"github.com/yungbote/lewa-backend/internal/pkg/httpx"
)

type fakeModels struct {
	text      string
	chunks    []string
	err       error
	streamErr error

	gotModel  string
	gotConfig *genai.GenerateContentConfig
	gotUser   string
	gotCtx    context.Context
	produced  int
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(s, genai.RoleModel)}},
	}
}

func (f *fakeModels) record(model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) {
	f.gotModel = model
	f.gotConfig = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotUser = contents[0].Parts[0].Text
	}
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.record(model, contents, cfg)
	if f.err != nil {
		return nil, f.err
	}
	return textResponse(f.text), nil
}

func (f *fakeModels) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.record(model, contents, cfg)
	f.gotCtx = ctx
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		for _, c := range f.chunks {
			f.produced++
			if !yield(textResponse(c), nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield(nil, f.streamErr)
		}
	}
}

func testBackend(f *fakeModels) *Backend {
	temp := float32(0.4)
	return newWithModels(f, config.ProviderConfig{Model: "gemini-2.0-flash", Temperature: &temp, MaxOutputTokens: 1024})
}

func TestGenerateSendsSystemInstructionSeparately(t *testing.T) {
	f := &fakeModels{text: "Mitochondria release energy."}
	b := testBackend(f)

	out, err := b.Generate(context.Background(), engine.Prompt{System: "You are a Biology tutor.", User: "What do mitochondria do?"})
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria release energy.", out)

	assert.Equal(t, "gemini-2.0-flash", f.gotModel)
	assert.Equal(t, "What do mitochondria do?", f.gotUser)
	require.NotNil(t, f.gotConfig.SystemInstruction)
	assert.Equal(t, "You are a Biology tutor.", f.gotConfig.SystemInstruction.Parts[0].Text)
	require.NotNil(t, f.gotConfig.Temperature)
	assert.Equal(t, float32(0.4), *f.gotConfig.Temperature)
	assert.Equal(t, int32(1024), f.gotConfig.MaxOutputTokens)
}

func TestGenerateMapsAPIError(t *testing.T) {
	f := &fakeModels{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "Quota exceeded for metric"}}
	_, err := testBackend(f).Generate(context.Background(), engine.Prompt{System: "s", User: "q"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	code, ok := httpx.StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestGenerateStream(t *testing.T) {
	f := &fakeModels{chunks: []string{"Osmosis is ", "", "the movement of water."}}
	s, err := testBackend(f).GenerateStream(context.Background(), engine.Prompt{System: "s", User: "q"})
	require.NoError(t, err)

	var frags []string
	for frag, err := range s.Fragments() {
		require.NoError(t, err)
		frags = append(frags, frag)
	}
	assert.Equal(t, []string{"Osmosis is ", "the movement of water."}, frags)
}

func TestGenerateStreamFailureIsLastElement(t *testing.T) {
	boom := errors.New("connection reset")
	f := &fakeModels{chunks: []string{"a", "b"}, streamErr: boom}
	s, err := testBackend(f).GenerateStream(context.Background(), engine.Prompt{System: "s", User: "q"})
	require.NoError(t, err)

	got, err := s.Collect()
	assert.Equal(t, "ab", got)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateStreamStopsWhenConsumerBreaks(t *testing.T) {
	f := &fakeModels{chunks: []string{"1", "2", "3", "4", "5"}}
	s, err := testBackend(f).GenerateStream(context.Background(), engine.Prompt{System: "s", User: "q"})
	require.NoError(t, err)

	for range s.Fragments() {
		break
	}
	assert.LessOrEqual(t, f.produced, 2)
}

func TestGenerateStreamAppliesStreamTimeout(t *testing.T) {
	f := &fakeModels{chunks: []string{"Diffusion"}}
	b := newWithModels(f, config.ProviderConfig{StreamTimeout: config.Duration{Duration: time.Minute}})

	s, err := b.GenerateStream(context.Background(), engine.Prompt{System: "s", User: "q"})
	require.NoError(t, err)
	_, hasDeadline := f.gotCtx.Deadline()
	assert.True(t, hasDeadline)

	got, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, "Diffusion", got)
	assert.ErrorIs(t, f.gotCtx.Err(), context.Canceled)
}

func TestGenerateStreamCloseReleasesTimeout(t *testing.T) {
	f := &fakeModels{chunks: []string{"unread"}}
	b := newWithModels(f, config.ProviderConfig{StreamTimeout: config.Duration{Duration: time.Minute}})

	s, err := b.GenerateStream(context.Background(), engine.Prompt{System: "s", User: "q"})
	require.NoError(t, err)
	s.Close()
	assert.ErrorIs(t, f.gotCtx.Err(), context.Canceled)
	assert.Zero(t, f.produced)
}

func TestNewWithoutKey(t *testing.T) {
	_, err := New(context.Background(), config.ProviderConfig{Model: "gemini-2.0-flash"})
	assert.ErrorIs(t, err, engine.ErrMissingCredentials)
}
