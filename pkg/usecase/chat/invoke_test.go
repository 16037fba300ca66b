package chat

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

func TestResponseText(t *testing.T) {
	t.Run("single part", func(t *testing.T) {
		gt.Equal(t, responseText(textResponse("hello")), "hello")
	})

	t.Run("multiple parts concatenated", func(t *testing.T) {
		gt.Equal(t, responseText(textResponse("foo", "bar")), "foobar")
	})

	t.Run("multiple candidates flattened", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "first"}}}},
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
			},
		}
		gt.Equal(t, responseText(resp), "firstsecond")
	})

	t.Run("nil response", func(t *testing.T) {
		gt.Equal(t, responseText(nil), "")
	})

	t.Run("nil candidate content", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				nil,
				{Content: nil},
				{Content: &genai.Content{Parts: []*genai.Part{nil, {Text: "ok"}}}},
			},
		}
		gt.Equal(t, responseText(resp), "ok")
	})
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
			return textResponse("the answer"), nil
		},
	}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	answer, err := p.invoke(ctx, "prompt")
	gt.NoError(t, err)
	gt.Equal(t, answer, "the answer")
}

func TestInvokeEmptyResponse(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	_, err := p.invoke(ctx, "prompt")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnexpectedCompletionFormat))
}

func TestInvokeStreamOrder(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{
		streamFunc: func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamOf(
				textResponse("The "),
				textResponse(""),
				textResponse("capital "),
				textResponse("is Paris."),
			)
		},
	}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	var chunks []string
	err := p.invokeStream(ctx, "prompt", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	gt.NoError(t, err)

	// Empty chunks are skipped, the rest arrive in stream order.
	gt.Equal(t, chunks, []string{"The ", "capital ", "is Paris."})
}

func TestInvokeStreamCallbackError(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{
		streamFunc: func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamOf(textResponse("one"), textResponse("two"), textResponse("three"))
		},
	}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	sink := errors.New("client went away")
	var received []string
	err := p.invokeStream(ctx, "prompt", func(chunk string) error {
		received = append(received, chunk)
		if len(received) == 2 {
			return sink
		}
		return nil
	})

	gt.Error(t, err)
	gt.True(t, errors.Is(err, sink))
	gt.Equal(t, received, []string{"one", "two"})
}

func TestInvokeStreamServiceError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("upstream failed")
	llm := &mockLLM{
		streamFunc: func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
			return func(yield func(*genai.GenerateContentResponse, error) bool) {
				if !yield(textResponse("partial"), nil) {
					return
				}
				yield(nil, boom)
			}
		},
	}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	var received []string
	err := p.invokeStream(ctx, "prompt", func(chunk string) error {
		received = append(received, chunk)
		return nil
	})

	gt.Error(t, err)
	gt.True(t, errors.Is(err, boom))
	gt.Equal(t, received, []string{"partial"})
}

func TestInvokeStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &mockLLM{
		streamFunc: func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamOf(textResponse("one"), textResponse("two"))
		},
	}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	cancel()
	err := p.invokeStream(ctx, "prompt", func(chunk string) error {
		t.Fatal("chunk delivered after cancellation")
		return nil
	})

	gt.Error(t, err)
	gt.True(t, errors.Is(err, context.Canceled))
}
