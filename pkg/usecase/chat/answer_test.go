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

func TestGetAnswer(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{0.1, 0.2, 0.3}, nil
		},
		generateFunc: func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
			return textResponse("The capital of France is Paris."), nil
		},
	}
	index := &mockIndex{
		queryFunc: func(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error) {
			return []model.Snippet{
				{Content: "Paris is the capital of France.", Score: 0.92},
			}, nil
		},
	}
	repo := &mockRepo{training: []string{"Answer geography questions concisely."}}

	p := newTestPipeline(Options{Dimension: 3}, cache, llm, index, repo)

	answer, err := p.GetAnswer(ctx, "What is the capital of France?", 1, "sess-1")
	gt.NoError(t, err)
	gt.Equal(t, answer, "The capital of France is Paris.")

	// The prompt carries training data, retrieved snippet and the question.
	gt.A(t, llm.prompts).Length(1)
	prompt := llm.prompts[0]
	gt.S(t, prompt).Contains("Answer geography questions concisely.")
	gt.S(t, prompt).Contains("Paris is the capital of France.")
	gt.S(t, prompt).Contains("Question: What is the capital of France?")

	// The index is queried in the agent's namespace.
	gt.Equal(t, index.namespaces, []string{"agent-1"})

	// Both turns land in the session history.
	gt.Equal(t, cache.lists["session_history:sess-1"], []string{
		"Question: What is the capital of France?",
		"Answer: The capital of France is Paris.",
	})

	// Both turns are durably logged, user first.
	gt.A(t, repo.messages).Length(2)
	gt.Equal(t, repo.messages[0].Sender, model.SenderUser)
	gt.Equal(t, repo.messages[0].Content, "What is the capital of France?")
	gt.Equal(t, repo.messages[1].Sender, model.SenderBot)
	gt.Equal(t, repo.messages[1].Content, "The capital of France is Paris.")
}

func TestGetAnswerSequentialTurns(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	answers := []string{"Paris.", "About two million people."}
	turn := 0
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		},
		generateFunc: func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
			resp := textResponse(answers[turn])
			turn++
			return resp, nil
		},
	}
	repo := &mockRepo{}
	p := newTestPipeline(Options{Dimension: 3}, cache, llm, &mockIndex{}, repo)

	first, err := p.GetAnswer(ctx, "first question", 1, "sess-2")
	gt.NoError(t, err)

	_, err = p.GetAnswer(ctx, "second question", 1, "sess-2")
	gt.NoError(t, err)

	// The second prompt sees the first exchange through the history read.
	gt.A(t, llm.prompts).Length(2)
	gt.S(t, llm.prompts[1]).Contains("Question: first question")
	gt.S(t, llm.prompts[1]).Contains("Answer: " + first)

	gt.A(t, cache.lists["session_history:sess-2"]).Length(4)
	gt.A(t, repo.messages).Length(4)
}

func TestGetAnswerDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return make([]float32, 512), nil
		},
	}
	index := &mockIndex{}
	repo := &mockRepo{}
	p := newTestPipeline(Options{Dimension: 1024}, cache, llm, index, repo)

	_, err := p.GetAnswer(ctx, "question", 1, "sess-3")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidVectorDimension))

	// The request dies before retrieval, completion or any write.
	gt.Equal(t, index.queryCalls, 0)
	gt.Equal(t, llm.generateCalls, 0)
	gt.A(t, cache.lists["session_history:sess-3"]).Length(0)
	gt.A(t, repo.messages).Length(0)
}

func TestGetAnswerEmptyQuery(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{}
	p := newTestPipeline(Options{}, newMockCache(), llm, &mockIndex{}, &mockRepo{})

	_, err := p.GetAnswer(ctx, "   ", 1, "sess-4")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrEmptyQuery))
	gt.Equal(t, llm.embedCalls, 0)
}

func TestGetAnswerRetrievalFailure(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	boom := errors.New("index unavailable")
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 2, 3}, nil
		},
	}
	index := &mockIndex{
		queryFunc: func(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error) {
			return nil, boom
		},
	}
	repo := &mockRepo{}
	p := newTestPipeline(Options{Dimension: 3}, cache, llm, index, repo)

	_, err := p.GetAnswer(ctx, "question", 1, "sess-5")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, boom))

	// A failed retrieval branch fails the whole request before any write.
	gt.Equal(t, llm.generateCalls, 0)
	gt.A(t, cache.lists["session_history:sess-5"]).Length(0)
	gt.A(t, repo.messages).Length(0)
}

func TestGetAnswerFiltersEmptySnippets(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 2, 3}, nil
		},
		generateFunc: func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
			return textResponse("ok"), nil
		},
	}
	index := &mockIndex{
		queryFunc: func(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error) {
			return []model.Snippet{
				{Content: "", Score: 0.99},
				{Content: "real snippet", Score: 0.5},
			}, nil
		},
	}
	p := newTestPipeline(Options{Dimension: 3}, newMockCache(), llm, index, &mockRepo{})

	_, err := p.GetAnswer(ctx, "question", 1, "sess-6")
	gt.NoError(t, err)

	gt.S(t, llm.prompts[0]).Contains("real snippet")
	gt.S(t, llm.prompts[0]).Contains("Context: real snippet")
}

func TestGetAnswerStream(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 2, 3}, nil
		},
		streamFunc: func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamOf(textResponse("The answer "), textResponse("is Paris."))
		},
	}
	repo := &mockRepo{}
	p := newTestPipeline(Options{Dimension: 3}, cache, llm, &mockIndex{}, repo)

	var streamed string
	err := p.GetAnswerStream(ctx, "What is the capital?", 1, "sess-7", func(chunk string) error {
		streamed += chunk
		return nil
	})
	gt.NoError(t, err)
	gt.Equal(t, streamed, "The answer is Paris.")

	// The persisted bot turn carries the placeholder, not the streamed text.
	gt.A(t, repo.messages).Length(2)
	gt.Equal(t, repo.messages[1].Content, model.StreamedAnswerPlaceholder)

	gt.Equal(t, cache.lists["session_history:sess-7"], []string{
		"Question: What is the capital?",
		"Answer: " + model.StreamedAnswerPlaceholder,
	})
}

func TestGetAnswerStreamFailureSkipsRecord(t *testing.T) {
	ctx := context.Background()
	cache := newMockCache()
	boom := errors.New("stream broke")
	llm := &mockLLM{
		embeddingFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 2, 3}, nil
		},
		streamFunc: func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
			return func(yield func(*genai.GenerateContentResponse, error) bool) {
				yield(nil, boom)
			}
		},
	}
	repo := &mockRepo{}
	p := newTestPipeline(Options{Dimension: 3}, cache, llm, &mockIndex{}, repo)

	err := p.GetAnswerStream(ctx, "question", 1, "sess-8", func(chunk string) error {
		return nil
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, boom))

	// A failed stream records nothing.
	gt.A(t, cache.lists["session_history:sess-8"]).Length(0)
	gt.A(t, repo.messages).Length(0)
}
