package adapter

import (
	"context"
	"iter"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// LLM is the interface for the language model service. It covers the three
// calls the pipeline makes: query embedding, buffered completion and
// streamed completion.
type LLM interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
	GenerateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error]
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
		embeddingModel:  "gemini-embedding-001",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Embedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 {
		return nil, goerr.New("embedding service returned no embeddings")
	}

	return resp.Embeddings[0].Values, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content")
	}
	return resp, nil
}

func (g *GeminiClient) GenerateContentStream(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	return g.client.Models.GenerateContentStream(ctx, g.generativeModel, contents, nil)
}
