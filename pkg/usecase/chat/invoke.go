package chat

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

// responseText flattens the text parts of a completion response into one
// string. An empty result means the response carried no usable text.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

// invoke calls the completion service once and returns the full answer text.
func (p *Pipeline) invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := p.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	answer := responseText(resp)
	if answer == "" {
		return "", goerr.Wrap(model.ErrUnexpectedCompletionFormat, "completion response has no text content")
	}

	return answer, nil
}

// invokeStream opens a token stream from the completion service and calls
// onChunk once per non-empty text chunk, in arrival order, until the stream
// ends. A context cancellation or an onChunk error aborts the drain and
// propagates to the upstream call.
func (p *Pipeline) invokeStream(ctx context.Context, prompt string, onChunk func(chunk string) error) error {
	logger := logging.From(ctx)

	started := time.Now()
	var firstChunk time.Time

	for resp, err := range p.llm.GenerateContentStream(ctx, prompt) {
		if err != nil {
			return goerr.Wrap(err, "completion stream failed")
		}

		chunk := responseText(resp)
		if chunk == "" {
			continue
		}

		if firstChunk.IsZero() {
			firstChunk = time.Now()
			logger.Info("time to first chunk", "latency", firstChunk.Sub(started))
		}

		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "stream cancelled")
		}
		if err := onChunk(chunk); err != nil {
			return goerr.Wrap(err, "chunk callback failed")
		}
	}

	logger.Info("completion stream drained", "total", time.Since(started))
	return nil
}
