package chat

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

// buildPrompt runs the retrieval stages: embedding resolution, then the
// three independent context reads issued concurrently, then composition.
// The join is all-or-nothing; a failure in any branch fails the request
// before anything has been written.
func (p *Pipeline) buildPrompt(ctx context.Context, query string, agentID model.AgentID, sessionID model.SessionID) (string, error) {
	logger := logging.From(ctx)

	if strings.TrimSpace(query) == "" {
		return "", goerr.Wrap(model.ErrEmptyQuery, "cannot answer an empty query")
	}

	vec, err := p.embedQuery(ctx, query)
	if err != nil {
		return "", err
	}

	// The vector search depends on the embedding, but the history and
	// training reads do not; all three run concurrently.
	var (
		snippets []model.Snippet
		history  []string
		training []string
	)

	retrieveStart := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		snippets, err = p.index.Query(egCtx, agentID.Namespace(), vec, p.opts.TopK, true)
		return err
	})
	eg.Go(func() error {
		var err error
		history, err = p.readHistory(egCtx, sessionID)
		return err
	})
	eg.Go(func() error {
		var err error
		training, err = p.trainingData(egCtx, agentID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return "", err
	}

	// Snippets without text content never reach the composer.
	contents := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s.Content != "" {
			contents = append(contents, s.Content)
		}
	}

	logger.Info("context retrieved",
		"snippets", len(contents),
		"history", len(history),
		"training", len(training),
		"latency", time.Since(retrieveStart))

	return renderPrompt(composeContext(training, history, contents), query), nil
}

// recordTurn appends the question/answer pair to the session history and
// durably logs both conversation turns. Called exactly once per request,
// only after a successful completion.
func (p *Pipeline) recordTurn(ctx context.Context, query string, agentID model.AgentID, sessionID model.SessionID, answer string) error {
	if err := p.appendHistory(ctx, sessionID, "Question: "+query); err != nil {
		return err
	}
	if err := p.appendHistory(ctx, sessionID, "Answer: "+answer); err != nil {
		return err
	}

	if _, err := p.repo.CreateMessage(ctx, agentID, sessionID, model.SenderUser, query); err != nil {
		return err
	}
	if _, err := p.repo.CreateMessage(ctx, agentID, sessionID, model.SenderBot, answer); err != nil {
		return err
	}
	return nil
}

// GetAnswer answers query in buffered mode: the completion service is
// awaited for the full response, which is persisted and returned.
func (p *Pipeline) GetAnswer(ctx context.Context, query string, agentID model.AgentID, sessionID model.SessionID) (string, error) {
	logging.From(ctx).Info("answering question", "agentID", agentID, "sessionID", sessionID)

	prompt, err := p.buildPrompt(ctx, query, agentID, sessionID)
	if err != nil {
		return "", err
	}

	answer, err := p.invoke(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := p.recordTurn(ctx, query, agentID, sessionID, answer); err != nil {
		return "", err
	}

	return answer, nil
}

// GetAnswerStream answers query in streaming mode, delivering chunks through
// onChunk as they arrive. History and conversation log are written exactly
// once after the stream is fully drained, with a placeholder standing in for
// the streamed text.
func (p *Pipeline) GetAnswerStream(ctx context.Context, query string, agentID model.AgentID, sessionID model.SessionID, onChunk func(chunk string) error) error {
	logging.From(ctx).Info("answering question (stream)", "agentID", agentID, "sessionID", sessionID)

	prompt, err := p.buildPrompt(ctx, query, agentID, sessionID)
	if err != nil {
		return err
	}

	if err := p.invokeStream(ctx, prompt, onChunk); err != nil {
		return err
	}

	return p.recordTurn(ctx, query, agentID, sessionID, model.StreamedAnswerPlaceholder)
}
