package chat

import (
	"context"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

func historyKey(sessionID model.SessionID) string {
	return historyKeyPrefix + string(sessionID)
}

// appendHistory pushes entry to the tail of the session's log, refreshes the
// sliding TTL and trims the log to the most recent HistoryLimit entries.
// Trimming happens after every append so the log never exceeds the cap.
func (p *Pipeline) appendHistory(ctx context.Context, sessionID model.SessionID, entry string) error {
	key := historyKey(sessionID)

	if err := p.cache.ListAppend(ctx, key, entry); err != nil {
		return err
	}
	if err := p.cache.Expire(ctx, key, p.opts.SessionTTL); err != nil {
		return err
	}
	return p.cache.ListTrim(ctx, key, -int64(p.opts.HistoryLimit), -1)
}

// readHistory returns the session's retained log in insertion order, limited
// to the configured window when one is set. A non-empty read refreshes the
// sliding TTL.
func (p *Pipeline) readHistory(ctx context.Context, sessionID model.SessionID) ([]string, error) {
	key := historyKey(sessionID)

	start := int64(0)
	if p.opts.HistoryWindow > 0 {
		start = -int64(p.opts.HistoryWindow)
	}

	entries, err := p.cache.ListRange(ctx, key, start, -1)
	if err != nil {
		return nil, err
	}

	if len(entries) > 0 {
		if err := p.cache.Expire(ctx, key, p.opts.SessionTTL); err != nil {
			return nil, err
		}
	}

	return entries, nil
}
