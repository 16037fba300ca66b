package chat

import (
	"context"
	"iter"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

// Mock cache with real list semantics so trim and range behave like the
// backing store does, including negative offsets.
type mockCache struct {
	values map[string][]byte
	lists  map[string][]string
	ttls   map[string]time.Duration

	setCalls    int
	expireCalls map[string]int

	getErr  error
	listErr error
}

func newMockCache() *mockCache {
	return &mockCache{
		values:      make(map[string][]byte),
		lists:       make(map[string][]string),
		ttls:        make(map[string]time.Duration),
		expireCalls: make(map[string]int),
	}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	val, ok := m.values[key]
	return val, ok, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalls++
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) ListAppend(ctx context.Context, key, value string) error {
	if m.listErr != nil {
		return m.listErr
	}
	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *mockCache) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	list := m.lists[key]
	n := int64(len(list))

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (m *mockCache) ListTrim(ctx context.Context, key string, start, stop int64) error {
	if m.listErr != nil {
		return m.listErr
	}
	list := m.lists[key]
	n := int64(len(list))

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		m.lists[key] = nil
		return nil
	}

	m.lists[key] = list[start : stop+1]
	return nil
}

func (m *mockCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.expireCalls[key]++
	m.ttls[key] = ttl
	return nil
}

// Mock LLM with overridable behavior per call.
type mockLLM struct {
	embeddingFunc func(ctx context.Context, text string) ([]float32, error)
	generateFunc  func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	streamFunc    func(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error]

	embedCalls    int
	generateCalls int
	prompts       []string
}

func (m *mockLLM) Embedding(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embeddingFunc == nil {
		return nil, goerr.New("embeddingFunc not set")
	}
	return m.embeddingFunc(ctx, text)
}

func (m *mockLLM) GenerateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	m.generateCalls++
	m.prompts = append(m.prompts, prompt)
	if m.generateFunc == nil {
		return nil, goerr.New("generateFunc not set")
	}
	return m.generateFunc(ctx, prompt)
}

func (m *mockLLM) GenerateContentStream(ctx context.Context, prompt string) iter.Seq2[*genai.GenerateContentResponse, error] {
	m.prompts = append(m.prompts, prompt)
	if m.streamFunc == nil {
		return func(yield func(*genai.GenerateContentResponse, error) bool) {}
	}
	return m.streamFunc(ctx, prompt)
}

// textResponse builds a single-candidate completion response carrying texts
// as separate parts.
func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
	}
}

func streamOf(resps ...*genai.GenerateContentResponse) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, r := range resps {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Mock vector index.
type mockIndex struct {
	queryFunc  func(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error)
	upsertFunc func(ctx context.Context, namespace string, chunks []model.Chunk, vectors [][]float32) error

	queryCalls int
	namespaces []string
}

func (m *mockIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error) {
	m.queryCalls++
	m.namespaces = append(m.namespaces, namespace)
	if m.queryFunc == nil {
		return nil, nil
	}
	return m.queryFunc(ctx, namespace, vector, topK, includeContent)
}

func (m *mockIndex) Upsert(ctx context.Context, namespace string, chunks []model.Chunk, vectors [][]float32) error {
	m.namespaces = append(m.namespaces, namespace)
	if m.upsertFunc == nil {
		return nil
	}
	return m.upsertFunc(ctx, namespace, chunks, vectors)
}

// Mock repository. Only the methods the pipeline touches carry behavior,
// the rest satisfy the interface.
type mockRepo struct {
	training          []string
	trainingErr       error
	findCalls         int
	lastTrainingLimit int

	messages []*model.Message
}

func (m *mockRepo) CreateAgent(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	return agent, nil
}

func (m *mockRepo) GetAgent(ctx context.Context, id model.AgentID) (*model.Agent, error) {
	return &model.Agent{ID: id, Name: "agent"}, nil
}

func (m *mockRepo) ListAgents(ctx context.Context) ([]*model.Agent, error) {
	return nil, nil
}

func (m *mockRepo) UpdateAgent(ctx context.Context, agent *model.Agent) error {
	return nil
}

func (m *mockRepo) DeleteAgent(ctx context.Context, id model.AgentID) error {
	return nil
}

func (m *mockRepo) CreateMessage(ctx context.Context, agentID model.AgentID, sessionID model.SessionID, sender model.Sender, content string) (*model.Message, error) {
	msg := &model.Message{
		ID:        int64(len(m.messages) + 1),
		AgentID:   agentID,
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *mockRepo) ListMessages(ctx context.Context, sessionID model.SessionID, offset, limit int) ([]*model.Message, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) ListOpenIssues(ctx context.Context, agentID model.AgentID, offset, limit int) ([]*model.Message, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) UpdateReaction(ctx context.Context, messageID int64, reaction *int) (*model.Message, error) {
	return nil, nil
}

func (m *mockRepo) CreateTrainingExample(ctx context.Context, messageID int64, agentID model.AgentID, data string) (*model.TrainingExample, error) {
	return nil, nil
}

func (m *mockRepo) FindTrainingData(ctx context.Context, agentID model.AgentID, limit int) ([]string, error) {
	m.findCalls++
	m.lastTrainingLimit = limit
	if m.trainingErr != nil {
		return nil, m.trainingErr
	}
	return m.training, nil
}

func (m *mockRepo) ListTrainingExamples(ctx context.Context, agentID model.AgentID) ([]*model.TrainingExample, error) {
	return nil, nil
}

func (m *mockRepo) DeleteTrainingExample(ctx context.Context, id int64) (*model.TrainingExample, error) {
	return nil, nil
}

// newTestPipeline wires the mocks into a pipeline with small dimensions so
// test vectors stay readable.
func newTestPipeline(opts Options, cache *mockCache, llm *mockLLM, index *mockIndex, repo *mockRepo) *Pipeline {
	return New(NewInput{
		Cache:   cache,
		LLM:     llm,
		Index:   index,
		Repo:    repo,
		Options: opts,
	})
}
