package chunk

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pkoukk/tiktoken-go"
)

// Splitter splits text into token-bounded chunks, breaking on the coarsest
// separator that keeps each chunk within the budget.
type Splitter struct {
	enc       *tiktoken.Tiktoken
	chunkSize int
	overlap   int
	minTokens int
}

type SplitterOption func(*Splitter)

// WithChunkSize sets the token budget per chunk.
func WithChunkSize(size int) SplitterOption {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithOverlap sets the token budget carried over from the end of one chunk
// into the start of the next.
func WithOverlap(overlap int) SplitterOption {
	return func(s *Splitter) {
		s.overlap = overlap
	}
}

// WithMinTokens drops chunks shorter than min tokens from the output.
func WithMinTokens(min int) SplitterOption {
	return func(s *Splitter) {
		s.minTokens = min
	}
}

// NewSplitter creates a Splitter using the o200k_base encoding as the token
// length function.
func NewSplitter(opts ...SplitterOption) (*Splitter, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load token encoding")
	}

	s := &Splitter{
		enc:       enc,
		chunkSize: 500,
		overlap:   10,
		minTokens: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenLen returns the number of tokens in text.
func (s *Splitter) TokenLen(text string) int {
	return len(s.enc.Encode(text, nil, nil))
}

var separators = []string{"\n\n", "\n", " "}

// Split breaks text into chunks of at most the configured token budget,
// dropping chunks below the minimum length.
func (s *Splitter) Split(text string) []string {
	raw := s.split(text, separators)

	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		if s.TokenLen(c) >= s.minTokens {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func (s *Splitter) split(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if s.TokenLen(text) <= s.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.splitRunes(text)
	}

	sep := seps[0]
	pieces := strings.Split(text, sep)
	if len(pieces) == 1 {
		// Separator absent, fall through to the next finer one.
		return s.split(text, seps[1:])
	}

	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, sep))

		// Seed the next chunk with trailing pieces within the overlap budget.
		var carry []string
		carryTokens := 0
		for i := len(current) - 1; i >= 0; i-- {
			t := s.TokenLen(current[i])
			if carryTokens+t > s.overlap {
				break
			}
			carry = append([]string{current[i]}, carry...)
			carryTokens += t
		}
		current = carry
		currentTokens = carryTokens
	}

	for _, piece := range pieces {
		t := s.TokenLen(piece)

		if t > s.chunkSize {
			flush()
			current = nil
			currentTokens = 0
			chunks = append(chunks, s.split(piece, seps[1:])...)
			continue
		}

		if currentTokens+t > s.chunkSize {
			flush()
		}
		current = append(current, piece)
		currentTokens += t
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}

	return chunks
}

// splitRunes is the last resort for text with no usable separator: a hard
// cut at the token boundary using the encoder's own token stream.
func (s *Splitter) splitRunes(text string) []string {
	tokens := s.enc.Encode(text, nil, nil)

	var chunks []string
	for start := 0; start < len(tokens); start += s.chunkSize {
		end := min(start+s.chunkSize, len(tokens))
		chunks = append(chunks, s.enc.Decode(tokens[start:end]))
	}
	return chunks
}

// Sentences splits text on sentence boundaries into chunks of at most size
// bytes. It is the lightweight alternative to the token-aware Splitter for
// callers that do not need an encoder.
func Sentences(text string, size int) []string {
	if size <= 0 {
		size = 500
	}

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence) > size {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(" ")
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

// sentences breaks text after terminal punctuation followed by whitespace.
func sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '?', '!':
			if runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				out = append(out, strings.TrimSpace(string(runes[start:i+1])))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}

	return out
}
