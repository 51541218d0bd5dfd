// Package query implements the question-answering pipeline: embed the
// question, retrieve the top-K most similar chunks, assemble them into a
// context block, and synthesize an answer with the configured LLM. The
// pipeline is a strict linear state machine; no stage is skipped and a
// failure in any stage is terminal for the request.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docq-ai/docq-go/internal/budget"
	"github.com/docq-ai/docq-go/internal/rag"
)

// Config holds the pipeline-level query parameters.
type Config struct {
	// TopK is the retrieval width. Defaults to 5 if zero.
	TopK int

	// Timeout is the per-request deadline covering all stages.
	// Defaults to 60s if zero.
	Timeout time.Duration

	// MaxContextTokens caps the assembled context size. Defaults to
	// budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int
}

// Answer is the result of a completed query. It is transient: answers are
// never persisted.
type Answer struct {
	// Text is the synthesized answer.
	Text string
	// Sources are the ids of the chunks the answer was grounded on, in rank
	// order.
	Sources []string
}

// Pipeline runs questions through the fixed stage sequence. It is safe for
// concurrent use; each request carries its own state.
type Pipeline struct {
	retriever *rag.Retriever
	generator rag.Generator
	log       *slog.Logger
	cfg       *Config
}

// New constructs a Pipeline from the provided dependencies and config.
func New(retriever *rag.Retriever, generator rag.Generator, log *slog.Logger, cfg *Config) (*Pipeline, error) {
	if retriever == nil {
		return nil, fmt.Errorf("query: retriever must not be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("query: generator must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Pipeline{retriever: retriever, generator: generator, log: log, cfg: cfg}, nil
}

// request is the per-request pipeline state shared by the stages.
type request struct {
	state    State
	question string
	vector   []float32
	docs     []rag.Document
	prompt   string
	answer   string
}

// stage is one step of the linear state machine.
type stage struct {
	state State
	run   func(ctx context.Context, req *request) error
}

// Ask runs the question through every stage under the configured deadline.
// On failure no partial answer is returned.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req := &request{state: StateCreated, question: strings.TrimSpace(question)}

	stages := []stage{
		{StateEmbedding, p.embedStage},
		{StateRetrieving, p.retrieveStage},
		{StateAssembling, p.assembleStage},
		{StateSynthesizing, p.synthesizeStage},
	}

	start := time.Now()
	for _, s := range stages {
		req.state = s.state
		if err := s.run(ctx, req); err != nil {
			req.state = StateFailed
			return nil, p.classify(s.state, err)
		}
	}
	req.state = StateDone

	p.log.Info("query answered",
		slog.Int("retrieved", len(req.docs)),
		slog.Duration("elapsed", time.Since(start)),
	)

	sources := make([]string, len(req.docs))
	for i, d := range req.docs {
		sources[i] = d.ID
	}
	return &Answer{Text: req.answer, Sources: sources}, nil
}

// embedStage converts the question into a query vector.
func (p *Pipeline) embedStage(ctx context.Context, req *request) error {
	if req.question == "" {
		return fmt.Errorf("question must not be empty")
	}
	vec, err := p.retriever.EmbedQuery(ctx, req.question)
	if err != nil {
		return err
	}
	req.vector = vec
	return nil
}

// retrieveStage runs the top-K similarity search.
func (p *Pipeline) retrieveStage(ctx context.Context, req *request) error {
	docs, err := p.retriever.Index().Retrieve(ctx, req.vector, p.cfg.TopK)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return &Error{Kind: KindRetrievalEmpty, Stage: StateRetrieving}
	}
	req.docs = docs
	return nil
}

// promptTemplate frames the retrieved context for the model. Context blocks
// are ordered by retrieval rank.
const promptTemplate = `Answer the question using only the context below. If the context does not contain the answer, say so.

Context:
%s

Question: %s

Answer:`

// assembleStage builds the synthesis prompt, trimming the weakest chunks when
// the context would overflow the token budget.
func (p *Pipeline) assembleStage(_ context.Context, req *request) error {
	fixed := fmt.Sprintf(promptTemplate, "", req.question)
	req.docs = budget.TrimDocuments(fixed, req.docs, p.cfg.MaxContextTokens)
	if len(req.docs) == 0 {
		return &Error{Kind: KindRetrievalEmpty, Stage: StateAssembling,
			Err: fmt.Errorf("no retrieved chunk fits the context budget")}
	}

	var b strings.Builder
	for i, d := range req.docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if name := d.Metadata["file_name"]; name != "" {
			fmt.Fprintf(&b, "[%s p.%s] ", name, d.Metadata["page_number"])
		}
		b.WriteString(d.Text)
	}
	req.prompt = fmt.Sprintf(promptTemplate, b.String(), req.question)
	return nil
}

// synthesizeStage asks the LLM for the final answer.
func (p *Pipeline) synthesizeStage(ctx context.Context, req *request) error {
	answer, err := p.generator.Generate(ctx, req.prompt)
	if err != nil {
		return err
	}
	req.answer = answer
	return nil
}

// classify maps a stage failure onto the query error taxonomy. Deadline
// expiry wins over whatever the interrupted call reported.
func (p *Pipeline) classify(s State, err error) error {
	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Stage: s, Err: err}
	}
	if s == StateSynthesizing {
		return &Error{Kind: KindSynthesisFailed, Stage: s, Err: err}
	}
	return fmt.Errorf("query: %s stage: %w", s, err)
}
