// Package planqa answers natural-language questions about a municipal
// planning document. The engine scores passages lexically (TF-IDF over
// normalized terms), optionally reranks them by embedding similarity, and
// synthesizes an answer through a text-generation model.
//
// The same retrieval core also backs the planqa HTTP service under
// cmd/planqa; this package is the embedded, in-process entry point.
package planqa

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/corpus"
	"github.com/citydesk/planqa/internal/domain"
	"github.com/citydesk/planqa/internal/retrieval"
	openaiProv "github.com/citydesk/planqa/internal/transport/openai"
	answeruc "github.com/citydesk/planqa/internal/usecase/answer"
	rerankuc "github.com/citydesk/planqa/internal/usecase/rerank"
	searchuc "github.com/citydesk/planqa/internal/usecase/search"
)

// ErrNoGenerator is returned by Ask when no generation provider was
// configured.
var ErrNoGenerator = errors.New("planqa: generation provider not configured (use WithOpenAIGeneration)")

// Engine is the embedded retrieval engine.
type Engine struct {
	search *searchuc.Service
	answer *answeruc.Service
}

// New creates an Engine over a passage corpus. A corpus source
// (WithCorpusFile or WithPassages) is required; everything else has
// defaults.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		tuning: retrieval.DefaultTuning(),
		limits: retrieval.DefaultLimits(),
		topN:   25,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	passages, err := loadPassages(cfg)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return nil, errors.New("planqa: corpus is empty (use WithCorpusFile or WithPassages)")
	}

	guard := retrieval.NewGuard(cfg.limits)
	norm := retrieval.NewNormalizer(cfg.tuning)
	scorer := retrieval.NewScorer(norm, passages)
	searchSvc := searchuc.New(guard, norm, scorer)

	var embedder domain.BatchEmbedder
	if cfg.embedding != nil {
		embedder = openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
			APIKey:     cfg.embedding.apiKey,
			BaseURL:    cfg.embedding.baseURL,
			Model:      cfg.embedding.model,
			Dimensions: cfg.embedding.dimensions,
			Logger:     cfg.logger,
		})
	}

	var generator domain.Generator
	if cfg.generation != nil {
		generator = openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
			APIKey:    cfg.generation.apiKey,
			BaseURL:   cfg.generation.baseURL,
			Model:     cfg.generation.model,
			MaxTokens: cfg.generation.maxTokens,
			Logger:    cfg.logger,
		})
	}

	e := &Engine{search: searchSvc}
	if generator != nil {
		e.answer = answeruc.New(
			guard, searchSvc, rerankuc.New(embedder), generator, cfg.topN, cfg.system,
		)
	}
	return e, nil
}

func loadPassages(cfg *engineConfig) ([]domain.Passage, error) {
	if len(cfg.passages) > 0 {
		out := make([]domain.Passage, len(cfg.passages))
		for i, p := range cfg.passages {
			out[i] = passageToDomain(p)
		}
		return out, nil
	}
	if cfg.corpusPath != "" {
		return corpus.Load(cfg.corpusPath)
	}
	return nil, nil
}

// Search scores the question against the corpus and returns ranked section
// groups. A question matching nothing returns an empty slice.
func (e *Engine) Search(question string) ([]SectionGroup, error) {
	groups, err := e.search.Search(question)
	if err != nil {
		return nil, err
	}
	return groupsFromDomain(groups), nil
}

// Ask retrieves relevant passages, reranks them when embedding is
// configured, and generates an answer. Candidates may be supplied to answer
// over a fixed passage set instead of the corpus shortlist.
func (e *Engine) Ask(ctx context.Context, question string, candidates ...Passage) (Answer, error) {
	if e.answer == nil {
		return Answer{}, ErrNoGenerator
	}

	var supplied []domain.Passage
	if len(candidates) > 0 {
		supplied = make([]domain.Passage, len(candidates))
		for i, c := range candidates {
			supplied[i] = passageToDomain(c)
		}
	}

	resp, err := e.answer.Ask(ctx, answeruc.Request{
		Question:   question,
		Candidates: supplied,
	})
	if err != nil {
		return Answer{}, err
	}

	return Answer{
		Text:                  resp.Answer,
		Passages:              rankedFromDomain(resp.Passages),
		UsedSemanticReranking: resp.UsedSemanticReranking,
		TotalTokens:           resp.TotalTokens,
	}, nil
}
