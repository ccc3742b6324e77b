package planqa

import (
	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/retrieval"
)

// Option configures engine construction.
type Option func(*engineConfig)

type engineConfig struct {
	corpusPath string
	passages   []Passage
	tuning     retrieval.Tuning
	limits     retrieval.Limits
	topN       int
	system     string
	embedding  *providerConfig
	generation *providerConfig
	logger     *zap.Logger
}

type providerConfig struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	maxTokens  int
}

// WithCorpusFile loads the passage corpus from a JSON file at construction.
func WithCorpusFile(path string) Option {
	return func(c *engineConfig) {
		c.corpusPath = path
	}
}

// WithPassages supplies the corpus directly. Takes precedence over
// WithCorpusFile.
func WithPassages(passages []Passage) Option {
	return func(c *engineConfig) {
		c.passages = passages
	}
}

// WithTuning replaces the default stopword and synonym tables.
func WithTuning(stopwords []string, synonyms map[string][]string) Option {
	return func(c *engineConfig) {
		c.tuning = retrieval.Tuning{Stopwords: stopwords, Synonyms: synonyms}
	}
}

// WithLimits replaces the default boundary limits. Zero fields keep their
// defaults.
func WithLimits(limits Limits) Option {
	return func(c *engineConfig) {
		if limits.MaxQuestionChars > 0 {
			c.limits.MaxQuestionChars = limits.MaxQuestionChars
		}
		if limits.MaxCandidates > 0 {
			c.limits.MaxCandidates = limits.MaxCandidates
		}
	}
}

// WithTopN caps how many ranked passages back each answer.
func WithTopN(n int) Option {
	return func(c *engineConfig) {
		c.topN = n
	}
}

// WithSystemInstruction overrides the instruction given to the generation
// model.
func WithSystemInstruction(system string) Option {
	return func(c *engineConfig) {
		c.system = system
	}
}

// WithOpenAIEmbedding enables semantic reranking through an
// OpenAI-compatible embeddings endpoint. Without it answers keep lexical
// order.
func WithOpenAIEmbedding(apiKey, baseURL, model string, dimensions int) Option {
	return func(c *engineConfig) {
		c.embedding = &providerConfig{
			apiKey:     apiKey,
			baseURL:    baseURL,
			model:      model,
			dimensions: dimensions,
		}
	}
}

// WithOpenAIGeneration enables Ask through an OpenAI-compatible chat
// completions endpoint. Without it the engine serves Search only.
func WithOpenAIGeneration(apiKey, baseURL, model string, maxTokens int) Option {
	return func(c *engineConfig) {
		c.generation = &providerConfig{
			apiKey:    apiKey,
			baseURL:   baseURL,
			model:     model,
			maxTokens: maxTokens,
		}
	}
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = l
	}
}
