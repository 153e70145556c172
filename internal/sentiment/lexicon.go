// Package sentiment provides the scoring contract consumed by the ingestion
// pipeline and a simple, deterministic, concurrency-safe lexicon scorer that
// satisfies it without any network dependency. It is intentionally small but
// engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with case folding (golang.org/x/text)
//   - Immutable, read-only lexicon after construction (safe for concurrent use)
//   - Deterministic output: the same text always yields the same score
//
// The pipeline only requires Scorer; deployments can swap in a remote model
// client as long as it honors the [0,4] score range and returns an error
// (rather than a default) when it cannot answer.
package sentiment

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Scorer produces a continuous sentiment score in [0,4] for a piece of text
// (0 = very negative, 2 = neutral, 4 = very positive). Implementations must
// respect ctx cancellation and must return an error (never a fabricated
// neutral score) when they cannot answer.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ----------------------------------------------------------------------------
// Options

// Option customizes a LexiconScorer at construction time.
type Option func(*config)

type config struct {
	lexicon   map[string]float64
	negations map[string]struct{}
}

func defaultConfig() config {
	return config{
		lexicon:   defaultLexicon,
		negations: defaultNegations,
	}
}

// WithLexicon replaces the built-in valence lexicon. Keys are compared after
// case folding; values are valences in [-1,1].
func WithLexicon(lex map[string]float64) Option {
	return func(c *config) {
		if len(lex) > 0 {
			c.lexicon = lex
		}
	}
}

// WithNegations replaces the built-in negation word set. A negation flips the
// valence of the word that follows it.
func WithNegations(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.negations = m
		}
	}
}

// ----------------------------------------------------------------------------
// LexiconScorer

// LexiconScorer scores text by averaging the valence of known words and
// mapping the result from [-1,1] onto the [0,4] scale. Text with no known
// sentiment words scores exactly neutral (2.0). The scorer is read-only
// after construction and safe for concurrent use.
type LexiconScorer struct {
	lexicon   map[string]float64
	negations map[string]struct{}
	fold      cases.Caser
}

// NewLexiconScorer builds a scorer from the built-in lexicon, customized by
// the given options.
func NewLexiconScorer(opts ...Option) *LexiconScorer {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &LexiconScorer{
		lexicon:   cfg.lexicon,
		negations: cfg.negations,
		fold:      cases.Fold(),
	}
}

// wordRE extracts Unicode word tokens.
var wordRE = regexp.MustCompile(`[\p{L}\p{N}']+`)

// Score implements Scorer. It never fails on well-formed input; the error
// path exists only for ctx cancellation so the pipeline's timeout contract
// holds even for this in-process implementation.
func (s *LexiconScorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	toks := wordRE.FindAllString(text, -1)
	var sum float64
	var hits int
	negate := false
	for _, tok := range toks {
		w := s.fold.String(tok)
		if _, ok := s.negations[w]; ok {
			negate = true
			continue
		}
		v, ok := s.lexicon[w]
		if !ok {
			negate = false
			continue
		}
		if negate {
			v = -v
			negate = false
		}
		sum += v
		hits++
	}
	if hits == 0 {
		return 2.0, nil
	}

	// Map mean valence [-1,1] -> [0,4]; clamp against lexicon values that
	// stray outside [-1,1].
	score := 2.0 + 2.0*(sum/float64(hits))
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	return score, nil
}

// LoadLexiconFile parses a lexicon override file: one whitespace-separated
// "word valence" pair per line, '#' comments and blank lines ignored.
// Valences must be in [-1,1].
func LoadLexiconFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lex := make(map[string]float64)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		txt := strings.TrimSpace(sc.Text())
		if txt == "" || strings.HasPrefix(txt, "#") {
			continue
		}
		fields := strings.Fields(txt)
		if len(fields) != 2 {
			return nil, fmt.Errorf("lexicon %s:%d: want \"word valence\", got %q", path, line, txt)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || v < -1 || v > 1 {
			return nil, fmt.Errorf("lexicon %s:%d: valence must be a number in [-1,1], got %q", path, line, fields[1])
		}
		lex[strings.ToLower(fields[0])] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lex) == 0 {
		return nil, fmt.Errorf("lexicon %s: no entries", path)
	}
	return lex, nil
}

// defaultNegations flip the valence of the following sentiment word.
var defaultNegations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "n't": {}, "dont": {}, "don't": {},
	"cant": {}, "can't": {}, "wont": {}, "won't": {}, "isnt": {}, "isn't": {},
}

// defaultLexicon is a compact general-purpose valence table. It is not meant
// to rival a real model; it exists so the system is fully functional out of
// the box and so tests have deterministic scores to assert against.
var defaultLexicon = map[string]float64{
	// strongly positive
	"amazing": 1, "awesome": 1, "excellent": 1, "fantastic": 1, "incredible": 1,
	"love": 1, "loved": 1, "perfect": 1, "wonderful": 1, "brilliant": 1,
	// positive
	"good": 0.6, "great": 0.8, "happy": 0.7, "helpful": 0.6, "like": 0.5,
	"liked": 0.5, "nice": 0.6, "thanks": 0.6, "thank": 0.6, "useful": 0.6,
	"cool": 0.5, "fun": 0.6, "glad": 0.6, "better": 0.4, "best": 0.8,
	"works": 0.4, "fixed": 0.5, "solved": 0.6, "fast": 0.4, "easy": 0.5,
	// negative
	"bad": -0.6, "sad": -0.6, "slow": -0.4, "annoying": -0.6, "boring": -0.5,
	"confusing": -0.5, "dislike": -0.6, "problem": -0.4, "problems": -0.4,
	"bug": -0.4, "bugs": -0.4, "broken": -0.6, "worse": -0.6, "worst": -0.9,
	"fail": -0.6, "failed": -0.6, "wrong": -0.5, "hard": -0.3, "ugly": -0.5,
	// strongly negative
	"awful": -1, "terrible": -1, "horrible": -1, "hate": -1, "hated": -1,
	"disgusting": -1, "useless": -0.9, "garbage": -0.9, "trash": -0.9,
}
