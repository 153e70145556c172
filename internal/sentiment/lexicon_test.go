package sentiment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

func TestLexiconScorer_Deterministic(t *testing.T) {
	s := NewLexiconScorer()
	ctx := context.Background()

	a, err := s.Score(ctx, "this is amazing, I love it")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	b, err := s.Score(ctx, "this is amazing, I love it")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a != b {
		t.Fatalf("same text scored differently: %v vs %v", a, b)
	}
	if a <= domain.ScoreNeutral {
		t.Fatalf("clearly positive text scored %v", a)
	}
}

func TestLexiconScorer_Polarity(t *testing.T) {
	s := NewLexiconScorer()
	ctx := context.Background()

	pos, _ := s.Score(ctx, "awesome fantastic perfect")
	neg, _ := s.Score(ctx, "terrible awful horrible")
	neu, _ := s.Score(ctx, "the quarterly report")

	if !(pos > neu && neu > neg) {
		t.Fatalf("polarity ordering broken: pos=%v neu=%v neg=%v", pos, neu, neg)
	}
	if neu != 2.0 {
		t.Fatalf("text with no sentiment words must score exactly neutral, got %v", neu)
	}
	for _, v := range []float64{pos, neg, neu} {
		if !domain.ValidScore(v) {
			t.Fatalf("score out of range: %v", v)
		}
	}
}

func TestLexiconScorer_Negation(t *testing.T) {
	s := NewLexiconScorer()
	ctx := context.Background()

	plain, _ := s.Score(ctx, "good")
	negated, _ := s.Score(ctx, "not good")
	if negated >= plain {
		t.Fatalf("negation must flip valence: plain=%v negated=%v", plain, negated)
	}
	if negated >= 2.0 {
		t.Fatalf("\"not good\" should land below neutral, got %v", negated)
	}
}

func TestLexiconScorer_CaseFolding(t *testing.T) {
	s := NewLexiconScorer()
	ctx := context.Background()

	lower, _ := s.Score(ctx, "great stuff")
	upper, _ := s.Score(ctx, "GREAT STUFF")
	if lower != upper {
		t.Fatalf("case must not change the score: %v vs %v", lower, upper)
	}
}

func TestLexiconScorer_ContextCancelled(t *testing.T) {
	s := NewLexiconScorer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Score(ctx, "good"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestLoadLexiconFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lex.tsv")
	content := "# comment line\n\ngreat\t0.8\nawful\t-1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	lex, err := LoadLexiconFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lex["great"] != 0.8 || lex["awful"] != -1 {
		t.Fatalf("unexpected lexicon: %v", lex)
	}

	s := NewLexiconScorer(WithLexicon(lex))
	got, _ := s.Score(context.Background(), "great")
	if got != 2.0+2.0*0.8 {
		t.Fatalf("override lexicon not used, got %v", got)
	}
}

func TestLoadLexiconFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	badValence := filepath.Join(dir, "bad.tsv")
	if err := os.WriteFile(badValence, []byte("great\t7\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLexiconFile(badValence); err == nil {
		t.Fatalf("valence outside [-1,1] must fail")
	}

	empty := filepath.Join(dir, "empty.tsv")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLexiconFile(empty); err == nil {
		t.Fatalf("empty lexicon must fail")
	}

	if _, err := LoadLexiconFile(filepath.Join(dir, "missing.tsv")); err == nil {
		t.Fatalf("missing file must fail")
	}
}
