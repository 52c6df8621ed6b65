package faq

import (
	"math"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Outcome classifies a match result for the dialogue engine.
type Outcome int

const (
	// NoMatch means nothing cleared the threshold.
	NoMatch Outcome = iota
	// Confident means the top candidate is decisively better than the rest
	// and can be answered without disambiguation.
	Confident
	// Ambiguous means the top candidates are too close to call; the user
	// picks one from a numbered list.
	Ambiguous
)

// Candidate is an entry with its combined score.
type Candidate struct {
	Entry Entry `json:"entry"`
	Score int   `json:"score"`
}

// Result is what Match returns: the outcome plus up to maxCandidates
// candidates sorted by score descending.
type Result struct {
	Outcome    Outcome
	Candidates []Candidate
}

// Top returns the best candidate. Only meaningful when Outcome != NoMatch.
func (r Result) Top() Candidate {
	if len(r.Candidates) == 0 {
		return Candidate{}
	}
	return r.Candidates[0]
}

// MatcherConfig carries the tunables. Zero values fall back to defaults.
type MatcherConfig struct {
	// Threshold is the minimum combined score (0-100) for a candidate to
	// survive.
	Threshold int
	// QuestionWeight discounts whole-question similarity relative to keyword
	// similarity. Keywords are curated, so they stay authoritative.
	QuestionWeight float64
	// ConfidenceMargin is the score gap above which the top candidate wins
	// without disambiguation.
	ConfidenceMargin int
}

const (
	defaultThreshold        = 60
	defaultQuestionWeight   = 0.75
	defaultConfidenceMargin = 15
	maxCandidates           = 3
)

// Matcher scores free text against an Index.
type Matcher struct {
	index            *Index
	threshold        int
	questionWeight   float64
	confidenceMargin int
}

// NewMatcher builds a matcher over index with the given tunables.
func NewMatcher(index *Index, cfg MatcherConfig) *Matcher {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.QuestionWeight <= 0 {
		cfg.QuestionWeight = defaultQuestionWeight
	}
	if cfg.ConfidenceMargin <= 0 {
		cfg.ConfidenceMargin = defaultConfidenceMargin
	}
	return &Matcher{
		index:            index,
		threshold:        cfg.Threshold,
		questionWeight:   cfg.QuestionWeight,
		confidenceMargin: cfg.ConfidenceMargin,
	}
}

// Match ranks the index entries against input.
//
// Per entry the combined score is max(keywordScore, questionScore*weight):
// a strong keyword hit is trusted over whole-question similarity. Entries
// below the threshold are dropped, survivors are sorted by score descending
// with load order breaking ties, and at most three are returned.
func (m *Matcher) Match(input string) Result {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || m.index.Len() == 0 {
		return Result{Outcome: NoMatch}
	}

	var candidates []Candidate
	for _, entry := range m.index.All() {
		questionScore := fuzzy.Ratio(input, strings.ToLower(entry.Question))

		keywordScore := 0
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if s := fuzzy.Ratio(input, kw); s > keywordScore {
				keywordScore = s
			}
		}

		combined := keywordScore
		if weighted := int(math.Round(float64(questionScore) * m.questionWeight)); weighted > combined {
			combined = weighted
		}
		if combined < m.threshold {
			continue
		}
		candidates = append(candidates, Candidate{Entry: entry, Score: combined})
	}

	if len(candidates) == 0 {
		return Result{Outcome: NoMatch}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	if len(candidates) == 1 || candidates[0].Score-candidates[1].Score > m.confidenceMargin {
		return Result{Outcome: Confident, Candidates: candidates[:1]}
	}
	return Result{Outcome: Ambiguous, Candidates: candidates}
}
