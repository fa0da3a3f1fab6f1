// Package similarity implements the Similarity Index (C2): a structural
// fingerprint over a strategy's universe, entry, exit and sizing rules,
// plus a weighted distance metric used to classify a newly ingested
// strategy as a duplicate, a variant, or genuinely new.
package similarity

import (
	"sort"
	"strings"

	"github.com/extremevalue/research-kit/internal/domain"
)

// Classification is the outcome of comparing a candidate strategy against
// the existing catalog.
type Classification string

const (
	ClassDuplicate Classification = "duplicate" // distance >= 0.95
	ClassVariant   Classification = "variant"   // distance >= 0.70
	ClassNew       Classification = "new"
)

const (
	DuplicateThreshold = 0.95
	VariantThreshold   = 0.70
)

// Weights controls how much each dimension contributes to the overall
// similarity score. Equal weighting across all four dimensions is the
// Open Question default: no single rule family (e.g. universe) is
// considered intrinsically more identity-defining than another absent
// evidence otherwise.
type Weights struct {
	Universe float64
	Entry    float64
	Exit     float64
	Sizing   float64
}

// DefaultWeights weights every dimension equally.
var DefaultWeights = Weights{Universe: 0.25, Entry: 0.25, Exit: 0.25, Sizing: 0.25}

// Fingerprint is the structural signature extracted from a strategy
// definition for comparison purposes.
type Fingerprint struct {
	StrategyID  string
	Universe    map[string]bool
	Entry       map[string]bool
	Exit        map[string]bool
	SizingKey   string
}

// BuildFingerprint builds the structural signature of a definition by
// normalizing each rule set into a token set: lowercased, whitespace
// collapsed, order-independent.
func BuildFingerprint(id string, d domain.Definition) Fingerprint {
	return Fingerprint{
		StrategyID: id,
		Universe:   tokenSet(append([]string{d.Universe.Description}, append(d.Universe.Instruments, d.Universe.Filters...)...)),
		Entry:      tokenSet(d.Entry),
		Exit:       tokenSet(d.Exit),
		SizingKey:  strings.ToLower(strings.TrimSpace(d.Position.Method)),
	}
}

func tokenSet(lines []string) map[string]bool {
	set := map[string]bool{}
	for _, line := range lines {
		norm := strings.ToLower(strings.Join(strings.Fields(line), " "))
		if norm != "" {
			set[norm] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter, union := 0, 0
	seen := map[string]bool{}
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	for k := range seen {
		union++
		if a[k] && b[k] {
			inter++
		}
	}
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}

// Distance computes the weighted structural similarity between two
// fingerprints, in [0, 1] where 1.0 is identical.
func Distance(a, b Fingerprint, w Weights) float64 {
	sizing := 0.0
	if a.SizingKey == b.SizingKey {
		sizing = 1.0
	}
	return w.Universe*jaccard(a.Universe, b.Universe) +
		w.Entry*jaccard(a.Entry, b.Entry) +
		w.Exit*jaccard(a.Exit, b.Exit) +
		w.Sizing*sizing
}

// Match is a single comparison result against the existing catalog.
type Match struct {
	StrategyID string
	Score      float64
}

// Classify compares candidate against the catalog's fingerprints and
// returns the classification plus the best (highest-scoring) match, if
// any. An exact definition_hash match always classifies as duplicate
// regardless of computed distance.
func Classify(candidate Fingerprint, candidateHash string, catalog []Fingerprint, hashes map[string]string, w Weights) (Classification, *Match) {
	var best *Match
	for _, fp := range catalog {
		if fp.StrategyID == candidate.StrategyID {
			continue
		}
		if hashes[fp.StrategyID] == candidateHash {
			return ClassDuplicate, &Match{StrategyID: fp.StrategyID, Score: 1.0}
		}
		score := Distance(candidate, fp, w)
		if best == nil || score > best.Score {
			best = &Match{StrategyID: fp.StrategyID, Score: score}
		}
	}
	if best == nil {
		return ClassNew, nil
	}
	switch {
	case best.Score >= DuplicateThreshold:
		return ClassDuplicate, best
	case best.Score >= VariantThreshold:
		return ClassVariant, best
	default:
		return ClassNew, best
	}
}

// TopMatches sorts matches descending by score, useful for surfacing the
// closest few candidates in a proposal summary.
func TopMatches(candidate Fingerprint, catalog []Fingerprint, w Weights, n int) []Match {
	matches := make([]Match, 0, len(catalog))
	for _, fp := range catalog {
		if fp.StrategyID == candidate.StrategyID {
			continue
		}
		matches = append(matches, Match{StrategyID: fp.StrategyID, Score: Distance(candidate, fp, w)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches
}
