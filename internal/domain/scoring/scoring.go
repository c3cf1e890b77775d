// Package scoring computes phoneme-level pronunciation scores.
//
// The scorer aligns a recognized phoneme sequence against its reference
// using classic edit-distance dynamic programming and derives the
// Phoneme Error Rate (PER) from the alignment. It is pure: no I/O, no
// retries, deterministic for a given input and cost configuration.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// Default unit edit costs. Substitution shares the insertion/deletion
// cost so that on ties the alignment prefers one substitution over an
// insertion+deletion pair (fewer edits, more useful feedback).
const (
	defaultSubstitutionCost = 1.0
	defaultInsertionCost    = 1.0
	defaultDeletionCost     = 1.0
	maxScore                = 100.0
)

// Op is the alignment operation for one position.
type Op int

const (
	OpMatch Op = iota
	OpSubstitute
	OpInsert
	OpDelete
)

// String returns the lowercase name of the operation.
func (o Op) String() string {
	switch o {
	case OpMatch:
		return "match"
	case OpSubstitute:
		return "substitute"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// PhonemeError is one non-match position in the alignment. Expected is
// empty for insertions, Observed is empty for deletions.
type PhonemeError struct {
	Op       Op
	Position int // index into the reference sequence
	Expected string
	Observed string
	Hint     string
}

// Result is the outcome of scoring one utterance.
type Result struct {
	PER           float64 // phoneme error rate in [0,1]
	Score         float64 // 100 * (1 - PER), clamped to [0,100]
	Substitutions int
	Insertions    int
	Deletions     int
	Errors        []PhonemeError
	Feedback      string
}

// Scorer computes a score from reference and recognized phonemes.
type Scorer interface {
	Score(ctx context.Context, reference, recognized []string) (Result, error)
}

// AlignmentScorer implements Scorer with edit-distance alignment.
type AlignmentScorer struct {
	subCost float64
	insCost float64
	delCost float64
}

// NewAlignmentScorer creates a scorer with configuration options.
func NewAlignmentScorer(opts ...Option) *AlignmentScorer {
	s := &AlignmentScorer{
		subCost: defaultSubstitutionCost,
		insCost: defaultInsertionCost,
		delCost: defaultDeletionCost,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score aligns recognized against reference and derives the PER.
// Malformed input (an empty phoneme symbol) is an InvalidInput failure.
func (s *AlignmentScorer) Score(_ context.Context, reference, recognized []string) (Result, error) {
	if err := validate(reference); err != nil {
		metrics.RecordScoringFailure()
		return Result{}, model.Invalid(fmt.Errorf("reference: %w", err))
	}
	if err := validate(recognized); err != nil {
		metrics.RecordScoringFailure()
		return Result{}, model.Invalid(fmt.Errorf("recognized: %w", err))
	}

	res := s.align(reference, recognized)

	// PER = (S + I + D) / len(reference); with an empty reference it is
	// 0 when recognized is also empty, else 1 (pure insertions).
	edits := float64(res.Substitutions + res.Insertions + res.Deletions)
	if len(reference) == 0 {
		if len(recognized) == 0 {
			res.PER = 0
		} else {
			res.PER = 1
		}
	} else {
		res.PER = edits / float64(len(reference))
		if res.PER > 1 {
			res.PER = 1
		}
	}

	res.Score = clamp(maxScore*(1-res.PER), 0, maxScore)
	res.Feedback = feedback(res.Score)

	metrics.RecordPhonemeErrorRate(res.PER)
	return res, nil
}

// align runs the O(n*m) dynamic program and backtraces the edit path.
// The backtrace prefers the diagonal (match/substitution) on cost ties.
func (s *AlignmentScorer) align(reference, recognized []string) Result {
	n, m := len(reference), len(recognized)

	dist := make([][]float64, n+1)
	for i := range dist {
		dist[i] = make([]float64, m+1)
	}
	for i := 1; i <= n; i++ {
		dist[i][0] = dist[i-1][0] + s.delCost
	}
	for j := 1; j <= m; j++ {
		dist[0][j] = dist[0][j-1] + s.insCost
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			diag := dist[i-1][j-1]
			if reference[i-1] != recognized[j-1] {
				diag += s.subCost
			}
			del := dist[i-1][j] + s.delCost
			ins := dist[i][j-1] + s.insCost
			dist[i][j] = min3(diag, del, ins)
		}
	}

	var res Result
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && withinDiag(dist, i, j, s.costFor(reference[i-1], recognized[j-1])):
			if reference[i-1] != recognized[j-1] {
				res.Substitutions++
				res.Errors = append(res.Errors, PhonemeError{
					Op:       OpSubstitute,
					Position: i - 1,
					Expected: reference[i-1],
					Observed: recognized[j-1],
					Hint:     hintFor(reference[i-1]),
				})
			}
			i--
			j--
		case i > 0 && approxEq(dist[i][j], dist[i-1][j]+s.delCost):
			res.Deletions++
			res.Errors = append(res.Errors, PhonemeError{
				Op:       OpDelete,
				Position: i - 1,
				Expected: reference[i-1],
				Hint:     "missing sound: " + describe(reference[i-1]),
			})
			i--
		default:
			res.Insertions++
			res.Errors = append(res.Errors, PhonemeError{
				Op:       OpInsert,
				Position: i,
				Observed: recognized[j-1],
			})
			j--
		}
	}

	// Backtrace walks right-to-left; restore reference order.
	reverse(res.Errors)
	return res
}

func (s *AlignmentScorer) costFor(ref, rec string) float64 {
	if ref == rec {
		return 0
	}
	return s.subCost
}

// costEpsilon absorbs the rounding that non-unit edit costs accumulate
// across cells, so the backtrace classifies ops by value, not by bit
// pattern.
const costEpsilon = 1e-9

func approxEq(a, b float64) bool {
	return math.Abs(a-b) <= costEpsilon
}

func withinDiag(dist [][]float64, i, j int, stepCost float64) bool {
	return approxEq(dist[i][j], dist[i-1][j-1]+stepCost)
}

func validate(phonemes []string) error {
	for i, p := range phonemes {
		if p == "" {
			return fmt.Errorf("empty phoneme at index %d", i)
		}
	}
	return nil
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func reverse(errs []PhonemeError) {
	for l, r := 0, len(errs)-1; l < r; l, r = l+1, r-1 {
		errs[l], errs[r] = errs[r], errs[l]
	}
}
