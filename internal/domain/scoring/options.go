package scoring

// Option applies a configuration option to the AlignmentScorer.
type Option func(*AlignmentScorer)

// WithEditCosts sets the substitution, insertion, and deletion costs
// used by the alignment. Non-positive values are ignored.
func WithEditCosts(sub, ins, del float64) Option {
	return func(s *AlignmentScorer) {
		if sub > 0 {
			s.subCost = sub
		}
		if ins > 0 {
			s.insCost = ins
		}
		if del > 0 {
			s.delCost = del
		}
	}
}
