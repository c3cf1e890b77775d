package scoring

import "fmt"

// Articulation hints for phonemes that learners most often miss.
var phonemeHints = map[string]string{
	"θ":  "try saying 'th' as in 'think', tongue between teeth",
	"ð":  "try saying 'th' as in 'this', tongue between teeth and voiced",
	"r":  "curl the tongue back for the 'r' sound",
	"v":  "touch the lower lip to the upper teeth for 'v'",
	"w":  "round the lips as if saying 'oo' for 'w'",
	"ʃ":  "spread the lips and raise the tongue for 'sh'",
	"ʒ":  "make the 'zh' sound as in 'measure'",
	"tʃ": "touch the tongue to the roof of the mouth for 'ch'",
	"dʒ": "make the 'j' sound as in 'judge'",
}

var phonemeNames = map[string]string{
	"θ":  "th (think)",
	"ð":  "th (this)",
	"ʃ":  "sh",
	"ʒ":  "zh",
	"tʃ": "ch",
	"dʒ": "j",
}

// Score thresholds for the spoken feedback tiers.
const (
	excellentThreshold = 90
	goodThreshold      = 75
	fairThreshold      = 60
)

func hintFor(phoneme string) string {
	if h, ok := phonemeHints[phoneme]; ok {
		return h
	}
	return fmt.Sprintf("try to pronounce '%s' more clearly, listen and repeat", phoneme)
}

func describe(phoneme string) string {
	if d, ok := phonemeNames[phoneme]; ok {
		return d
	}
	return phoneme
}

func feedback(score float64) string {
	switch {
	case score >= excellentThreshold:
		return "Excellent pronunciation! Keep practicing!"
	case score >= goodThreshold:
		return fmt.Sprintf("Good pronunciation! You scored %.1f. Focus on the highlighted sounds.", score)
	case score >= fairThreshold:
		return fmt.Sprintf("Fair pronunciation. Score: %.1f. Practice the corrections.", score)
	default:
		return fmt.Sprintf("Needs improvement. Score: %.1f. Review the hints and try again.", score)
	}
}
