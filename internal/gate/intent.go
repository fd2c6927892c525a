package gate

import "strings"

// Intent is the classification of one user utterance while a bulk session is
// active.
type Intent string

const (
	IntentContinue  Intent = "continue"
	IntentCancel    Intent = "cancel"
	IntentUnrelated Intent = "unrelated"
)

// Closed phrase sets. Classification is deliberately conservative: only these
// exact words and phrases map to continue/cancel, everything else is
// unrelated. No fuzzy inference, no guessing.
var (
	continuePhrases = map[string]struct{}{
		"continue":   {},
		"yes":        {},
		"proceed":    {},
		"go":         {},
		"next":       {},
		"go ahead":   {},
		"keep going": {},
		"resume":     {},
		"ok":         {},
		"okay":       {},
		"sure":       {},
		"yep":        {},
		"yeah":       {},
	}

	cancelPhrases = map[string]struct{}{
		"cancel":     {},
		"stop":       {},
		"abort":      {},
		"no":         {},
		"halt":       {},
		"quit":       {},
		"end":        {},
		"don't":      {},
		"do not":     {},
		"never mind": {},
		"nevermind":  {},
	}
)

// Classify maps an utterance to exactly one intent. Matching is on whole
// words and two-word phrases after normalization; an utterance containing
// markers from both classes is ambiguous and reported as unrelated rather
// than guessed at.
func Classify(utterance string) Intent {
	norm := normalize(utterance)
	if norm == "" {
		return IntentUnrelated
	}

	wantsContinue := containsPhrase(norm, continuePhrases)
	wantsCancel := containsPhrase(norm, cancelPhrases)

	switch {
	case wantsContinue && wantsCancel:
		return IntentUnrelated
	case wantsCancel:
		return IntentCancel
	case wantsContinue:
		return IntentContinue
	default:
		return IntentUnrelated
	}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsPhrase(norm string, phrases map[string]struct{}) bool {
	if _, ok := phrases[norm]; ok {
		return true
	}
	words := strings.Fields(norm)
	for i, w := range words {
		if _, ok := phrases[w]; ok {
			return true
		}
		if i+1 < len(words) {
			if _, ok := phrases[w+" "+words[i+1]]; ok {
				return true
			}
		}
	}
	return false
}
