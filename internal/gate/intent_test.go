package gate

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		utterance string
		want      Intent
	}{
		{"continue", IntentContinue},
		{"yes", IntentContinue},
		{"Yes", IntentContinue},
		{"  PROCEED  ", IntentContinue},
		{"go ahead", IntentContinue},
		{"keep going", IntentContinue},
		{"ok, next", IntentContinue},
		{"yeah!", IntentContinue},
		{"sure.", IntentContinue},

		{"cancel", IntentCancel},
		{"STOP", IntentCancel},
		{"abort", IntentCancel},
		{"no", IntentCancel},
		{"never mind", IntentCancel},
		{"nevermind", IntentCancel},
		{"don't", IntentCancel},
		{"do not", IntentCancel},
		{"please stop", IntentCancel},

		{"", IntentUnrelated},
		{"   ", IntentUnrelated},
		{"what's the weather tomorrow", IntentUnrelated},
		{"how many emails do I have", IntentUnrelated},
		{"continuous", IntentUnrelated},
		{"canceled my gym membership", IntentUnrelated},
		{"gopher", IntentUnrelated},
		{"yes, cancel it", IntentUnrelated},
		{"no wait, keep going", IntentUnrelated},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			if got := Classify(tt.utterance); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.utterance, got, tt.want)
			}
		})
	}
}
