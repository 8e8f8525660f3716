package confirm

import (
	"regexp"
)

// Intent is what a user message means for a pending proposal.
type Intent string

const (
	IntentOther  Intent = "other"
	IntentAffirm Intent = "affirm"
	IntentReject Intent = "reject"
)

var (
	affirmativeRegexp     = regexp.MustCompile(`(?i)\b(yes|yeah|yep|yup|sure|ok|okay|do it|add them|add it|add those|go ahead|go for it|confirm|confirmed|please do|sounds good|let'?s do it|absolutely|of course|perfect)\b`)
	// Leading negations win over any affirmative word ("not sure", "no, don't do it").
	leadingNegationRegexp = regexp.MustCompile(`(?i)^\W*(no|nope|nah|not|don'?t|do not|cancel|stop|never)\b`)
	rejectionRegexp       = regexp.MustCompile(`(?i)\b(no thanks|no thank you|not now|skip (it|this|that|them)|don'?t add|cancel)\b`)
	hesitationRegexp      = regexp.MustCompile(`(?i)\bnot\s+(really\s+)?sure\b|\bunsure\b|\bmaybe\b`)
	// Courtesy idioms that start with a negation but don't decline anything.
	courtesyRegexp        = regexp.MustCompile(`(?i)\b(no problem|no prob|no worries|no worry|not bad|no doubt|not a problem)\b`)
)

// IsAffirmative returns true when the message agrees to the previous proposal.
func IsAffirmative(msg string) bool {
	return Classify(msg) == IntentAffirm
}

// IsRejection returns true when the message declines the previous proposal.
func IsRejection(msg string) bool {
	return Classify(msg) == IntentReject
}

// Classify returns the intent of a user message.
func Classify(msg string) Intent {
	msg = courtesyRegexp.ReplaceAllString(msg, "")

	switch {
	case leadingNegationRegexp.MatchString(msg), rejectionRegexp.MatchString(msg):
		return IntentReject
	case hesitationRegexp.MatchString(msg):
		return IntentOther
	case affirmativeRegexp.MatchString(msg):
		return IntentAffirm
	}
	return IntentOther
}
