package vision

import (
	"fmt"
	"strings"
)

// Validator applies the response-quality heuristics: a usable analysis is
// non-empty, long enough to be useful, and not a refusal. These are
// heuristics, not guarantees.
type Validator struct {
	MinLength      int
	RefusalPhrases []string
}

// DefaultRefusalPhrases are substrings that indicate the model declined to
// analyze the images.
func DefaultRefusalPhrases() []string {
	return []string{
		"i can't assist",
		"i cannot assist",
		"i'm sorry",
		"i am sorry",
		"unable to help with",
	}
}

// NewValidator returns a validator with the default thresholds.
func NewValidator() *Validator {
	return &Validator{
		MinLength:      200,
		RefusalPhrases: DefaultRefusalPhrases(),
	}
}

// InvalidResponseError describes why a model reply was rejected.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("vision: insufficient response: %s", e.Reason)
}

// Check returns an InvalidResponseError when the text fails any heuristic.
func (v *Validator) Check(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &InvalidResponseError{Reason: "empty response"}
	}
	if len(trimmed) < v.MinLength {
		return &InvalidResponseError{Reason: fmt.Sprintf("response shorter than %d characters", v.MinLength)}
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range v.RefusalPhrases {
		if strings.Contains(lower, phrase) {
			return &InvalidResponseError{Reason: "model refused to analyze the images"}
		}
	}
	return nil
}
