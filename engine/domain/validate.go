package domain

import "strings"

// MaxQuestionLen bounds accepted question length in bytes.
const MaxQuestionLen = 2000

// ValidateQuestion checks a free-text question at the transport boundary.
// It returns the trimmed question on success.
func ValidateQuestion(q string) (string, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return "", NewValidationError("question", q, ErrEmptyQuestion)
	}
	if len(trimmed) > MaxQuestionLen {
		return "", NewValidationError("question", trimmed[:40]+"…", ErrQuestionTooLong)
	}
	return trimmed, nil
}
