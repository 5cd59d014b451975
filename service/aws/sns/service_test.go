package awssns

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSubjectShortUnchanged(t *testing.T) {
	subject := "Egress Remediation Status: SUCCESS"
	assert.Equal(t, subject, truncateSubject(subject))
}

func TestTruncateSubjectLongASCII(t *testing.T) {
	subject := strings.Repeat("a", 150)

	got := truncateSubject(subject)

	assert.Len(t, got, maxSubjectLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncateSubjectKeepsRuneBoundaries(t *testing.T) {
	// Multibyte bucket name pushed past the limit must not split a rune.
	subject := "Egress Anomaly Detected: EgressCostSpike on " + strings.Repeat("拠点", 50)

	got := truncateSubject(subject)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxSubjectLen, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}
