package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAddrDefaults(t *testing.T) {
	classifier, err := NewEgressClassifier()
	require.NoError(t, err)

	tests := []struct {
		addr   string
		egress bool
	}{
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"172.31.255.255", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"172.32.0.1", true},
		{"8.8.8.8", true},
		{"52.94.132.10", true},
		{"2600:1f18::1", true},
	}
	for _, tc := range tests {
		egress, err := classifier.ClassifyAddr(tc.addr)
		require.NoError(t, err, tc.addr)
		assert.Equal(t, tc.egress, egress, tc.addr)
	}
}

func TestClassifyAddrInvalid(t *testing.T) {
	classifier, err := NewEgressClassifier()
	require.NoError(t, err)

	_, err = classifier.ClassifyAddr("not-an-address")
	assert.Error(t, err)
}

func TestCustomInternalRanges(t *testing.T) {
	classifier, err := NewEgressClassifier("100.64.0.0/10")
	require.NoError(t, err)

	egress, err := classifier.ClassifyAddr("100.64.0.1")
	require.NoError(t, err)
	assert.False(t, egress)

	// Defaults do not apply once custom ranges are given.
	egress, err = classifier.ClassifyAddr("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, egress)
}

func TestInvalidCIDRRejected(t *testing.T) {
	_, err := NewEgressClassifier("10.0.0.0/33")
	assert.Error(t, err)
}
