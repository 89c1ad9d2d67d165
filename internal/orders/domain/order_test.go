package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus_Valid(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, OrderStatus(s), got)
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	for _, s := range []string{"", "PENDING", "refunded", "done"} {
		_, err := ParseStatus(s)
		assert.Error(t, err, "status %q should be rejected", s)
	}
}
