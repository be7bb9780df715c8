package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+1 202-555-0123", "+12025550123"},
		{"00 1 202 555 0123", "+12025550123"},
		{"1-202-555-0123", "+12025550123"},
		{"", ""},
		{"abc", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in))
	}
}
