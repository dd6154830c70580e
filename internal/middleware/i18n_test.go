package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "fi"},
		{"sv-FI,sv;q=0.9,en;q=0.8", "sv"},
		{"en-GB", "en"},
		{"de-DE,de;q=0.9,en-US;q=0.8", "en"},
		{"fr", "fi"},
		{"FI_fi", "fi"},
		{" en ; q=0.5 ", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLanguage(tt.header), tt.header)
	}
}
