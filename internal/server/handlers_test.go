package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		key      string
		def      int
		max      int
		expected int
	}{
		{name: "missing uses default", url: "/x", key: "limit", def: 50, max: 200, expected: 50},
		{name: "valid value", url: "/x?limit=10", key: "limit", def: 50, max: 200, expected: 10},
		{name: "capped at max", url: "/x?limit=999", key: "limit", def: 50, max: 200, expected: 200},
		{name: "negative uses default", url: "/x?limit=-1", key: "limit", def: 50, max: 200, expected: 50},
		{name: "garbage uses default", url: "/x?limit=abc", key: "limit", def: 50, max: 200, expected: 50},
		{name: "no max", url: "/x?days=500", key: "days", def: 30, max: 0, expected: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			assert.Equal(t, tt.expected, parseQueryInt(r, tt.key, tt.def, tt.max))
		})
	}
}
