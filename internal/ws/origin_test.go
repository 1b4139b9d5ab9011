package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"https://chat.example.com"}, "", true},
		{"wildcard", []string{"*"}, "https://anything.example", true},
		{"listed", []string{"https://chat.example.com"}, "https://chat.example.com", true},
		{"case insensitive", []string{"https://Chat.Example.com"}, "HTTPS://chat.example.COM", true},
		{"other host", []string{"https://chat.example.com"}, "https://evil.example", false},
		{"other port", []string{"http://localhost:8004"}, "http://localhost:3000", false},
		{"nothing configured", nil, "https://chat.example.com", false},
		{"garbage config ignored", []string{"not a url", " "}, "https://chat.example.com", false},
		{"garbage header", []string{"https://chat.example.com"}, "::::", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, newOriginPolicy(tt.origins).check(r))
		})
	}
}
