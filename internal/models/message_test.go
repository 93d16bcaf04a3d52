package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMessageAssignsUniqueIDs(t *testing.T) {
	now := time.Now()
	a := NewMessage(RoleUser, "hello", now, nil)
	b := NewMessage(RoleUser, "hello", now, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsUser())
	assert.Equal(t, now, a.CreatedAt)
}

func TestGenerateResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp GenerateResponse
		want string
	}{
		{"content only", GenerateResponse{Content: "a"}, "a"},
		{"response only", GenerateResponse{Response: "b"}, "b"},
		{"content wins", GenerateResponse{Content: "a", Response: "b"}, "a"},
		{"empty", GenerateResponse{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}
