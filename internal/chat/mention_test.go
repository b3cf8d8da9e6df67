package chat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forumhub/internal/chat"
)

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "no mentions",
			content: "hello world",
			want:    nil,
		},
		{
			name:    "single mention",
			content: "hello @alice",
			want:    []string{"alice"},
		},
		{
			name:    "multiple mentions",
			content: "@alice meet @bob_2",
			want:    []string{"alice", "bob_2"},
		},
		{
			name:    "duplicates collapse",
			content: "@alice @alice hey @alice",
			want:    []string{"alice"},
		},
		{
			name:    "case sensitive",
			content: "@Alice and @alice are different",
			want:    []string{"Alice", "alice"},
		},
		{
			name:    "token stops at punctuation",
			content: "thanks @alice!",
			want:    []string{"alice"},
		},
		{
			name:    "mid word at sign",
			content: "mail me at alice@example.com",
			want:    []string{"example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chat.ExtractMentions(tt.content))
		})
	}
}
