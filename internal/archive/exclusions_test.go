package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"event log", "my_events.json", true},
		{"location history", "Location_History.json", true},
		{"badges", "your_badges.json", true},
		{"posts", "posts_1.json", false},
		{"friends", "friends.json", false},
		{"inbox message", "message_1.json", false},
		{"empty name", "", true},
		{"whitespace name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcluded(tt.filename))
		})
	}
}

func TestExclusionReason(t *testing.T) {
	reason, excluded := ExclusionReason("SEARCH_HISTORY.json")
	assert.True(t, excluded)
	assert.Equal(t, "search_history", reason)

	reason, excluded = ExclusionReason("your_posts_1.json")
	assert.False(t, excluded)
	assert.Empty(t, reason)
}

func TestFilterExcluded(t *testing.T) {
	files := []string{
		"posts_1.json",
		"pokes.json",
		"friends.json",
		"account_activity.json",
		"message_1.json",
		"",
	}

	kept := FilterExcluded(files)

	assert.Equal(t, []string{"posts_1.json", "friends.json", "message_1.json"}, kept)
}

func TestExclusions_ReturnsCopy(t *testing.T) {
	list := Exclusions()
	list[0] = "mutated"

	assert.NotEqual(t, "mutated", Exclusions()[0])
	assert.GreaterOrEqual(t, len(list), 40)
}
