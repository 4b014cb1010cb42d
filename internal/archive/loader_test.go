package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89"

func TestLoader_Load_MergesDocuments(t *testing.T) {
	archivePath := writeZip(t, map[string]string{
		"posts/your_posts_1.json":        `[{"timestamp": 1700000000, "data": [{"post": "first"}]}]`,
		"posts/your_posts_2.json":        `[{"timestamp": 1700000100, "data": [{"post": "second"}]}]`,
		"friends/friends.json":           `{"friends_v2": [{"name": "Alex Rivera", "timestamp": 1600000000}]}`,
		"messages/inbox/a/message_1.json": `{"participants": [{"name": "Alex"}], "messages": [{"sender_name": "Alex", "content": "hi"}]}`,
		"messages/inbox/b/message_1.json": `{"messages": [{"sender_name": "Sam", "content": "hey"}]}`,
		"posts/media/photo.png":          pngHeader,
		"location_history.json":          `{"ignored": true}`,
		"broken_post.json":               `{not json`,
	})

	payload, err := NewLoader(NewScanner(0)).Load(context.Background(), archivePath)
	require.NoError(t, err)

	posts, ok := payload.Document["posts"].([]any)
	require.True(t, ok)
	assert.Len(t, posts, 2)

	friends, ok := payload.Document["friends_v2"].([]any)
	require.True(t, ok)
	assert.Len(t, friends, 1)

	messages, ok := payload.Document["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2, "message arrays from separate threads are concatenated")

	assert.NotContains(t, payload.Document, "ignored")
	assert.Equal(t, []string{"broken_post.json"}, payload.Skipped)

	size, contentType, found := payload.LookupMedia("posts/media/photo.png")
	require.True(t, found)
	assert.Equal(t, int64(len(pngHeader)), size)
	assert.Equal(t, "image/png", contentType)
}

func TestLoader_Load_Directory(t *testing.T) {
	root := writeDir(t, map[string]string{
		"export/friends.json": `[{"name": "Jo"}]`,
		"export/IMG_1.png":    pngHeader,
	})

	payload, err := NewLoader(NewScanner(0)).Load(context.Background(), root)
	require.NoError(t, err)

	friends, ok := payload.Document["friends"].([]any)
	require.True(t, ok)
	assert.Len(t, friends, 1)

	_, contentType, found := payload.LookupMedia("IMG_1.png")
	assert.True(t, found, "media is matched by path suffix")
	assert.Equal(t, "image/png", contentType)
}

func TestLoader_Load_NotFound(t *testing.T) {
	_, err := NewLoader(NewScanner(0)).Load(context.Background(), "/does/not/exist.zip")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayload_LookupMedia_Nil(t *testing.T) {
	var p *Payload
	_, _, found := p.LookupMedia("a.jpg")
	assert.False(t, found)
}
