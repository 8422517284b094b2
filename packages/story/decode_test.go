package story

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreated(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		id    string
		shape IDShape
	}{
		{
			name:  "top-level",
			body:  `{"storyId": "abc-123", "msg": "Successfully created!"}`,
			id:    "abc-123",
			shape: ShapeTopLevel,
		},
		{
			name:  "nested under data",
			body:  `{"msg": "Successfully created!", "data": {"storyId": "def-456"}}`,
			id:    "def-456",
			shape: ShapeNested,
		},
		{
			name:  "top-level wins over nested",
			body:  `{"storyId": "top", "data": {"storyId": "nested"}}`,
			id:    "top",
			shape: ShapeTopLevel,
		},
		{
			name:  "empty top-level falls back to nested",
			body:  `{"storyId": "", "data": {"storyId": "nested"}}`,
			id:    "nested",
			shape: ShapeNested,
		},
		{
			name:  "numeric id",
			body:  `{"storyId": 42}`,
			id:    "42",
			shape: ShapeTopLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, shape, err := DecodeCreated([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.id, ref.ID)
			assert.Equal(t, tt.shape, shape)
		})
	}
}

func TestDecodeCreated_Failures(t *testing.T) {
	bodies := map[string]string{
		"missing":    `{"msg": "Successfully created!"}`,
		"empty":      ``,
		"not json":   `Successfully created!`,
		"null id":    `{"storyId": null}`,
		"data array": `{"data": [{"storyId": "x"}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			ref, shape, err := DecodeCreated([]byte(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoStoryID))
			assert.True(t, ref.IsZero())
			assert.Equal(t, ShapeUnknown, shape)
		})
	}
}

func TestDecodeList(t *testing.T) {
	stories, err := DecodeList([]byte(`[{"title":"a","description":"b","url":""},{"title":"c"}]`))
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "a", stories[0].Title)
	assert.Equal(t, "c", stories[1].Title)

	_, err = DecodeList([]byte(`{"title":"a"}`))
	assert.ErrorIs(t, err, ErrNotJSONArray)

	stories, err = DecodeList([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestAccessToken(t *testing.T) {
	token, ok := AccessToken([]byte(`{"username":"u","accessToken":"eyJ.abc.def"}`))
	assert.True(t, ok)
	assert.Equal(t, "eyJ.abc.def", token)

	for _, body := range []string{`{}`, `{"accessToken": ""}`, `{"accessToken": 5}`, `<html>`, ``} {
		_, ok := AccessToken([]byte(body))
		assert.False(t, ok, body)
	}
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/api/Story/Edit/741852963", EditPath(MissingEditID))
	assert.Equal(t, "/api/Story/Delete/123456789", DeletePath(MissingDeleteID))
	assert.Equal(t, "/api/Story/Delete/a%2Fb", DeletePath("a/b"))
}

func TestPayload_Valid(t *testing.T) {
	assert.True(t, NewStory.Valid())
	assert.True(t, EditedStory.Valid())
	assert.False(t, InvalidStory.Valid())
	assert.False(t, Payload{Title: "only title"}.Valid())
}
