package story

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoStoryID is returned when a create response carries no story id in
	// any of the known shapes.
	ErrNoStoryID = errors.New("no storyId in response")
	// ErrNotJSONArray is returned when the list response is not a JSON array.
	ErrNotJSONArray = errors.New("response is not a JSON array")
)

// IDShape names where a story id was found in a create response.
type IDShape int

const (
	ShapeUnknown IDShape = iota
	// ShapeTopLevel is {"storyId": "..."}.
	ShapeTopLevel
	// ShapeNested is {"data": {"storyId": "..."}}.
	ShapeNested
)

func (s IDShape) String() string {
	switch s {
	case ShapeTopLevel:
		return "top-level"
	case ShapeNested:
		return "nested"
	default:
		return "unknown"
	}
}

var idPaths = []struct {
	shape IDShape
	path  string
}{
	{ShapeTopLevel, "storyId"},
	{ShapeNested, "data.storyId"},
}

// DecodeCreated extracts the story id from a create response body. The
// top-level shape is tried first, then the nested one. Numeric ids are
// accepted and returned in their JSON text form.
func DecodeCreated(body []byte) (Ref, IDShape, error) {
	if !gjson.ValidBytes(body) {
		return Ref{}, ShapeUnknown, fmt.Errorf("%w: body is not valid JSON: %s", ErrNoStoryID, truncate(string(body), 200))
	}

	doc := gjson.ParseBytes(body)
	for _, p := range idPaths {
		v := doc.Get(p.path)
		if !v.Exists() {
			continue
		}
		var id string
		switch v.Type {
		case gjson.String:
			id = v.Str
		case gjson.Number:
			id = v.Raw
		}
		if id != "" {
			return Ref{ID: id}, p.shape, nil
		}
	}

	return Ref{}, ShapeUnknown, fmt.Errorf("%w: %s", ErrNoStoryID, truncate(string(body), 200))
}

// DecodeList parses the list response into payloads.
func DecodeList(body []byte) ([]Payload, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrNotJSONArray
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, ErrNotJSONArray
	}

	items := doc.Array()
	stories := make([]Payload, 0, len(items))
	for _, item := range items {
		stories = append(stories, Payload{
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
			URL:         item.Get("url").String(),
		})
	}
	return stories, nil
}

// AccessToken extracts the accessToken field from an authentication response.
func AccessToken(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	v := gjson.GetBytes(body, "accessToken")
	if v.Type != gjson.String || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
