package story

import "net/url"

// Endpoint paths, relative to the service base URL.
const (
	AuthenticationPath = "/api/User/Authentication"
	CreatePath         = "/api/Story/Create"
	AllPath            = "/api/Story/All"
	editPathPrefix     = "/api/Story/Edit/"
	deletePathPrefix   = "/api/Story/Delete/"
)

// Messages the service puts in response bodies.
const (
	MsgCreated        = "Successfully created!"
	MsgEdited         = "Successfully edited"
	MsgDeleted        = "Deleted successfully!"
	MsgNotFound       = "No spoilers..."
	MsgUnableToDelete = "Unable to delete this story spoiler!"
)

// Payload is the body of create and edit requests. The service also returns
// stories in this shape from the list endpoint.
type Payload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Valid reports whether the service is expected to accept the payload.
func (p Payload) Valid() bool {
	return p.Title != "" && p.Description != ""
}

// Ref identifies a story created during a run.
type Ref struct {
	ID string
}

func (r Ref) IsZero() bool {
	return r.ID == ""
}

func EditPath(id string) string {
	return editPathPrefix + url.PathEscape(id)
}

func DeletePath(id string) string {
	return deletePathPrefix + url.PathEscape(id)
}

// Fixed payloads and identifiers used by the scenarios.
var (
	NewStory = Payload{
		Title:       "New story",
		Description: "This is a new story.",
		URL:         "",
	}
	EditedStory = Payload{
		Title:       "Edited story",
		Description: "This is the edied story.",
		URL:         "",
	}
	InvalidStory = Payload{}
	FakeStory    = Payload{
		Title:       "Fake story",
		Description: "Fake story here",
	}
)

const (
	// MissingEditID is never issued by the service.
	MissingEditID = "741852963"
	// MissingDeleteID is never issued by the service.
	MissingDeleteID = "123456789"
)
