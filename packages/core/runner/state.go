package runner

import (
	"errors"

	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
)

// ErrMissingStoryID is returned by scenarios that need a story id when no
// create has produced one and none was injected.
var ErrMissingStoryID = errors.New("no story id available: create did not yield one")

// State is the cross-scenario context of one run. It is passed explicitly to
// every scenario.
type State struct {
	ref      story.Ref
	shape    story.IDShape
	injected bool
	deleted  bool
	strays   []string
}

// NewState returns a State seeded with id when id is non-empty. A seeded
// story belongs to the caller and is never cleaned up by the runner.
func NewState(id string) *State {
	s := &State{}
	if id != "" {
		s.ref = story.Ref{ID: id}
		s.injected = true
	}
	return s
}

// StoryID returns the current story id or ErrMissingStoryID.
func (s *State) StoryID() (string, error) {
	if s.ref.IsZero() {
		return "", ErrMissingStoryID
	}
	return s.ref.ID, nil
}

// Ref returns the current story reference, which may be zero.
func (s *State) Ref() story.Ref {
	return s.ref
}

// Shape reports where the create response carried the id.
func (s *State) Shape() story.IDShape {
	return s.shape
}

func (s *State) Injected() bool {
	return s.injected
}

// SetCreated records a story created in this run, replacing any earlier ref.
func (s *State) SetCreated(ref story.Ref, shape story.IDShape) {
	s.ref = ref
	s.shape = shape
	s.injected = false
	s.deleted = false
}

// MarkDeleted records that the current story no longer exists.
func (s *State) MarkDeleted() {
	s.deleted = true
}

func (s *State) Deleted() bool {
	return s.deleted
}

// AddStray records a story the service created when it should not have.
func (s *State) AddStray(id string) {
	if id != "" {
		s.strays = append(s.strays, id)
	}
}

// Leftovers lists stories this run created and did not delete.
func (s *State) Leftovers() []string {
	var ids []string
	if !s.ref.IsZero() && !s.injected && !s.deleted {
		ids = append(ids, s.ref.ID)
	}
	return append(ids, s.strays...)
}
