package mock

import (
	"sync"

	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
	"github.com/google/uuid"
)

// Story is a stored story spoiler.
type Story struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Store keeps stories in insertion order.
type Store struct {
	mu      sync.RWMutex
	stories map[string]*Story
	order   []string
}

func NewStore() *Store {
	return &Store{
		stories: make(map[string]*Story),
	}
}

func (s *Store) Create(p story.Payload) *Story {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Story{
		ID:          uuid.NewString(),
		Title:       p.Title,
		Description: p.Description,
		URL:         p.URL,
	}
	s.stories[st.ID] = st
	s.order = append(s.order, st.ID)
	return st
}

// Update replaces the story's fields and reports whether it existed.
func (s *Store) Update(id string, p story.Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stories[id]
	if !ok {
		return false
	}
	st.Title = p.Title
	st.Description = p.Description
	st.URL = p.URL
	return true
}

// Delete removes the story and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return false
	}
	delete(s.stories, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Get(id string) (Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stories[id]
	if !ok {
		return Story{}, false
	}
	return *st, true
}

func (s *Store) All() []Story {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Story, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, *s.stories[id])
	}
	return all
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
