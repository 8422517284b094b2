package runner

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/abdul-hamid-achik/storyspoiler/packages/assertions"
	"github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
)

// Scenario names.
const (
	CreateStory        = "create-story"
	EditStory          = "edit-story"
	ListStories        = "list-stories"
	DeleteStory        = "delete-story"
	CreateInvalidStory = "create-invalid-story"
	EditMissingStory   = "edit-missing-story"
	DeleteMissingStory = "delete-missing-story"
)

// StepFunc sends one request and evaluates its response. A non-nil error
// means the scenario could not produce a response to assert on.
type StepFunc func(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error)

// Scenario is one request against the service with its expected outcome.
type Scenario struct {
	Order       int
	Name        string
	Description string
	Method      string
	Endpoint    string
	// Needs names scenarios that must run first.
	Needs []string
	Run   StepFunc
}

// Scenarios returns the suite in declaration order.
func Scenarios() []*Scenario {
	return []*Scenario{
		{
			Order:       1,
			Name:        CreateStory,
			Description: "create a story and capture its id",
			Method:      nethttp.MethodPost,
			Endpoint:    story.CreatePath,
			Run:         runCreateStory,
		},
		{
			Order:       2,
			Name:        EditStory,
			Description: "edit the created story",
			Method:      nethttp.MethodPut,
			Endpoint:    "/api/Story/Edit/{id}",
			Needs:       []string{CreateStory},
			Run:         runEditStory,
		},
		{
			Order:       3,
			Name:        ListStories,
			Description: "list all stories",
			Method:      nethttp.MethodGet,
			Endpoint:    story.AllPath,
			Needs:       []string{CreateStory},
			Run:         runListStories,
		},
		{
			Order:       4,
			Name:        DeleteStory,
			Description: "delete the created story",
			Method:      nethttp.MethodDelete,
			Endpoint:    "/api/Story/Delete/{id}",
			Needs:       []string{EditStory, ListStories},
			Run:         runDeleteStory,
		},
		{
			Order:       5,
			Name:        CreateInvalidStory,
			Description: "reject a story without title or description",
			Method:      nethttp.MethodPost,
			Endpoint:    story.CreatePath,
			Run:         runCreateInvalidStory,
		},
		{
			Order:       6,
			Name:        EditMissingStory,
			Description: "edit a story that does not exist",
			Method:      nethttp.MethodPut,
			Endpoint:    story.EditPath(story.MissingEditID),
			Run:         runEditMissingStory,
		},
		{
			Order:       7,
			Name:        DeleteMissingStory,
			Description: "delete a story that does not exist",
			Method:      nethttp.MethodDelete,
			Endpoint:    story.DeletePath(story.MissingDeleteID),
			Run:         runDeleteMissingStory,
		},
	}
}

func runCreateStory(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	resp, err := s.Client.Post(ctx, story.CreatePath, story.NewStory)
	if err != nil {
		return nil, nil, err
	}

	eval := assertions.NewEvaluator(resp)
	results := []*assertions.Result{eval.Status(nethttp.StatusCreated)}

	ref, shape, err := story.DecodeCreated(resp.Body)
	idResult := &assertions.Result{
		Subject:  "body.storyId",
		Operator: assertions.OpNotEmpty,
		Expected: "story id",
		Actual:   ref.ID,
		Passed:   err == nil,
	}
	if err != nil {
		idResult.Message = err.Error()
	} else {
		st.SetCreated(ref, shape)
	}
	results = append(results, idResult, eval.BodyContains(story.MsgCreated))
	return resp, results, nil
}

func runEditStory(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	id, err := st.StoryID()
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.Client.Put(ctx, story.EditPath(id), story.EditedStory)
	if err != nil {
		return nil, nil, err
	}

	eval := assertions.NewEvaluator(resp)
	return resp, []*assertions.Result{
		eval.Status(nethttp.StatusOK),
		eval.BodyContains(story.MsgEdited),
	}, nil
}

func runListStories(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	resp, err := s.Client.Get(ctx, story.AllPath)
	if err != nil {
		return nil, nil, err
	}

	eval := assertions.NewEvaluator(resp)
	return resp, []*assertions.Result{
		eval.Status(nethttp.StatusOK),
		eval.BodyNotEmpty(),
		eval.MinLength(1),
		eval.Schema(story.ListSchema),
		decodedStories(resp),
	}, nil
}

// decodedStories checks that the list body parses to at least one story.
func decodedStories(resp *http.Response) *assertions.Result {
	result := &assertions.Result{
		Subject:  "stories",
		Operator: assertions.OpNotEmpty,
		Expected: "decoded story list",
	}
	stories, err := story.DecodeList(resp.Body)
	if err != nil {
		result.Actual = "undecodable"
		result.Message = fmt.Sprintf("decoding story list: %v", err)
		return result
	}
	result.Actual = len(stories)
	if len(stories) == 0 {
		result.Message = "story list is empty"
		return result
	}
	result.Passed = true
	return result
}

func runDeleteStory(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	id, err := st.StoryID()
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.Client.Delete(ctx, story.DeletePath(id))
	if err != nil {
		return nil, nil, err
	}

	eval := assertions.NewEvaluator(resp)
	status := eval.Status(nethttp.StatusOK)
	if status.Passed {
		st.MarkDeleted()
	}
	return resp, []*assertions.Result{
		status,
		eval.BodyNotEmpty(),
		eval.BodyContains(story.MsgDeleted),
	}, nil
}

func runCreateInvalidStory(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	resp, err := s.Client.Post(ctx, story.CreatePath, story.InvalidStory)
	if err != nil {
		return nil, nil, err
	}

	// A service that wrongly accepts the story still leaves one behind.
	if resp.IsSuccess() {
		if ref, _, err := story.DecodeCreated(resp.Body); err == nil {
			st.AddStray(ref.ID)
		}
	}

	eval := assertions.NewEvaluator(resp)
	return resp, []*assertions.Result{eval.Status(nethttp.StatusBadRequest)}, nil
}

func runEditMissingStory(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	resp, err := s.Client.Put(ctx, story.EditPath(story.MissingEditID), story.FakeStory)
	if err != nil {
		return nil, nil, err
	}

	eval := assertions.NewEvaluator(resp)
	return resp, []*assertions.Result{
		eval.Status(nethttp.StatusNotFound),
		eval.BodyContains(story.MsgNotFound),
	}, nil
}

func runDeleteMissingStory(ctx context.Context, s *Session, st *State) (*http.Response, []*assertions.Result, error) {
	resp, err := s.Client.Delete(ctx, story.DeletePath(story.MissingDeleteID))
	if err != nil {
		return nil, nil, err
	}

	eval := assertions.NewEvaluator(resp)
	return resp, []*assertions.Result{
		eval.Status(nethttp.StatusBadRequest),
		eval.BodyContains(story.MsgUnableToDelete),
	}, nil
}

// Lookup returns the scenario named name.
func Lookup(scenarios []*Scenario, name string) (*Scenario, error) {
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("unknown scenario %q", name)
}
