package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/phrazzld/sciencepath/internal/api"
	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/generation"
	"github.com/phrazzld/sciencepath/internal/service"
	"github.com/phrazzld/sciencepath/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) cont(t *testing.T, i string) api.ContinueResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/lesson/cards/"+i+"/continue", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[api.ContinueResponse](t, w)
}

func (s *testServer) answer(t *testing.T, i, text string) {
	t.Helper()
	w := s.do(t, http.MethodPut, "/api/lesson/cards/"+i+"/answer", api.AnswerRequest{Answer: text})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLesson_PlayThrough(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Ada")

	w := s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, "Matter-1", snap.LessonID)
	assert.Equal(t, 1, snap.LessonNumber)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 4, snap.Total)

	assert.Equal(t, session.ActionMoved, s.cont(t, "0").Outcome.Action)
	assert.Equal(t, session.ActionMoved, s.cont(t, "1").Outcome.Action)

	s.answer(t, "2", "seven")
	resp := s.cont(t, "2")
	assert.Equal(t, session.ActionIncorrect, resp.Outcome.Action)
	assert.Equal(t, 2, resp.Lesson.Index)

	s.answer(t, "2", "7")
	resp = s.cont(t, "2")
	assert.Equal(t, session.ActionCorrect, resp.Outcome.Action)
	assert.True(t, resp.Lesson.AdvancePending)

	resp = s.cont(t, "2")
	assert.Equal(t, session.ActionMoved, resp.Outcome.Action)
	assert.Equal(t, 3, resp.Lesson.Index)

	resp = s.cont(t, "3")
	assert.Equal(t, session.ActionFinished, resp.Outcome.Action)
	assert.Equal(t, session.StateFinished, resp.Lesson.State)

	ledger := decode[domain.Ledger](t, s.do(t, http.MethodGet, "/api/progress", nil))
	assert.Equal(t, []int{1}, ledger.CompletedLessons["Matter"])

	topics := decode[[]service.TopicView](t, s.do(t, http.MethodGet, "/api/topics", nil))
	require.Len(t, topics, 1)
	assert.Equal(t, "Matter", topics[0].ID)
	assert.Equal(t, 2, topics[0].NextLesson)
	assert.True(t, topics[0].InProgress)
	assert.Equal(t, 2, topics[0].Remaining)
}

func TestLesson_Navigation(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Ada")
	require.Equal(t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter", LessonNumber: 2}).Code)

	s.cont(t, "0")
	s.cont(t, "1")

	w := s.do(t, http.MethodPost, "/api/lesson/cards/3/jump", nil)
	assertError(t, w, http.StatusConflict, "That step is not available yet")

	w = s.do(t, http.MethodPost, "/api/lesson/cards/0/jump", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[session.Snapshot](t, w).Index)

	w = s.do(t, http.MethodPost, "/api/lesson/cards/1/continue", nil)
	assertError(t, w, http.StatusConflict, "That step is not available yet")

	w = s.do(t, http.MethodPost, "/api/lesson/cards/x/continue", nil)
	assertError(t, w, http.StatusBadRequest, "Validation error")

	s.cont(t, "0")
	w = s.do(t, http.MethodPost, "/api/lesson/previous", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[session.Snapshot](t, w).Index)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/lesson", nil).Code)
	assertError(t, s.do(t, http.MethodGet, "/api/lesson", nil), http.StatusConflict, "No lesson is open")
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/lesson", nil).Code)
}

func TestLesson_ResumesAtSavedPosition(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Ada")

	s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter"})
	s.cont(t, "0")
	s.cont(t, "1")
	s.do(t, http.MethodDelete, "/api/lesson", nil)

	w := s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter", LessonNumber: 1})
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, 2, snap.Index)
	assert.ElementsMatch(t, []int{0, 1}, snap.Completed)
}

func TestLesson_OpenErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter"})
	assertError(t, w, http.StatusConflict, "No learner is selected")

	s.createUser(t, "Ada")

	w = s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Nope"})
	assertError(t, w, http.StatusNotFound, "Not found")

	w = s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter", LessonNumber: 4})
	assertError(t, w, http.StatusBadRequest, "Invalid LessonNumber: too long")

	s.gen.GenerateLessonFn = func(context.Context, curriculum.Topic, int) (*domain.LessonContent, error) {
		return nil, errors.Join(generation.ErrTransientFailure, errors.New("upstream 503 from key=abcdefgh12345678"))
	}
	w = s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter"})
	resp := assertError(t, w, http.StatusBadGateway, "Lesson content could not be loaded")
	assert.Equal(t, api.TopicsRedirect, resp.Redirect)
	assert.NotContains(t, w.Body.String(), "abcdefgh")

	s.gen.GenerateLessonFn = func(context.Context, curriculum.Topic, int) (*domain.LessonContent, error) {
		return &domain.LessonContent{}, nil
	}
	w = s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter"})
	assertError(t, w, http.StatusBadGateway, "Lesson content could not be loaded")
	assertError(t, s.do(t, http.MethodGet, "/api/lesson", nil), http.StatusConflict, "No lesson is open")
}

func TestLesson_CompletedTopicIsLocked(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Ada")

	for n := 1; n <= domain.LessonsPerTopic; n++ {
		w := s.do(t, http.MethodPost, "/api/progress/lessons", api.MarkLessonRequest{TopicID: "Matter", LessonNumber: n})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodPost, "/api/lesson", api.OpenLessonRequest{TopicID: "Matter"})
	assertError(t, w, http.StatusConflict, "That step is not available yet")

	topics := decode[[]service.TopicView](t, s.do(t, http.MethodGet, "/api/topics", nil))
	require.Len(t, topics, 1)
	assert.Equal(t, "Heat", topics[0].ID)

	view := decode[service.TopicView](t, s.do(t, http.MethodGet, "/api/topics/Matter", nil))
	assert.Equal(t, 0, view.NextLesson)
	assert.Equal(t, 3, view.Progress)

	assertError(t, s.do(t, http.MethodGet, "/api/topics/Nope", nil), http.StatusNotFound, "Not found")
}

func TestProgress_MarkAndReset(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "Ada")

	w := s.do(t, http.MethodPost, "/api/progress/lessons", api.MarkLessonRequest{TopicID: "Matter", LessonNumber: 0})
	assertError(t, w, http.StatusBadRequest, "Invalid LessonNumber: required field")

	w = s.do(t, http.MethodPost, "/api/progress/lessons", api.MarkLessonRequest{TopicID: "Nope", LessonNumber: 1})
	assertError(t, w, http.StatusNotFound, "Not found")

	w = s.do(t, http.MethodPost, "/api/progress/lessons", api.MarkLessonRequest{TopicID: "Matter", LessonNumber: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{2}, decode[domain.Ledger](t, w).CompletedLessons["Matter"])

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/progress", nil).Code)
	ledger := decode[domain.Ledger](t, s.do(t, http.MethodGet, "/api/progress", nil))
	assert.Empty(t, ledger.CompletedLessons)
	assert.Empty(t, ledger.CompletedTopics)
}
