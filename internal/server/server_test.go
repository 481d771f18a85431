package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/dialogue"
	"github.com/abhisek/readmind/internal/evaluator"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/llm"
	"github.com/abhisek/readmind/internal/notes"
	"github.com/abhisek/readmind/internal/questiongen"
	"github.com/abhisek/readmind/internal/reading"
)

const batchJSON = `{"questions":[
	{"id":"q1","capability":"R1","prompt":"圆圈舞表示多远？"},
	{"id":"q2","capability":"R2","prompt":"为什么要跳两种舞？"}]}`

type harness struct {
	gen, eval, talk *llm.MockProvider
	repo            *notes.MemoryRepository
	srv             *Server
	ts              *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := catalog.Sample()
	require.NoError(t, err)

	h := &harness{
		gen:  llm.NewMockProvider(),
		eval: llm.NewMockProvider(),
		talk: llm.NewMockProvider(),
		repo: notes.NewMemoryRepository(),
	}
	factory := func(ctx context.Context, text *catalog.Text, profile capability.Profile) (*reading.Session, error) {
		book, err := notes.Open(ctx, h.repo, text.ID)
		if err != nil {
			return nil, err
		}
		return reading.NewSession(ctx, text, profile, reading.Deps{
			Generator: questiongen.New(h.gen, questiongen.DefaultConfig()),
			Evaluator: evaluator.New(h.eval, evaluator.DefaultConfig()),
			Dialogue:  dialogue.NewSession(h.talk, dialogue.DefaultConfig()),
			Notes:     book,
		})
	}
	h.srv = New(cat, factory, capability.SampleProfile(), i18n.Chinese)
	h.ts = httptest.NewServer(h.srv.Handler())
	t.Cleanup(func() {
		h.ts.Close()
		h.srv.Close()
	})
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (h *harness) createSession(t *testing.T, body any) reading.Snapshot {
	t.Helper()
	resp, data := h.do(t, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var snap reading.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return snap
}

func TestListTexts(t *testing.T) {
	h := newHarness(t)

	resp, data := h.do(t, http.MethodGet, "/api/texts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []textSummary
	require.NoError(t, json.Unmarshal(data, &all))
	assert.Len(t, all, 7)

	resp, data = h.do(t, http.MethodGet, "/api/texts?type=Science", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var science []textSummary
	require.NoError(t, json.Unmarshal(data, &science))
	require.NotEmpty(t, science)
	for _, s := range science {
		assert.Equal(t, catalog.Science, s.Type)
	}

	resp, _ = h.do(t, http.MethodGet, "/api/texts?target=R9", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetText(t *testing.T) {
	h := newHarness(t)
	resp, data := h.do(t, http.MethodGet, "/api/texts/sci_001", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var text catalog.Text
	require.NoError(t, json.Unmarshal(data, &text))
	assert.Equal(t, "sci_001", text.ID)
	assert.NotEmpty(t, text.Segments)

	resp, _ = h.do(t, http.MethodGet, "/api/texts/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCapabilities(t *testing.T) {
	h := newHarness(t)
	resp, data := h.do(t, http.MethodGet, "/api/capabilities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var infos []capability.Info
	require.NoError(t, json.Unmarshal(data, &infos))
	require.Len(t, infos, 4)
	assert.Equal(t, capability.R1, infos[0].ID)
}

func TestCreateSession(t *testing.T) {
	h := newHarness(t)

	snap := h.createSession(t, map[string]any{"text_id": "sci_001"})
	assert.Equal(t, capability.R4, snap.Target)
	assert.Equal(t, reading.OpIdle, snap.QuestionState)

	snap = h.createSession(t, map[string]any{
		"text_id": "sci_001",
		"profile": map[string]int{"R1": 50, "R2": 50, "R3": 70, "R4": 80},
	})
	assert.Equal(t, capability.R1, snap.Target)

	resp, _ := h.do(t, http.MethodPost, "/api/sessions", map[string]any{
		"text_id": "sci_001",
		"profile": map[string]int{"R1": 50},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/api/sessions", map[string]any{"text_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/api/sessions", map[string]any{"text": "sci_001"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionFlow(t *testing.T) {
	h := newHarness(t)
	snap := h.createSession(t, map[string]any{"text_id": "sci_001"})
	base := "/api/sessions/" + snap.ID

	h.gen.AddResponse(llm.MockResponse{Content: json.RawMessage(batchJSON)})
	resp, data := h.do(t, http.MethodPost, base+"/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, reading.OpDone, snap.QuestionState)
	require.Len(t, snap.Questions, 2)

	resp, _ = h.do(t, http.MethodPost, base+"/answers/q1/evaluate", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no answer yet")

	resp, _ = h.do(t, http.MethodPut, base+"/answers/q1", map[string]string{"answer": "不到50米"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h.eval.AddResponse(llm.MockResponse{Content: json.RawMessage(`{"score":120,"feedback":"准确","suggestions":"无"}`)})
	resp, data = h.do(t, http.MethodPost, base+"/answers/q1/evaluate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var rec reading.AnswerRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	require.NotNil(t, rec.Result)
	assert.Equal(t, 100, rec.Result.Score)
	assert.Equal(t, reading.OpDone, rec.State)

	resp, _ = h.do(t, http.MethodPost, base+"/answers/q1/evaluate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = h.do(t, http.MethodPut, base+"/answers/q1", map[string]string{"answer": "改"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = h.do(t, http.MethodPut, base+"/answers/q9", map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = h.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuestionsSoftFailure(t *testing.T) {
	h := newHarness(t)
	snap := h.createSession(t, map[string]any{"text_id": "sci_001"})

	h.gen.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	resp, data := h.do(t, http.MethodPost, "/api/sessions/"+snap.ID+"/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, reading.OpFailed, snap.QuestionState)
	assert.Empty(t, snap.Questions)
}

func TestEvaluationFailureIsBadGateway(t *testing.T) {
	h := newHarness(t)
	snap := h.createSession(t, map[string]any{"text_id": "sci_001"})
	base := "/api/sessions/" + snap.ID

	h.gen.AddResponse(llm.MockResponse{Content: json.RawMessage(batchJSON)})
	h.do(t, http.MethodPost, base+"/questions", nil)
	h.do(t, http.MethodPut, base+"/answers/q2", map[string]string{"answer": "为了区分距离"})

	h.eval.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	resp, data := h.do(t, http.MethodPost, base+"/answers/q2/evaluate?lang=en", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(data), "could not be reviewed")
}

func TestDialogue(t *testing.T) {
	h := newHarness(t)
	snap := h.createSession(t, map[string]any{"text_id": "sci_001"})
	base := "/api/sessions/" + snap.ID

	h.talk.AddResponse(llm.TextResponse("你觉得摆尾舞传递了哪些信息？"))
	resp, data := h.do(t, http.MethodPost, base+"/dialogue", map[string]string{"text": "蜜蜂怎么交流？"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Transcript []dialogue.Turn `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Transcript, 2)
	assert.Equal(t, dialogue.Guide, out.Transcript[1].Role)

	resp, _ = h.do(t, http.MethodPost, base+"/dialogue", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Service failure is masked by the fallback turn.
	resp, data = h.do(t, http.MethodPost, base+"/dialogue", map[string]string{"text": "然后呢？"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Len(t, out.Transcript, 4)
}

func TestNotes(t *testing.T) {
	h := newHarness(t)
	snap := h.createSession(t, map[string]any{"text_id": "sci_003"})
	base := "/api/sessions/" + snap.ID

	resp, data := h.do(t, http.MethodPost, base+"/notes", map[string]string{"content": "测试笔记"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var n notes.Note
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, notes.StatusDraft, n.Status)

	resp, _ = h.do(t, http.MethodPost, base+"/notes", map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = h.do(t, http.MethodPost, base+"/notes/"+n.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, notes.StatusSubmitted, n.Status)

	// Notes persist across sessions on the same text.
	other := h.createSession(t, map[string]any{"text_id": "sci_003"})
	resp, data = h.do(t, http.MethodGet, "/api/sessions/"+other.ID+"/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []notes.Note
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 1)

	resp, _ = h.do(t, http.MethodDelete, base+"/notes/"+n.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, data = h.do(t, http.MethodGet, base+"/notes", nil)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Empty(t, list)

	resp, _ = h.do(t, http.MethodPost, base+"/notes/missing/submit", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t)
	resp, data := h.do(t, http.MethodPost, "/api/sessions/nope/questions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(data), "session not found")
}
