package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alfredjeanlab/devsim/internal/chat"
	"github.com/alfredjeanlab/devsim/internal/model"
)

// doRequest sends a request through the full handler chain.
func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func newTestHandler(t *testing.T) (http.Handler, *GraphServer, *mockStore) {
	t.Helper()
	srv, ms, _ := newTestServer()
	return srv.NewHTTPHandler(nil), srv, ms
}

func TestHTTP_Health(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := doRequest(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody[map[string]string](t, w)
	if body["status"] != "OK" || body["timestamp"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestHTTP_Index(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := doRequest(t, h, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "PUT /project/{projectId}") {
		t.Errorf("index does not list save endpoint: %s", w.Body.String())
	}
	if w := doRequest(t, h, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", w.Code)
	}
}

func TestHTTP_GetProject(t *testing.T) {
	h, srv, _ := newTestHandler(t)
	ctx := context.Background()
	p, _ := srv.CreateProject(ctx, "demo", "")
	if _, err := srv.SaveGraph(ctx, p.ID,
		[]model.NodeSpec{{Label: ptr("A")}, {Label: ptr("B")}},
		[]model.EdgeSpec{{SourceLabel: ptr("A"), TargetLabel: ptr("B")}},
	); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, h, http.MethodGet, "/project/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	pg := decodeBody[model.ProjectGraph](t, w)
	if pg.Project.Name != "demo" || pg.Counts.TotalNodes != 2 || pg.Counts.TotalEdges != 1 {
		t.Errorf("graph = %+v", pg)
	}
	if *pg.Edges[0].SourceLabel != "A" {
		t.Errorf("source label = %q", *pg.Edges[0].SourceLabel)
	}
}

func TestHTTP_GetProjectErrors(t *testing.T) {
	h, _, _ := newTestHandler(t)
	for _, tc := range []struct {
		path string
		want int
	}{
		{"/project/abc", http.StatusBadRequest},
		{"/project/1.5", http.StatusBadRequest},
		{"/project/999999", http.StatusNotFound},
	} {
		w := doRequest(t, h, http.MethodGet, tc.path, "")
		if w.Code != tc.want {
			t.Errorf("GET %s = %d, want %d", tc.path, w.Code, tc.want)
		}
		if decodeBody[map[string]string](t, w)["error"] == "" {
			t.Errorf("GET %s: missing error message", tc.path)
		}
	}
}

func TestHTTP_SaveProject(t *testing.T) {
	h, srv, _ := newTestHandler(t)
	if _, err := srv.CreateProject(context.Background(), "demo", ""); err != nil {
		t.Fatal(err)
	}

	body := `{
		"nodes": [
			{"label": "Gen", "processing_time": 5, "node_type": "generator"},
			{"label": "Proc"},
			{}
		],
		"edges": [
			{"source_label": "Gen", "target_label": "Proc"},
			{"source_label": "Proc", "target_label": "Untitled Node"},
			{"source_label": "Ghost", "target_label": "Proc"}
		]
	}`
	w := doRequest(t, h, http.MethodPut, "/project/1", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[saveGraphResponse](t, w)
	if resp.ProjectID != 1 || resp.NodesCount != 3 || resp.EdgesCount != 2 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Message == "" {
		t.Error("missing message")
	}
	if n := resp.Nodes[1]; n.ProcessingTime != model.DefaultProcessingTime || n.Kind != model.DefaultNodeKind {
		t.Errorf("defaults not applied: %+v", n)
	}
	if resp.Nodes[2].Label != model.DefaultNodeLabel {
		t.Errorf("default label = %q", resp.Nodes[2].Label)
	}
}

func TestHTTP_SaveProjectReaddressesByID(t *testing.T) {
	h, srv, _ := newTestHandler(t)
	ctx := context.Background()
	p, _ := srv.CreateProject(ctx, "demo", "")
	first, err := srv.SaveGraph(ctx, p.ID,
		[]model.NodeSpec{{Label: ptr("Dup")}, {Label: ptr("Dup")}}, []model.EdgeSpec{})
	if err != nil {
		t.Fatal(err)
	}
	a, b := first.Nodes[0].ID, first.Nodes[1].ID

	// Labels are ambiguous, so only the prior ids can connect these.
	body, _ := json.Marshal(map[string]any{
		"nodes": []model.NodeSpec{{ID: &a, Label: ptr("Dup")}, {ID: &b, Label: ptr("Dup")}},
		"edges": []model.EdgeSpec{
			{SourceNodeID: &a, TargetNodeID: &b},
			{SourceLabel: ptr("Dup"), TargetLabel: ptr("Dup")},
		},
	})
	w := doRequest(t, h, http.MethodPut, "/project/1", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[saveGraphResponse](t, w)
	if resp.EdgesCount != 1 {
		t.Fatalf("edges_count = %d, want 1", resp.EdgesCount)
	}
	e := resp.Edges[0]
	if e.SourceNodeID != resp.Nodes[0].ID || e.TargetNodeID != resp.Nodes[1].ID {
		t.Errorf("edge %d->%d, want %d->%d", e.SourceNodeID, e.TargetNodeID, resp.Nodes[0].ID, resp.Nodes[1].ID)
	}
}

func TestHTTP_SaveProjectBadRequests(t *testing.T) {
	for _, tc := range []struct {
		name string
		path string
		body string
		want int
	}{
		{"EmptyObject", "/project/1", `{}`, http.StatusBadRequest},
		{"MissingEdges", "/project/1", `{"nodes": []}`, http.StatusBadRequest},
		{"MissingNodes", "/project/1", `{"edges": []}`, http.StatusBadRequest},
		{"NullNodes", "/project/1", `{"nodes": null, "edges": []}`, http.StatusBadRequest},
		{"InvalidJSON", "/project/1", `{"nodes": [`, http.StatusBadRequest},
		{"InvalidID", "/project/x", `{"nodes": [], "edges": []}`, http.StatusBadRequest},
		{"NegativeProcessingTime", "/project/1", `{"nodes": [{"processing_time": -2}], "edges": []}`, http.StatusBadRequest},
		{"UnknownNodeType", "/project/1", `{"nodes": [{"node_type": "router"}], "edges": []}`, http.StatusBadRequest},
		{"UnknownProject", "/project/999999", `{"nodes": [], "edges": []}`, http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h, srv, ms := newTestHandler(t)
			if _, err := srv.CreateProject(context.Background(), "demo", ""); err != nil {
				t.Fatal(err)
			}
			w := doRequest(t, h, http.MethodPut, tc.path, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
			if tc.want == http.StatusBadRequest && ms.replaceCalls != 0 {
				t.Error("store touched on bad request")
			}
		})
	}
}

func TestHTTP_SaveProjectInternalError(t *testing.T) {
	h, srv, ms := newTestHandler(t)
	if _, err := srv.CreateProject(context.Background(), "demo", ""); err != nil {
		t.Fatal(err)
	}
	ms.replaceErr = errors.New("insert edge 0: fk violation")

	w := doRequest(t, h, http.MethodPut, "/project/1", `{"nodes": [{"label": "A"}], "edges": []}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody[map[string]string](t, w)
	if body["error"] == "" || !strings.Contains(body["details"], "fk violation") {
		t.Errorf("body = %v", body)
	}
}

func TestHTTP_Projects(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := doRequest(t, h, http.MethodGet, "/projects", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"projects":[]`) {
		t.Fatalf("empty list = %d %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodPost, "/projects", `{"name": "line", "description": "M/M/1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	p := decodeBody[model.Project](t, w)
	if p.ID != 1 || p.Description != "M/M/1" {
		t.Errorf("project = %+v", p)
	}

	if w := doRequest(t, h, http.MethodPost, "/projects", `{"name": ""}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank name = %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/projects", "")
	list := decodeBody[struct {
		Projects []model.Project `json:"projects"`
	}](t, w)
	if len(list.Projects) != 1 {
		t.Errorf("list = %+v", list)
	}
}

func TestHTTP_CORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer()
	h := srv.NewHTTPHandler([]string{"http://localhost:5173"})

	r := httptest.NewRequest(http.MethodOptions, "/project/1", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestHTTP_Metrics(t *testing.T) {
	h, _, _ := newTestHandler(t)
	doRequest(t, h, http.MethodGet, "/project/999", "")

	w := doRequest(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	out := w.Body.String()
	if !strings.Contains(out, `devsim_http_requests_total{method="GET",route="GET /project/{projectId}",status="404"} 1`) {
		t.Errorf("request counter missing:\n%s", out)
	}
}

type stubCompleter struct {
	reply string
	err   error
}

func (c stubCompleter) Complete(context.Context, string) (string, error) { return c.reply, c.err }

func newChatHandler(t *testing.T, c chat.Completer) http.Handler {
	t.Helper()
	ms := newMockStore()
	srv := NewGraphServer(ms, &recordingPublisher{},
		WithChat(chat.NewService(c, chat.NewMemoryHistory(0))))
	return srv.NewHTTPHandler(nil)
}

func TestHTTP_Chat(t *testing.T) {
	h := newChatHandler(t, stubCompleter{reply: "A generator emits jobs."})

	w := doRequest(t, h, http.MethodPost, "/api/chat", `{"message": "what is a generator?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	reply := decodeBody[chat.Reply](t, w)
	if reply.Text != "A generator emits jobs." || len(reply.Conversation) != 2 {
		t.Fatalf("reply = %+v", reply)
	}

	w = doRequest(t, h, http.MethodGet, "/api/conversation/"+reply.ConversationID, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "what is a generator?") {
		t.Fatalf("history = %d %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodDelete, "/api/conversation/"+reply.ConversationID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = doRequest(t, h, http.MethodGet, "/api/conversation/"+reply.ConversationID, "")
	if strings.Contains(w.Body.String(), "generator") {
		t.Errorf("history survived delete: %s", w.Body.String())
	}
}

func TestHTTP_ChatErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		comp chat.Completer
		body string
		want int
	}{
		{"MissingMessage", stubCompleter{}, `{}`, http.StatusBadRequest},
		{"InvalidJSON", stubCompleter{}, `nope`, http.StatusBadRequest},
		{"BreakerOpen", stubCompleter{err: chat.ErrUnavailable}, `{"message": "hi"}`, http.StatusServiceUnavailable},
		{"UpstreamFailure", stubCompleter{err: errors.New("quota")}, `{"message": "hi"}`, http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newChatHandler(t, tc.comp)
			w := doRequest(t, h, http.MethodPost, "/api/chat", tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestHTTP_ChatDisabled(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := doRequest(t, h, http.MethodPost, "/api/chat", `{"message": "hi"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHTTP_RecoversPanics(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}
