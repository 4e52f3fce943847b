package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/upload"
	"github.com/xuri/excelize/v2"
)

// newTestServer serves the admin routes without authentication next to the
// live ones.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		DBUrl:         filepath.Join(t.TempDir(), "test.sqlite"),
		MaxTextLength: 20,
		MaxUploadSize: 1 << 10,
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	uploads, err := upload.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}

	a := app.New(db, nil, cfg, uploads)
	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) { adminRoutes(r, a) })
	r.Route("/live/{hash}", func(r chi.Router) { liveRoutes(r, a) })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("content-type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	if out != nil && resp.StatusCode >= 400 {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

type fieldJSON struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
	Accepted []string `json:"accepted"`
}

type formJSON struct {
	ID     int64       `json:"id"`
	Title  string      `json:"title"`
	Fields []fieldJSON `json:"fields"`
}

type errorsJSON struct {
	Errors []struct {
		Kind    string `json:"kind"`
		Index   int    `json:"index"`
		FieldID int64  `json:"field_id"`
	} `json:"errors"`
}

func setupForm(t *testing.T, srv *httptest.Server) (string, formJSON) {
	t.Helper()
	var inst struct {
		Hash string `json:"hash"`
	}
	if code := call(t, srv, http.MethodPost, "/admin/instances", map[string]any{"name": "Spring"}, &inst); code != http.StatusCreated {
		t.Fatalf("create instance: status %d", code)
	}

	var f formJSON
	code := call(t, srv, http.MethodPost, "/admin/instances/"+inst.Hash+"/forms", map[string]any{
		"title": "Feedback",
		"fields": []map[string]any{
			{"title": "Name", "type": "short-text", "required": true},
			{"title": "Age", "type": "number"},
			{"title": "Pick", "type": "multioption-singleanswer", "options": []string{"a", "b", "c", "d"}},
			{"title": "Photo", "type": "file", "accepted": []string{"JPG"}},
		},
	}, &f)
	if code != http.StatusCreated {
		t.Fatalf("create form: status %d", code)
	}
	return inst.Hash, f
}

func TestCreateForm_ValidatesFields(t *testing.T) {
	srv := newTestServer(t)
	hash, f := setupForm(t, srv)

	if len(f.Fields) != 4 || f.Fields[3].Accepted[0] != "jpg" {
		t.Fatalf("unexpected form %#v", f)
	}

	var errs errorsJSON
	code := call(t, srv, http.MethodPost, "/admin/instances/"+hash+"/forms", map[string]any{
		"title":  "Broken",
		"fields": []map[string]any{{"title": "Age", "type": "number", "options": []string{"1"}}},
	}, &errs)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if len(errs.Errors) != 1 || errs.Errors[0].Kind != "invalid payload" || errs.Errors[0].Index != 0 {
		t.Fatalf("unexpected errors %#v", errs)
	}
}

func TestReplaceFields_ReportsIndex(t *testing.T) {
	srv := newTestServer(t)
	hash, f := setupForm(t, srv)
	path := fmt.Sprintf("/admin/instances/%s/forms/%d/fields", hash, f.ID)

	var errs errorsJSON
	code := call(t, srv, http.MethodPut, path, []map[string]any{
		{"title": "Ok", "type": "long-text"},
		{"title": "Bad", "type": "rating"},
	}, &errs)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if len(errs.Errors) != 1 || errs.Errors[0].Kind != "unknown field type" || errs.Errors[0].Index != 1 {
		t.Fatalf("unexpected errors %#v", errs)
	}

	var fields struct {
		Fields []fieldJSON `json:"fields"`
	}
	call(t, srv, http.MethodGet, path, nil, &fields)
	if diff := cmp.Diff(f.Fields, fields.Fields); diff != "" {
		t.Fatalf("fields changed (-want +got):\n%s", diff)
	}
}

func TestFieldRoutes(t *testing.T) {
	srv := newTestServer(t)
	hash, f := setupForm(t, srv)
	base := fmt.Sprintf("/admin/instances/%s/forms/%d/fields", hash, f.ID)

	var updated fieldJSON
	code := call(t, srv, http.MethodPatch, fmt.Sprintf("%s/%d", base, f.Fields[0].ID), map[string]any{"title": "Full name"}, &updated)
	if code != http.StatusOK || updated.Title != "Full name" || updated.Type != "short-text" || !updated.Required {
		t.Fatalf("unexpected update %d %#v", code, updated)
	}

	var moved formJSON
	code = call(t, srv, http.MethodPost, fmt.Sprintf("%s/%d/position", base, f.Fields[3].ID), map[string]any{"position": 0}, &moved)
	if code != http.StatusOK || moved.Fields[0].Title != "Photo" || moved.Fields[1].Title != "Full name" {
		t.Fatalf("unexpected move %d %#v", code, moved)
	}

	code = call(t, srv, http.MethodDelete, fmt.Sprintf("%s/%d", base, f.Fields[1].ID), nil, nil)
	if code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", code)
	}

	var errs errorsJSON
	code = call(t, srv, http.MethodDelete, fmt.Sprintf("%s/%d", base, f.Fields[1].ID), nil, &errs)
	if code != http.StatusNotFound || len(errs.Errors) != 1 || errs.Errors[0].Kind != "field not found" {
		t.Fatalf("second delete: unexpected %d %#v", code, errs)
	}
}

func TestSubmitResponse(t *testing.T) {
	srv := newTestServer(t)
	hash, f := setupForm(t, srv)
	name, age, pick := f.Fields[0].ID, f.Fields[1].ID, f.Fields[2].ID
	submit := fmt.Sprintf("/live/%s/forms/%d/responses", hash, f.ID)

	var errs errorsJSON
	code := call(t, srv, http.MethodPost, submit, map[string]any{
		"answers": []map[string]any{
			{"id": age, "value": "abc"},
			{"id": pick, "value": "e"},
		},
	}, &errs)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	kinds := []string{}
	for _, e := range errs.Errors {
		kinds = append(kinds, e.Kind)
	}
	want := []string{"missing required answer", "invalid answer value", "invalid answer value"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	code = call(t, srv, http.MethodPost, submit, map[string]any{
		"answers": []map[string]any{
			{"id": name, "value": "Ada"},
			{"id": age, "value": "42"},
			{"id": pick, "value": "b"},
		},
	}, &created)
	if code != http.StatusCreated || created.ID == 0 {
		t.Fatalf("expected 201, got %d", code)
	}

	var listed struct {
		Responses []struct {
			ID      int64 `json:"id"`
			Answers []struct {
				ID    int64 `json:"id"`
				Value any   `json:"value"`
			} `json:"answers"`
		} `json:"responses"`
	}
	call(t, srv, http.MethodGet, fmt.Sprintf("/admin/instances/%s/forms/%d/responses", hash, f.ID), nil, &listed)
	if len(listed.Responses) != 1 || len(listed.Responses[0].Answers) != 3 || listed.Responses[0].Answers[1].Value != 42.0 {
		t.Fatalf("unexpected responses %#v", listed)
	}
}

func TestUploadAndSubmitFile(t *testing.T) {
	srv := newTestServer(t)
	hash, f := setupForm(t, srv)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "me.jpg")
	part.Write([]byte("jpeg bytes"))
	mw.Close()

	resp, err := srv.Client().Post(srv.URL+"/live/"+hash+"/uploads", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", resp.StatusCode)
	}
	var artifact upload.Artifact
	if err := json.NewDecoder(resp.Body).Decode(&artifact); err != nil {
		t.Fatalf("decode: %v", err)
	}

	code := call(t, srv, http.MethodPost, fmt.Sprintf("/live/%s/forms/%d/responses", hash, f.ID), map[string]any{
		"answers": []map[string]any{
			{"id": f.Fields[0].ID, "value": "Ada"},
			{"id": f.Fields[3].ID, "value": artifact.ID},
		},
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d", code)
	}

	resp, err = srv.Client().Get(fmt.Sprintf("%s/admin/instances/%s/forms/%d/responses.xlsx", srv.URL, hash, f.ID))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	book, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer book.Close()
	cell, _ := book.GetCellValue("Sheet1", "F2")
	if cell != "me.jpg" {
		t.Fatalf("expected the file name in the export, got %q", cell)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	srv := newTestServer(t)
	hash, _ := setupForm(t, srv)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "big.pdf")
	part.Write(bytes.Repeat([]byte("x"), 2<<10))
	mw.Close()

	resp, err := srv.Client().Post(srv.URL+"/live/"+hash+"/uploads", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestUnknownInstanceAndForm(t *testing.T) {
	srv := newTestServer(t)
	hash, f := setupForm(t, srv)

	for _, path := range []string{
		"/live/nope/forms",
		fmt.Sprintf("/admin/instances/%s/forms/%d", hash, f.ID+1),
	} {
		if code := call(t, srv, http.MethodGet, path, nil, nil); code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, code)
		}
	}
}
