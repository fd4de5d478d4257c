package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ravlen/upkeep/internal/api"
	"github.com/ravlen/upkeep/internal/maintsvc"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
	"github.com/ravlen/upkeep/internal/testutil"
)

func newTestServer(t *testing.T) (chi.Router, *store.DB) {
	t.Helper()
	db := testutil.TestStore(t)
	svc := maintsvc.NewService(db, nil)
	_, fs := testutil.TestAttachments(t)
	ah := api.NewAttachmentHandler(fs)
	return api.NewRouter(svc, ah, api.AuthDisabled, "", "", nil), db
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return out
}

func recordPayload() map[string]any {
	return map[string]any{
		"title":          "Replace air filters",
		"scheduled_date": "2024-03-20T09:00",
		"frequency":      "monthly",
	}
}

func TestCreateAndGetRecord(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/maintenance", recordPayload())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := decode(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created record has no id")
	}
	if created["status"] != "pending" && created["status"] != "overdue" {
		t.Errorf("status = %v", created["status"])
	}

	w = doJSON(t, r, http.MethodGet, "/maintenance/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	got := decode(t, w)
	if got["title"] != "Replace air filters" {
		t.Errorf("title = %v", got["title"])
	}
}

func TestCreateValidationErrors(t *testing.T) {
	r, _ := newTestServer(t)

	payload := recordPayload()
	delete(payload, "title")
	w := doJSON(t, r, http.MethodPost, "/maintenance", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decode(t, w)
	fields, _ := body["fields"].(map[string]any)
	if _, ok := fields["title"]; !ok {
		t.Errorf("fields = %v, want title entry", fields)
	}
}

func TestCreateRejectsCompletedDate(t *testing.T) {
	r, _ := newTestServer(t)

	payload := recordPayload()
	payload["completed_date"] = "2024-03-21T10:00"
	w := doJSON(t, r, http.MethodPost, "/maintenance", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decode(t, w)
	fields, _ := body["fields"].(map[string]any)
	if _, ok := fields["completed_date"]; !ok {
		t.Errorf("fields = %v, want completed_date entry", fields)
	}
}

func TestCreateInvalidJSON(t *testing.T) {
	r, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/maintenance", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	r, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/maintenance/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateRecord(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/maintenance", recordPayload())
	id := decode(t, w)["id"].(string)

	payload := recordPayload()
	payload["title"] = "Replace air filters (east wing)"
	payload["completed_date"] = "2024-03-22T10:00"
	w = doJSON(t, r, http.MethodPut, "/maintenance/"+id, payload)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	got := decode(t, w)
	if got["title"] != "Replace air filters (east wing)" {
		t.Errorf("title = %v", got["title"])
	}
	if got["status"] != "completed" {
		t.Errorf("status = %v, want completed", got["status"])
	}
}

func TestDeleteRecord(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/maintenance", recordPayload())
	id := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodDelete, "/maintenance/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/maintenance/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestCompleteFlow(t *testing.T) {
	r, _ := newTestServer(t)

	payload := recordPayload()
	payload["scheduled_date"] = "2024-01-01T09:00"
	w := doJSON(t, r, http.MethodPost, "/maintenance", payload)
	id := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/maintenance/"+id+"/complete",
		map[string]any{"completed_date": "2024-01-05T09:00"})
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["next_scheduled_date"] != "2024-02-05T09:00" {
		t.Errorf("next_scheduled_date = %v", body["next_scheduled_date"])
	}
	rec, _ := body["record"].(map[string]any)
	if rec["status"] != "completed" {
		t.Errorf("record status = %v", rec["status"])
	}

	// Completing twice is a conflict.
	w = doJSON(t, r, http.MethodPost, "/maintenance/"+id+"/complete",
		map[string]any{"completed_date": "2024-01-06T09:00"})
	if w.Code != http.StatusConflict {
		t.Errorf("second complete = %d, want 409", w.Code)
	}
}

func TestCompleteOutsideWindow(t *testing.T) {
	r, _ := newTestServer(t)

	payload := recordPayload()
	payload["scheduled_date"] = "2024-01-01T09:00"
	w := doJSON(t, r, http.MethodPost, "/maintenance", payload)
	id := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/maintenance/"+id+"/complete",
		map[string]any{"completed_date": "2024-02-15T09:00"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListWithFilter(t *testing.T) {
	r, _ := newTestServer(t)

	a := recordPayload()
	a["frequency"] = "weekly"
	doJSON(t, r, http.MethodPost, "/maintenance", a)
	doJSON(t, r, http.MethodPost, "/maintenance", recordPayload())

	w := doJSON(t, r, http.MethodGet, "/maintenance?frequency=weekly", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	body := decode(t, w)
	if total, _ := body["total"].(float64); total != 1 {
		t.Errorf("total = %v, want 1", body["total"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	doJSON(t, r, http.MethodPost, "/maintenance", recordPayload())

	w := doJSON(t, r, http.MethodGet, "/maintenance/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	body := decode(t, w)
	if total, _ := body["total"].(float64); total != 1 {
		t.Errorf("total = %v, want 1", body["total"])
	}
	if _, ok := body["by_frequency"].(map[string]any); !ok {
		t.Errorf("by_frequency missing: %v", body)
	}
}

func TestSearchEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	payload := recordPayload()
	payload["notes"] = "swap the filter cartridges"
	doJSON(t, r, http.MethodPost, "/maintenance", payload)

	w := doJSON(t, r, http.MethodGet, "/maintenance/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/maintenance/search?q=filter", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	body := decode(t, w)
	results, _ := body["results"].([]any)
	if len(results) != 1 {
		t.Errorf("results = %v, want 1 hit", results)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	r, db := newTestServer(t)

	machines := []models.MachineSummary{
		{ID: "mach-1", Name: "Air handler", GroupID: "hvac", PropertyID: "prop-1"},
	}
	templates := []models.TaskTemplate{
		{ID: "tmpl-1", Name: "Replace filters", GroupID: "hvac", Frequency: models.FreqQuarterly},
		{ID: "tmpl-2", Name: "Inspect seals", GroupID: "plumbing", Frequency: models.FreqMonthly},
	}
	topics := []models.Topic{{ID: "topic-1", Name: "Safety"}}
	if err := db.ReplaceCatalog(machines, templates, topics); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodGet, "/machines", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("machines status = %d", w.Code)
	}
	if got, _ := decode(t, w)["machines"].([]any); len(got) != 1 {
		t.Errorf("machines = %v", got)
	}

	w = doJSON(t, r, http.MethodGet, "/machines/mach-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("machine status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/templates", nil)
	if got, _ := decode(t, w)["templates"].([]any); len(got) != 2 {
		t.Errorf("templates = %v", got)
	}

	w = doJSON(t, r, http.MethodGet, "/topics", nil)
	if got, _ := decode(t, w)["topics"].([]any); len(got) != 1 {
		t.Errorf("topics = %v", got)
	}

	// Matching narrows to the machine's group.
	w = doJSON(t, r, http.MethodPost, "/templates/match",
		map[string]any{"machine_ids": []string{"mach-1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("match status = %d", w.Code)
	}
	matched, _ := decode(t, w)["templates"].([]any)
	if len(matched) != 1 {
		t.Fatalf("matched = %v, want 1", matched)
	}

	// Draft from template.
	w = doJSON(t, r, http.MethodGet, "/templates/tmpl-1/draft", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("draft status = %d", w.Code)
	}
	draft := decode(t, w)
	if draft["title"] != "Replace filters" || draft["frequency"] != "quarterly" {
		t.Errorf("draft = %v", draft)
	}
}

func TestReportEndpoint(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/maintenance", recordPayload())
	id := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodGet, "/maintenance/"+id+"/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Replace air filters") {
		t.Error("report body missing record title")
	}
}

func TestAuthToken(t *testing.T) {
	db := testutil.TestStore(t)
	svc := maintsvc.NewService(db, nil)
	r := api.NewRouter(svc, nil, api.AuthToken, "sekrit", "", nil)

	w := doJSON(t, r, http.MethodGet, "/maintenance", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no header = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/maintenance", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/maintenance", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthJWT(t *testing.T) {
	db := testutil.TestStore(t)
	svc := maintsvc.NewService(db, nil)
	r := api.NewRouter(svc, nil, api.AuthJWT, "", "jwt-secret", nil)

	sign := func(secret string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "tester",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	req := httptest.NewRequest(http.MethodGet, "/maintenance", nil)
	req.Header.Set("Authorization", "Bearer "+sign("jwt-secret"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid jwt = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/maintenance", nil)
	req.Header.Set("Authorization", "Bearer "+sign("other-secret"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("forged jwt = %d, want 401", w.Code)
	}
}

func uploadFile(t *testing.T, r http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAttachmentUploadAndServe(t *testing.T) {
	r, _ := newTestServer(t)

	w := uploadFile(t, r, "before.png", []byte{0x89, 'P', 'N', 'G'})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["filename"] != "before.png" {
		t.Errorf("filename = %v", body["filename"])
	}
	if body["url"] != "/attachments/before.png" {
		t.Errorf("url = %v", body["url"])
	}
	if sum, _ := body["checksum"].(string); sum == "" {
		t.Error("checksum missing")
	}

	w = doJSON(t, r, http.MethodGet, "/attachments/before.png", nil)
	if w.Code != http.StatusOK {
		t.Errorf("serve status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/attachments/missing.png", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}

func TestAttachmentUploadRejections(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name     string
		filename string
		content  []byte
	}{
		{"unsupported extension", "report.pdf", []byte("%PDF-1.4")},
		{"empty file", "empty.png", nil},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := uploadFile(t, r, tc.filename, tc.content)
			if w.Code != http.StatusBadRequest {
				t.Errorf("case %d status = %d, want 400", i, w.Code)
			}
		})
	}

	// Missing file field entirely.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "value")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
