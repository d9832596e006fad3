package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/othala/internal/enrich"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

type fakeIGDB struct {
	byID map[string]*models.CatalogRecord
}

func (f *fakeIGDB) Provider() models.Provider { return models.ProviderIGDB }

func (f *fakeIGDB) Search(_ context.Context, _ string, _ int) ([]*models.CatalogRecord, error) {
	out := make([]*models.CatalogRecord, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeIGDB) GetByID(_ context.Context, id string) (*models.CatalogRecord, error) {
	return f.byID[id], nil
}

// testEnv sets up a temp vault, SQLite DB, services, and router.
// authEnabled=false means disabled mode; authEnabled=true with non-empty
// token means token mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "othala-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	igdb := &fakeIGDB{byID: map[string]*models.CatalogRecord{
		"1942": {
			Provider: models.ProviderIGDB,
			SourceID: "1942",
			Fields: map[string]any{
				"title":   "The Witcher 3",
				"igdb_id": int64(1942),
				"genres":  []string{"Role-playing (RPG)"},
			},
		},
	}}

	enrichSvc := enrich.New(enrich.Deps{
		Store:  store,
		Index:  db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		IGDB:   igdb,
	})

	svc := NewService(store, db, nil)
	router := NewRouter(svc, enrichSvc, authToken != "", authToken, nil, vaultDir, "assets/covers")
	return router, vaultDir
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetDocument(t *testing.T) {
	router, _ := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/documents", map[string]string{
		"path":    "games/doom.md",
		"content": "---\ntitle: Doom\ntags:\n  - game\n---\n# Doom\n",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/documents/games/doom.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var doc DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.Path != "games/doom.md" {
		t.Errorf("path = %q", doc.Path)
	}
	if doc.Title != "Doom" {
		t.Errorf("title = %q, want Doom", doc.Title)
	}
	if doc.Kind != "games" {
		t.Errorf("kind = %q, want games", doc.Kind)
	}
	if len(doc.Tags) != 1 || doc.Tags[0] != "game" {
		t.Errorf("tags = %v", doc.Tags)
	}
}

func TestCreateDuplicate(t *testing.T) {
	router, _ := testEnv(t, "")

	body := map[string]string{"path": "dup.md", "content": "a"}
	if w := doJSON(t, router, http.MethodPost, "/documents", body); w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodPost, "/documents", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router, _ := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/documents", map[string]string{"path": "lock.md", "content": "v1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var doc DocumentDetail
	_ = json.Unmarshal(w.Body.Bytes(), &doc)

	// Stale checksum is rejected.
	raw, _ := json.Marshal(map[string]string{"content": "v2"})
	req := httptest.NewRequest(http.MethodPut, "/documents/lock.md", bytes.NewReader(raw))
	req.Header.Set("If-Match", "deadbeef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update = %d, want 409", rec.Code)
	}

	// Matching checksum succeeds, quoted ETag form included.
	req = httptest.NewRequest(http.MethodPut, "/documents/lock.md", bytes.NewReader(raw))
	req.Header.Set("If-Match", `"`+doc.Checksum+`"`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", rec.Code, rec.Body.String())
	}
	var updated DocumentDetail
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Content != "v2" {
		t.Errorf("content = %q", updated.Content)
	}
}

func TestDeleteDocument(t *testing.T) {
	router, _ := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/documents", map[string]string{"path": "gone.md", "content": "x"})
	if w := doJSON(t, router, http.MethodDelete, "/documents/gone.md", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/documents/gone.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListDocumentsKindFilter(t *testing.T) {
	router, _ := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/documents", map[string]string{
		"path": "games/doom.md", "content": "---\ntitle: Doom\n---\n"})
	doJSON(t, router, http.MethodPost, "/documents", map[string]string{
		"path": "books/dune.md", "content": "---\ntitle: Dune\n---\n"})

	w := doJSON(t, router, http.MethodGet, "/documents?kind=books", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp struct {
		Documents []DocumentListItem `json:"documents"`
		Total     int                `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Documents) != 1 {
		t.Fatalf("total = %d, documents = %d", resp.Total, len(resp.Documents))
	}
	if resp.Documents[0].Path != "books/dune.md" {
		t.Errorf("path = %q", resp.Documents[0].Path)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/documents", map[string]string{
		"path": "games/quake.md", "content": "---\ntitle: Quake\n---\nFast arena shooter\n"})

	if w := doJSON(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/search?q=arena", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("games/quake.md")) {
		t.Errorf("search body = %s", w.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	router, _ := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAddGameEndpoint(t *testing.T) {
	router, _ := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/games", map[string]string{"igdb_id": "1942"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add game = %d, body = %s", w.Code, w.Body.String())
	}
	var res EnrichResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Path != "games/the-witcher-3.md" {
		t.Errorf("path = %q", res.Path)
	}

	// Unknown id maps to 404.
	w = doJSON(t, router, http.MethodPost, "/games", map[string]string{"igdb_id": "404"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id = %d, want 404", w.Code)
	}
}

func TestEnrichEndpointUpToDate(t *testing.T) {
	router, _ := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/games", map[string]string{"igdb_id": "1942"})

	w := doJSON(t, router, http.MethodPost, "/enrich", map[string]any{"path": "games/the-witcher-3.md"})
	if w.Code != http.StatusConflict {
		t.Fatalf("enrich without force = %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/enrich", map[string]any{"path": "games/the-witcher-3.md", "force": true})
	if w.Code != http.StatusOK {
		t.Errorf("forced enrich = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestPropertyEndpoints(t *testing.T) {
	router, _ := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/games", map[string]string{"igdb_id": "1942"})

	w := doJSON(t, router, http.MethodGet, "/properties", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("properties = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("igdb_id")) {
		t.Errorf("properties body = %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/properties/igdb_id/files", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("files = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("games/the-witcher-3.md")) {
		t.Errorf("files body = %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/properties/no_such_prop/values", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown property = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("games")) {
		t.Errorf("stats = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCoverServing(t *testing.T) {
	router, vaultDir := testEnv(t, "")

	coverDir := filepath.Join(vaultDir, "assets", "covers")
	if err := os.MkdirAll(coverDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(coverDir, "doom.jpg"), []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/covers/doom.jpg", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cover = %d", w.Code)
	}
	if w.Body.String() != "jpegdata" {
		t.Errorf("body = %q", w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/covers/..%2Fsecret.md", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("traversal = %d, want 400", w.Code)
	}
}

func TestMalformedHeaderRefusal(t *testing.T) {
	router, _ := testEnv(t, "")

	doJSON(t, router, http.MethodPost, "/documents", map[string]string{
		"path": "games/broken.md", "content": "---\ntitle: [unclosed\n"})

	w := doJSON(t, router, http.MethodPost, "/enrich", map[string]any{"path": "games/broken.md", "force": true})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed enrich = %d, want 422, body = %s", w.Code, w.Body.String())
	}
}
