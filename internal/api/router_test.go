package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kestrelcrm/kestrel/internal/assess"
	"github.com/kestrelcrm/kestrel/internal/middleware"
	"github.com/kestrelcrm/kestrel/internal/services"
	"github.com/kestrelcrm/kestrel/internal/store"
)

// memDirectory backs the directory and auth services without sqlite.
type memDirectory struct {
	companies map[string]*services.Company
	users     map[string]*services.User
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		companies: map[string]*services.Company{},
		users:     map[string]*services.User{},
	}
}

func (m *memDirectory) AddCompany(c *services.Company) error {
	copy := *c
	m.companies[c.ID] = &copy
	return nil
}

func (m *memDirectory) GetCompany(id string) (*services.Company, error) {
	if c, ok := m.companies[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, nil
}

func (m *memDirectory) FindCompanyByName(name string) (*services.Company, error) {
	for _, c := range m.companies {
		if c.Name == name {
			copy := *c
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *memDirectory) ListCompanies() ([]*services.Company, error) {
	out := []*services.Company{}
	for _, c := range m.companies {
		copy := *c
		out = append(out, &copy)
	}
	return out, nil
}

func (m *memDirectory) FindUserByEmail(email string) (*services.User, error) {
	if u, ok := m.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (m *memDirectory) AddUser(u *services.User) error {
	copy := *u
	m.users[u.Email] = &copy
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	root := t.TempDir()
	defs := store.NewDefinitionStore(filepath.Join(root, "Assessments"))
	resps := store.NewResponseStore(defs.Root())
	dir := newMemDirectory()

	rt := NewRouter(
		services.NewAssessmentService(defs),
		services.NewResponseService(defs, resps),
		services.NewDirectoryService(dir),
		services.NewAuthService(dir, middleware.SignToken),
	)
	mux := http.NewServeMux()
	rt.Register(mux)
	srv := httptest.NewServer(middleware.WithAuth(mux))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return res
}

func registerTestUser(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"email":    "tester@example.com",
		"password": "secret123",
	}, &res)
	if r.StatusCode != http.StatusOK || res.Token == "" {
		t.Fatalf("register: status %d token %q", r.StatusCode, res.Token)
	}
	return res.Token
}

func TestAssessmentLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	def := assess.Definition{
		Title: "Network Audit",
		Sections: []assess.SectionDefinition{{
			Title: "WAN",
			Fields: []assess.FieldDefinition{
				{Title: "Carrier", Kind: assess.KindText},
				{Title: "Redundant?", Kind: assess.KindYesNo},
			},
		}},
	}
	var saved assess.Definition
	res := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", token, def, &saved)
	if res.StatusCode != http.StatusOK || saved.ID == "" {
		t.Fatalf("save: status %d, id %q", res.StatusCode, saved.ID)
	}

	var list []assess.Definition
	if res := doJSON(t, http.MethodGet, srv.URL+"/api/assessments", "", nil, &list); res.StatusCode != http.StatusOK {
		t.Fatalf("list: %d", res.StatusCode)
	}
	if len(list) != 1 || list[0].Title != "Network Audit" {
		t.Errorf("list = %+v", list)
	}

	res = doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+saved.ID+"/export", "", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("export: %d", res.StatusCode)
	}

	res = doJSON(t, http.MethodDelete, srv.URL+"/api/assessments/"+saved.ID, token, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d", res.StatusCode)
	}
	res = doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+saved.ID, "", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: %d, want 404", res.StatusCode)
	}
}

func TestWriteEndpointsRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	var saved assess.Definition
	if res := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", token, assess.Definition{
		Title:    "Guarded",
		Sections: []assess.SectionDefinition{{Title: "S", Fields: []assess.FieldDefinition{{Title: "F", Kind: assess.KindText}}}},
	}, &saved); res.StatusCode != http.StatusOK {
		t.Fatalf("setup save: %d", res.StatusCode)
	}

	res := doJSON(t, http.MethodPost, srv.URL+"/api/assessments", "", assess.Definition{Title: "X"}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("save without token: %d, want 401", res.StatusCode)
	}
	res = doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+saved.ID+"/responses", "", map[string]any{
		"company_id": "acme",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("submit without token: %d, want 401", res.StatusCode)
	}
	res = doJSON(t, http.MethodDelete, srv.URL+"/api/assessments/"+saved.ID, "", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("delete without token: %d, want 401", res.StatusCode)
	}
	res = doJSON(t, http.MethodPost, srv.URL+"/api/companies", "", map[string]string{"name": "X"}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Errorf("create company without token: %d, want 401", res.StatusCode)
	}
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/assessments/import", strings.NewReader("TemplateTitle,T\n"))
	r2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	r2.Body.Close()
	if r2.StatusCode != http.StatusUnauthorized {
		t.Errorf("import without token: %d, want 401", r2.StatusCode)
	}
}

func TestImportCSVEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	csv := "TemplateTitle,Imported\nSection,Main\nField,Notes,3\n"
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/assessments/import", strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("import: %d", res.StatusCode)
	}
	var def assess.Definition
	if err := json.NewDecoder(res.Body).Decode(&def); err != nil {
		t.Fatal(err)
	}
	if def.Title != "Imported" || len(def.Sections) != 1 {
		t.Errorf("imported = %+v", def)
	}
}

func TestSubmitLatestAndSummary(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	var saved assess.Definition
	doJSON(t, http.MethodPost, srv.URL+"/api/assessments", token, assess.Definition{
		Title: "Review",
		Sections: []assess.SectionDefinition{{
			Title:  "General",
			Fields: []assess.FieldDefinition{{Title: "Notes", Kind: assess.KindText}},
		}},
	}, &saved)
	fieldID := saved.Sections[0].Fields[0].ID

	text := "looks fine"
	var resp assess.Response
	res := doJSON(t, http.MethodPost, srv.URL+"/api/assessments/"+saved.ID+"/responses", token, map[string]any{
		"company_id": "acme",
		"values":     map[string]assess.FieldValue{fieldID: {Text: &text}},
	}, &resp)
	if res.StatusCode != http.StatusOK || resp.ID == "" {
		t.Fatalf("submit: status %d, resp %+v", res.StatusCode, resp)
	}

	var latest assess.Response
	if res := doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+saved.ID+"/responses/latest", "", nil, &latest); res.StatusCode != http.StatusOK {
		t.Fatalf("latest: %d", res.StatusCode)
	}
	if v := latest.Values[fieldID]; v.Text == nil || *v.Text != text {
		t.Errorf("latest value = %+v", v)
	}

	var rows []services.RenderedField
	if res := doJSON(t, http.MethodGet, srv.URL+"/api/assessments/"+saved.ID+"/summary", "", nil, &rows); res.StatusCode != http.StatusOK {
		t.Fatalf("summary: %d", res.StatusCode)
	}
	if len(rows) != 1 || rows[0].Value != "looks fine" {
		t.Errorf("summary = %+v", rows)
	}
}

func TestCompanyEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	var created services.Company
	res := doJSON(t, http.MethodPost, srv.URL+"/api/companies", token, map[string]string{"name": "Acme Corp"}, &created)
	if res.StatusCode != http.StatusOK || created.ID == "" {
		t.Fatalf("create: status %d, %+v", res.StatusCode, created)
	}

	var got services.Company
	if res := doJSON(t, http.MethodGet, srv.URL+"/api/companies/"+created.ID, "", nil, &got); res.StatusCode != http.StatusOK {
		t.Fatalf("get: %d", res.StatusCode)
	}
	if got.Name != "Acme Corp" {
		t.Errorf("got %+v", got)
	}

	if res := doJSON(t, http.MethodGet, srv.URL+"/api/companies/nope", "", nil, nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("missing company: %d, want 404", res.StatusCode)
	}

	if res := doJSON(t, http.MethodPost, srv.URL+"/api/companies", token, map[string]string{"name": "Acme Corp"}, nil); res.StatusCode != http.StatusConflict {
		t.Errorf("duplicate company: %d, want 409", res.StatusCode)
	}
}
