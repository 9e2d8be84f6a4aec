package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kestrelcrm/kestrel/internal/assess"
	"github.com/kestrelcrm/kestrel/internal/middleware"
	"github.com/kestrelcrm/kestrel/internal/services"
)

type Router struct {
	assessments *services.AssessmentService
	responses   *services.ResponseService
	directory   *services.DirectoryService
	auth        *services.AuthService
}

func NewRouter(assessments *services.AssessmentService, responses *services.ResponseService, dir *services.DirectoryService, auth *services.AuthService) *Router {
	return &Router{assessments: assessments, responses: responses, directory: dir, auth: auth}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)       // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)             // POST
	mux.HandleFunc("/api/assessments", rt.handleAssessments)      // GET list, POST save
	mux.HandleFunc("/api/assessments/blank", rt.handleBlank)      // GET starter CSV
	mux.HandleFunc("/api/assessments/import", rt.handleImport)    // POST CSV body
	mux.HandleFunc("/api/assessments/", rt.handleAssessmentScope) // id-scoped routes
	mux.HandleFunc("/api/companies", rt.handleCompanies)          // GET list, POST create
	mux.HandleFunc("/api/companies/", rt.handleCompanyScope)      // id-scoped routes
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID})
}

// GET/POST /api/assessments
func (rt *Router) handleAssessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		defs, err := rt.assessments.ListDefinitions()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, defs)
	case http.MethodPost:
		if !requireUser(w, r) {
			return
		}
		var def assess.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		saved, err := rt.assessments.SaveDefinition(&def)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, saved)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/assessments/blank: starter CSV with one field of each kind
func (rt *Router) handleBlank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeCSV(w, "blank_template.csv", rt.assessments.BlankCSV())
}

// POST /api/assessments/import: body is the CSV file (either format)
func (rt *Router) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !requireUser(w, r) {
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	def, err := rt.assessments.ImportCSV(data)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, def)
}

// Routes under /api/assessments/{id}:
//
//	GET    /api/assessments/{id}
//	DELETE /api/assessments/{id}
//	GET    /api/assessments/{id}/export
//	POST   /api/assessments/{id}/responses
//	GET    /api/assessments/{id}/responses/latest
//	GET    /api/assessments/{id}/summary
func (rt *Router) handleAssessmentScope(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assessments/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			def, err := rt.assessments.GetDefinition(id)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, def)
		case http.MethodDelete:
			if !requireUser(w, r) {
				return
			}
			if err := rt.assessments.DeleteDefinition(id); err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, map[string]any{"ok": true})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "export":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		data, err := rt.assessments.ExportCSV(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeCSV(w, "assessment.csv", data)
	case len(parts) == 2 && parts[1] == "responses":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !requireUser(w, r) {
			return
		}
		var req struct {
			CompanyID string                       `json:"company_id"`
			Values    map[string]assess.FieldValue `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := rt.responses.Submit(id, req.CompanyID, req.Values)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, resp)
	case len(parts) == 3 && parts[1] == "responses" && parts[2] == "latest":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp, err := rt.responses.Latest(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if resp == nil {
			http.Error(w, "no responses", http.StatusNotFound)
			return
		}
		writeJSON(w, resp)
	case len(parts) == 2 && parts[1] == "summary":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rows, err := rt.responses.Summary(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, rows)
	default:
		http.NotFound(w, r)
	}
}

// GET/POST /api/companies
func (rt *Router) handleCompanies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cs, err := rt.directory.ListCompanies()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, cs)
	case http.MethodPost:
		if !requireUser(w, r) {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c, err := rt.directory.CreateCompany(req.Name)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, c)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Routes under /api/companies/{id}:
//
//	GET /api/companies/{id}
//	GET /api/companies/{id}/responses
func (rt *Router) handleCompanyScope(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/companies/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	switch {
	case len(parts) == 1:
		c, err := rt.directory.GetCompany(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, c)
	case len(parts) == 2 && parts[1] == "responses":
		rs, err := rt.responses.ForCompany(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, rs)
	default:
		http.NotFound(w, r)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(data)
}

func writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		}
		http.Error(w, se.Message, status)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
