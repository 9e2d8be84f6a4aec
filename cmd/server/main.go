package main

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kestrelcrm/kestrel/internal/api"
	"github.com/kestrelcrm/kestrel/internal/assess"
	"github.com/kestrelcrm/kestrel/internal/directory"
	"github.com/kestrelcrm/kestrel/internal/middleware"
	"github.com/kestrelcrm/kestrel/internal/services"
	"github.com/kestrelcrm/kestrel/internal/store"
	"github.com/kestrelcrm/kestrel/internal/utils"
)

func main() {
	addr := utils.SafeEnv("KESTREL_ADDR", ":8080")
	dataDir := utils.SafeEnv("KESTREL_DATA_DIR", "data")
	dbPath := utils.SafeEnv("KESTREL_DIRECTORY_DB", filepath.Join(dataDir, "directory.db"))
	commit := utils.SafeEnv("KESTREL_COMMIT", "")
	buildTime := utils.SafeEnv("KESTREL_BUILD_TIME", "")

	dir, err := directory.Open(dbPath)
	if err != nil {
		log.Fatalf("open directory db: %v", err)
	}
	defer func() {
		if cerr := dir.Close(); cerr != nil {
			log.Printf("warning: failed to close directory db: %v", cerr)
		}
	}()

	defStore := store.NewDefinitionStore(filepath.Join(dataDir, "Assessments"))
	respStore := store.NewResponseStore(defStore.Root())
	if err := store.EnsureSeed(defStore, starterDefinition()); err != nil {
		log.Fatalf("seed starter assessment: %v", err)
	}

	assessments := services.NewAssessmentService(defStore)
	responses := services.NewResponseService(defStore, respStore)
	companies := services.NewDirectoryService(dir)
	auth := services.NewAuthService(dir, middleware.SignToken)

	mux := http.NewServeMux()
	api.NewRouter(assessments, responses, companies, auth).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Kestrel API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	handler := middleware.WithAuth(mux)

	log.Printf("Kestrel server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// starterDefinition is the bundled first-run template. Ids are fixed so
// responses captured against it stay addressable across reinstalls.
func starterDefinition() *assess.Definition {
	return &assess.Definition{
		ID:    "seed-it-assessment",
		Title: "Customer IT Assessment",
		Sections: []assess.SectionDefinition{
			{
				ID:    "seed-sec-environment",
				Title: "Environment",
				Fields: []assess.FieldDefinition{
					{ID: "seed-f-users", Title: "User Count", Kind: assess.KindNumber},
					{ID: "seed-f-notes", Title: "Notes", Kind: assess.KindText},
					{ID: "seed-f-backup", Title: "Offsite Backups?", Kind: assess.KindYesNo},
				},
			},
			{
				ID:    "seed-sec-security",
				Title: "Security",
				Fields: []assess.FieldDefinition{
					{ID: "seed-f-mfa", Title: "Has MFA?", Kind: assess.KindYesNo},
					{ID: "seed-f-av", Title: "Endpoint Protection", Kind: assess.KindMultipleChoice, Options: []assess.FieldOption{
						{ID: "seed-o-av-none", Title: "None"},
						{ID: "seed-o-av-basic", Title: "Basic AV"},
						{ID: "seed-o-av-edr", Title: "Managed EDR"},
					}},
					{ID: "seed-f-review", Title: "Last Review", Kind: assess.KindDate},
				},
			},
		},
	}
}
