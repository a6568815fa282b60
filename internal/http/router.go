package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Planning    *PlanningHandler
	Allocations *AllocationHandler
	Reports     *ReportHandler
	Directory   *DirectoryHandler
	Metrics     http.Handler
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Planning != nil {
		mux.HandleFunc("/schedule-runs", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Planning.Schedule(w, r)
		})
	}

	if cfg.Directory != nil || cfg.Planning != nil {
		mux.HandleFunc("/persons", func(w http.ResponseWriter, r *http.Request) {
			if cfg.Directory == nil {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Directory.ListPersons(w, r)
			case http.MethodPost:
				cfg.Directory.CreatePerson(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/persons/", func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/persons/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))

			switch sub {
			case "":
				if cfg.Directory == nil {
					http.NotFound(w, r)
					return
				}
				switch r.Method {
				case http.MethodGet:
					cfg.Directory.GetPerson(w, r)
				case http.MethodPut:
					cfg.Directory.UpdatePerson(w, r)
				case http.MethodDelete:
					cfg.Directory.DeletePerson(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "free-intervals":
				if cfg.Planning == nil || r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Planning.FreeIntervals(w, r)
			case "capacity":
				if cfg.Planning == nil || r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Planning.Capacity(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Directory != nil || cfg.Reports != nil {
		mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
			if cfg.Directory == nil {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Directory.ListProjects(w, r)
			case http.MethodPost:
				cfg.Directory.CreateProject(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
			id, sub := splitResourcePath(r.URL.Path, "/projects/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))

			switch sub {
			case "":
				if cfg.Directory == nil {
					http.NotFound(w, r)
					return
				}
				switch r.Method {
				case http.MethodGet:
					cfg.Directory.GetProject(w, r)
				case http.MethodPut:
					cfg.Directory.UpdateProject(w, r)
				case http.MethodDelete:
					cfg.Directory.DeleteProject(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "scope":
				if cfg.Reports == nil || r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Reports.ScopeSummary(w, r)
			default:
				http.NotFound(w, r)
			}
		})
	}

	if cfg.Directory != nil {
		mux.HandleFunc("/work-items", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Directory.ListWorkItems(w, r)
			case http.MethodPost:
				cfg.Directory.CreateWorkItem(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/work-items/", func(w http.ResponseWriter, r *http.Request) {
			id, _ := splitResourcePath(r.URL.Path, "/work-items/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Directory.GetWorkItem(w, r)
			case http.MethodPut:
				cfg.Directory.UpdateWorkItem(w, r)
			case http.MethodDelete:
				cfg.Directory.DeleteWorkItem(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})

		mux.HandleFunc("/time-off", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Directory.CreateTimeOff(w, r)
		})
		mux.HandleFunc("/time-off/", func(w http.ResponseWriter, r *http.Request) {
			id, _ := splitResourcePath(r.URL.Path, "/time-off/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Directory.DeleteTimeOff(w, r)
		})

		mux.HandleFunc("/time-blocks/", func(w http.ResponseWriter, r *http.Request) {
			id, _ := splitResourcePath(r.URL.Path, "/time-blocks/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Directory.DeleteTimeBlock(w, r)
		})
	}

	if cfg.Allocations != nil {
		mux.HandleFunc("/allocations/percent", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Allocations.PutPercent(w, r)
		})
		mux.HandleFunc("/allocations/percent/", func(w http.ResponseWriter, r *http.Request) {
			id, _ := splitResourcePath(r.URL.Path, "/allocations/percent/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Allocations.DeletePercent(w, r)
		})
		mux.HandleFunc("/allocations/minutes", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Allocations.PutMinutes(w, r)
		})
		mux.HandleFunc("/allocations/minutes/", func(w http.ResponseWriter, r *http.Request) {
			id, _ := splitResourcePath(r.URL.Path, "/allocations/minutes/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Allocations.DeleteMinutes(w, r)
		})
	}

	if cfg.Reports != nil {
		mux.HandleFunc("/utilization", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reports.Utilization(w, r)
		})
	}

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

// splitResourcePath separates "/persons/p1/capacity" under prefix "/persons/"
// into id "p1" and sub-resource "capacity".
func splitResourcePath(path, prefix string) (id, sub string) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", ""
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[:idx], strings.Trim(rest[idx+1:], "/")
	}
	return rest, ""
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
