package mocksplunk

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler serves the splunkd job API surface over a JobStore.
func Handler(store *JobStore) http.Handler {
	r := chi.NewRouter()

	r.Post("/services/search/v2/jobs", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		search := req.PostFormValue("search")
		if search == "" {
			writeError(w, http.StatusBadRequest, "search is required")
			return
		}
		rec := store.Create(search)
		writeJSON(w, http.StatusCreated, map[string]any{"sid": rec.SID})
	})

	r.Get("/services/search/v2/jobs/{sid}", func(w http.ResponseWriter, req *http.Request) {
		sid := pathSID(req)
		content, ok := store.Observe(sid)
		if !ok {
			writeError(w, http.StatusNotFound, "Unknown sid.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entry": []any{
				map[string]any{"name": sid, "content": content},
			},
		})
	})

	r.Get("/services/search/v2/jobs/{sid}/summary", func(w http.ResponseWriter, req *http.Request) {
		if store.Get(pathSID(req)) == nil {
			writeError(w, http.StatusNotFound, "Unknown sid.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"fields": map[string]any{}})
	})

	r.Post("/services/search/jobs/{sid}/control", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		action := req.PostFormValue("action")
		ttl := -1
		if v := req.PostFormValue("ttl"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid ttl")
				return
			}
			ttl = parsed
		}

		found, ok := store.Control(pathSID(req), action, ttl)
		if !found {
			writeError(w, http.StatusNotFound, "Unknown sid.")
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid action: "+action)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"messages": []any{map[string]any{"type": "INFO", "text": action + " acknowledged"}},
		})
	})

	r.Delete("/services/search/jobs/{sid}", func(w http.ResponseWriter, req *http.Request) {
		if !store.Delete(pathSID(req)) {
			writeError(w, http.StatusNotFound, "Unknown sid.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	r.Get("/services/search/jobs", func(w http.ResponseWriter, req *http.Request) {
		count := intQuery(req, "count", 50)
		offset := intQuery(req, "offset", 0)

		all := store.ListContent()
		if offset > len(all) {
			offset = len(all)
		}
		end := offset + count
		if count <= 0 || end > len(all) {
			end = len(all)
		}

		entries := make([]any, 0, end-offset)
		for _, content := range all[offset:end] {
			entries = append(entries, map[string]any{
				"name":    content["sid"],
				"content": content,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entries})
	})

	return r
}

// pathSID decodes the percent-encoded sid path segment. Path decoding,
// not query decoding: a literal + in a sid must stay a +.
func pathSID(req *http.Request) string {
	raw := chi.URLParam(req, "sid")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func intQuery(req *http.Request, key string, fallback int) int {
	v := req.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError mirrors splunkd's error body shape.
func writeError(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, map[string]any{
		"messages": []any{map[string]any{"type": "ERROR", "text": text}},
	})
}
