package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/imgix/contentful/internal/params"
)

// handleReduceParams applies the add/remove parameter algebra to an asset
// URL. The parameter record in the response is always re-derived from the
// resulting URL, so the two never drift apart.
func (s *Server) handleReduceParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Src     string                 `json:"src"`
		Updates map[string]interface{} `json:"updates"`
		Action  string                 `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Src == "" {
		s.writeError(w, http.StatusBadRequest, "src is required")
		return
	}

	action := params.Action(body.Action)
	if action != params.ActionAdd && action != params.ActionRemove {
		s.writeError(w, http.StatusBadRequest, `action must be "add" or "remove"`)
		return
	}

	updates := make(params.Updates, len(body.Updates))
	for key, raw := range body.Updates {
		switch v := raw.(type) {
		case string:
			updates[key] = params.String(v)
		case bool:
			updates[key] = params.Bool(v)
		case float64:
			// JSON numbers arrive as float64; imgix params are strings on
			// the wire either way.
			updates[key] = params.String(trimFloat(v))
		default:
			s.writeError(w, http.StatusBadRequest, "update values must be strings, booleans, or numbers")
			return
		}
	}

	base, p := params.SplitURL(body.Src)
	reduced := params.Reduce(p, updates, action)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"src":         params.JoinURL(base, reduced),
		"imgixParams": params.GroupByKey(reduced),
	})
}

func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
