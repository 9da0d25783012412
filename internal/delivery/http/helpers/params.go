package helpers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"eventhub/internal/domain"
)

// PathID parses the named path value as a positive int64. On failure it writes a 400
// and returns false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}

// ParseFrame reads ?frame=upcoming|past. A missing value means upcoming.
func ParseFrame(w http.ResponseWriter, r *http.Request) (domain.TimeFrame, bool) {
	raw := r.URL.Query().Get("frame")
	frame, ok := domain.ParseTimeFrame(strings.ToLower(raw))
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("invalid frame %q", raw))
		return 0, false
	}
	return frame, true
}

// ParseSpecializations reads a comma-separated ?specialization= filter.
func ParseSpecializations(w http.ResponseWriter, r *http.Request) ([]domain.Specialization, bool) {
	var out []domain.Specialization
	for _, v := range r.URL.Query()["specialization"] {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			sp, err := domain.ParseSpecialization(name)
			if err != nil {
				WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
				return nil, false
			}
			out = append(out, sp)
		}
	}
	return out, true
}
