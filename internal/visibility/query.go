package visibility

import (
	"strings"

	"github.com/spec-kit/incident-service/internal/domain"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// ParseQuery reads list filters from query string values. Enum filters accept
// comma separated values and reject anything outside their set.
func ParseQuery(values map[string]string) (Query, error) {
	var q Query
	for _, part := range splitList(values["status"]) {
		s := domain.Status(part)
		if !s.Valid() {
			return Query{}, invalidValue("status", part)
		}
		q.Statuses = append(q.Statuses, s)
	}
	for _, part := range splitList(values["priority"]) {
		p := domain.Priority(part)
		if !p.Valid() {
			return Query{}, invalidValue("priority", part)
		}
		q.Priorities = append(q.Priorities, p)
	}
	for _, part := range splitList(values["sector"]) {
		s := domain.Sector(part)
		if !s.Valid() {
			return Query{}, invalidValue("sector", part)
		}
		q.Sectors = append(q.Sectors, s)
	}
	q.SubCategory = strings.TrimSpace(values["subCategory"])
	q.AssignedStaffID = strings.TrimSpace(values["assignedStaffId"])
	q.Search = strings.TrimSpace(values["q"])
	return q, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func invalidValue(field, value string) error {
	return apperrors.NewValidationError("invalid "+field+" filter", map[string]any{field: value})
}
