package schedule

import (
	"strings"

	"busstops/internal/transit"
)

// Separator between time labels in the editing form.
const Separator = ","

// Parse turns a comma separated list of time labels ("10:00, 10:30") into
// arrival records in textual order, all with StatusScheduled.
// Labels are trimmed but not validated. A fragment that is empty after
// trimming (e.g. "10:00,") still yields a record with an empty Time.
func Parse(raw string) []transit.ArrivalRecord {
	if raw == "" {
		return []transit.ArrivalRecord{}
	}
	parts := strings.Split(raw, Separator)
	out := make([]transit.ArrivalRecord, 0, len(parts))
	for _, p := range parts {
		out = append(out, transit.ArrivalRecord{
			Time:   strings.TrimSpace(p),
			Status: transit.StatusScheduled,
		})
	}
	return out
}

// Format renders records back into the editing form accepted by Parse.
func Format(records []transit.ArrivalRecord) string {
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.Time
	}
	return strings.Join(labels, Separator+" ")
}

// EmptyTimes counts records whose label is empty.
func EmptyTimes(records []transit.ArrivalRecord) int {
	n := 0
	for _, r := range records {
		if r.Time == "" {
			n++
		}
	}
	return n
}
