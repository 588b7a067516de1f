package domain

// DeduplicateAlerts collapses alerts gathered from overlapping per-site
// queries into one entry per (event, headline). The first occurrence keeps
// its fields and position; areas from later duplicates are unioned into it.
// The input slice and its area slices are not modified.
func DeduplicateAlerts(alerts []NormalizedAlert) []NormalizedAlert {
	out := make([]NormalizedAlert, 0, len(alerts))
	index := make(map[dedupeKey]int, len(alerts))
	seenAreas := make([]map[string]struct{}, 0, len(alerts))

	for _, alert := range alerts {
		k := alert.key()
		if i, ok := index[k]; ok {
			for _, area := range alert.Areas {
				if _, dup := seenAreas[i][area]; dup {
					continue
				}
				seenAreas[i][area] = struct{}{}
				out[i].Areas = append(out[i].Areas, area)
			}
			continue
		}

		areas := make([]string, 0, len(alert.Areas))
		set := make(map[string]struct{}, len(alert.Areas))
		for _, area := range alert.Areas {
			if _, dup := set[area]; dup {
				continue
			}
			set[area] = struct{}{}
			areas = append(areas, area)
		}
		alert.Areas = areas

		index[k] = len(out)
		out = append(out, alert)
		seenAreas = append(seenAreas, set)
	}
	return out
}
