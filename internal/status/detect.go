package status

// changed reports whether cur differs from prev in observable state:
// lifecycle, reachability, endpoint, or the ordered port mappings.
// CheckedAt and ErrorDetail are metadata and excluded so that routine
// re-checks confirming an unchanged unit do not fire events.
func changed(prev *Record, cur Record) bool {
	if prev == nil {
		return true
	}
	if prev.Lifecycle != cur.Lifecycle {
		return true
	}
	if prev.Reachability != cur.Reachability {
		return true
	}
	if prev.Endpoint != cur.Endpoint {
		return true
	}
	if len(prev.Ports) != len(cur.Ports) {
		return true
	}
	for i := range cur.Ports {
		if prev.Ports[i] != cur.Ports[i] {
			return true
		}
	}
	return false
}
