package materials

import "github.com/google/uuid"

// ReconcileOrder returns submitted filtered to ids present in valued, followed
// by valued ids missing from submitted in their given order. The result has no
// duplicates and holds exactly the ids of valued.
func ReconcileOrder(submitted, valued []uuid.UUID) []uuid.UUID {
	has := make(map[uuid.UUID]struct{}, len(valued))
	for _, id := range valued {
		has[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(has))
	seen := make(map[uuid.UUID]struct{}, len(has))
	appendID := func(id uuid.UUID) {
		if _, ok := has[id]; !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range submitted {
		appendID(id)
	}
	for _, id := range valued {
		appendID(id)
	}
	return out
}

// SameOrderSet reports whether order holds exactly the ids of valued once each.
func SameOrderSet(order, valued []uuid.UUID) bool {
	want := make(map[uuid.UUID]struct{}, len(valued))
	for _, id := range valued {
		want[id] = struct{}{}
	}
	if len(order) != len(want) {
		return false
	}
	seen := make(map[uuid.UUID]struct{}, len(order))
	for _, id := range order {
		if _, ok := want[id]; !ok {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
