package graph

// SecondDegree maps people two hops away to the names of the first-degree
// connections that bridge to them. Iteration order is discovery order.
type SecondDegree struct {
	order []string
	via   map[string][]string
}

func newSecondDegree() SecondDegree {
	return SecondDegree{via: make(map[string][]string)}
}

// add records personID as reachable, appending bridgeName once. An empty
// bridgeName still marks the person as second-degree.
func (s *SecondDegree) add(personID, bridgeName string) {
	names, seen := s.via[personID]
	if !seen {
		s.order = append(s.order, personID)
		names = []string{}
	}
	if bridgeName != "" && !contains(names, bridgeName) {
		names = append(names, bridgeName)
	}
	s.via[personID] = names
}

// Has reports whether personID is exactly two hops away.
func (s SecondDegree) Has(personID string) bool {
	_, ok := s.via[personID]
	return ok
}

// Via returns the bridging names for personID in discovery order.
func (s SecondDegree) Via(personID string) []string {
	names := s.via[personID]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// IDs returns the second-degree person ids in discovery order.
func (s SecondDegree) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of second-degree people.
func (s SecondDegree) Len() int { return len(s.order) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
