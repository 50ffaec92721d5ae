package child

// Child describes an enrolled child as seen by the observer roster.
// Enrollment data is owned elsewhere; this core only reads it.
type Child struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Grade      string `json:"grade"`
	School     string `json:"school"`
	Enrolled   bool   `json:"enrolled"`
	ObserverID string `json:"observerId"`
}

// Store exposes roster retrieval for services and HTTP handlers.
type Store interface {
	List() []Child
	ListByObserver(observerID string) []Child
	FindByID(id string) (Child, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for MVP.
type MemoryStore struct {
	items []Child
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied children.
func NewMemoryStore(items []Child) *MemoryStore {
	return &MemoryStore{items: append([]Child(nil), items...)}
}

// List returns every enrolled child.
func (s *MemoryStore) List() []Child {
	return append([]Child(nil), s.items...)
}

// ListByObserver returns the children assigned to one observer.
func (s *MemoryStore) ListByObserver(observerID string) []Child {
	var assigned []Child
	for _, item := range s.items {
		if item.ObserverID == observerID && item.Enrolled {
			assigned = append(assigned, item)
		}
	}
	return assigned
}

// FindByID looks up a child by identifier.
func (s *MemoryStore) FindByID(id string) (Child, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Child{}, false
}

// Seed provides a default roster for local development and tests.
func Seed() []Child {
	return []Child{
		{
			ID:         "child-amara",
			Name:       "Amara Osei",
			Age:        8,
			Grade:      "3rd",
			School:     "Maple Hollow Elementary",
			Enrolled:   true,
			ObserverID: "obs-demo",
		},
		{
			ID:         "child-theo",
			Name:       "Theo Lindqvist",
			Age:        10,
			Grade:      "5th",
			School:     "Maple Hollow Elementary",
			Enrolled:   true,
			ObserverID: "obs-demo",
		},
		{
			ID:         "child-june",
			Name:       "June Park",
			Age:        7,
			Grade:      "2nd",
			School:     "Riverbend Primary",
			Enrolled:   true,
			ObserverID: "obs-demo",
		},
	}
}
