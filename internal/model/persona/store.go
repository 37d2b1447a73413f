package persona

// Store exposes companion lookup for services and handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore keeps the built-in companions in a slice.
type MemoryStore struct {
	items []Persona
}

func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve returns the persona for id, or the fallback persona when id is
// empty. The bool is false only when neither can be found.
func Resolve(store Store, id, fallback string) (Persona, bool) {
	if id == "" {
		id = fallback
	}
	return store.FindByID(id)
}
