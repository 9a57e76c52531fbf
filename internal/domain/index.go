package domain

// Posting records that a term occurs in the name of an indexed entity.
type Posting struct {
	DocID      string `json:"doc_id"`
	Identifier string `json:"identifier"`
	TF         int    `json:"tf"`
	Terms      int    `json:"terms"`
}

// SearchHit is an indexed entity matching a search query.
type SearchHit struct {
	Doc    Document
	Entity *Entity
	Score  float64
}

// FindByIdentifier looks up a testable entity, methods included, by its
// Identifier.
func FindByIdentifier(entities []*Entity, identifier string) *Entity {
	for _, e := range entities {
		if !e.Testable() {
			continue
		}
		if e.Identifier() == identifier {
			return e
		}
		for _, f := range e.Functions {
			if f.Identifier() == identifier {
				return f
			}
		}
	}
	return nil
}

// Flatten returns the testable entities with each class followed by its
// methods.
func Flatten(entities []*Entity) []*Entity {
	var out []*Entity
	for _, e := range entities {
		if !e.Testable() {
			continue
		}
		out = append(out, e)
		out = append(out, e.Functions...)
	}
	return out
}
