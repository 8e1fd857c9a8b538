package model

import "github.com/google/uuid"

// ensureID assigns a fresh id before insert. IDs are generated in the application
// so the same models work on postgres and on the sqlite test store.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
