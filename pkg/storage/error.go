package storage

// NotFoundError is returned when a model doesn't exist in the store.
type NotFoundError struct {
	Provider string
	ID       string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "model not found"
	}

	return "model not found: " + e.Provider + "/" + e.ID
}
