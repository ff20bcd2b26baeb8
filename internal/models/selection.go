package models

// Destination is where a point selection hands control back to.
// State is merged into the navigation state on return.
type Destination struct {
	Route string                 `json:"route" binding:"required"`
	State map[string]interface{} `json:"state,omitempty"`
}

// Navigation is a completed hand-back to a creation flow
type Navigation struct {
	Route string                 `json:"route"`
	State map[string]interface{} `json:"state"`
}
