package model

// Group is a participant cohort. Tests are targeted at groups and a
// participant may only start tests assigned to one of their groups.
type Group struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
