package model

// Module groups topics into a subject/course unit.
type Module struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Topic is a scoped question pool belonging to a module.
type Topic struct {
	ID       int    `json:"id"`
	ModuleID int    `json:"module_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
