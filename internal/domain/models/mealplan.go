// internal/domain/models/mealplan.go
package models

// DaysPerPlan is the number of daily entries each member receives.
const DaysPerPlan = 7

// DayEntry is one day of one member's plan.
type DayEntry struct {
	Day       int    `json:"day"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
}

// MealPlan is the parsed shape of a generated plan document: member email to
// seven ordered day entries. Stored documents are the raw generator output,
// so a file on disk may not decode into this type.
type MealPlan map[string][]DayEntry

// PlanVersion identifies one persisted plan document for a family.
type PlanVersion struct {
	FamilyID string `json:"family_id"`
	Version  int    `json:"version"`
	Path     string `json:"path"` // file path on local storage, otherwise the object key
}
