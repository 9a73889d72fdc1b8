package protocol

// Category is one of the fixed support ticket categories.
type Category string

const (
	CategoryBilling   Category = "billing"
	CategoryTechnical Category = "technical"
	CategorySecurity  Category = "security"
	CategoryGeneral   Category = "general"
)

// Categories lists all known categories.
func Categories() []Category {
	return []Category{CategoryBilling, CategoryTechnical, CategorySecurity, CategoryGeneral}
}

// ParseCategory validates a free-form category label.
// The second return value is false when the label is not a known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryBilling, CategoryTechnical, CategorySecurity, CategoryGeneral:
		return Category(s), true
	}
	return CategoryGeneral, false
}

// Ticket is a support request submitted for resolution.
// It is immutable once submitted; each run is independent.
type Ticket struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// Classification is the result of categorizing a ticket.
// It is produced once per run and never recomputed.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}
