package category

// CategoryItem is the public DTO returned by the category API.
type CategoryItem struct {
	CategoryName string `json:"categoryName"`
	Ord          int    `json:"ord"`
}

// Allowed lists the listing categories in display order.
var Allowed = []string{
	"Clothing",
	"Electronics",
	"Books",
	"Furniture",
	"Sports",
	"Toys",
	"Other",
}

// Valid reports whether name is one of the allowed categories. Matching is
// exact; the frontend sends the canonical spelling.
func Valid(name string) bool {
	for _, c := range Allowed {
		if c == name {
			return true
		}
	}
	return false
}

// List returns the categories as DTOs, highest ord first.
func List() []CategoryItem {
	items := make([]CategoryItem, 0, len(Allowed))
	for i, name := range Allowed {
		items = append(items, CategoryItem{CategoryName: name, Ord: len(Allowed) - i})
	}
	return items
}
