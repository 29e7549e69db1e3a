package models

// Taxonomy is the shape shared by classifications and tags: a named, colored
// label with a cached count of the posts attached to it.
type Taxonomy struct {
	Name      string `json:"name" db:"name" gorm:"type:varchar(32);primaryKey"`
	Color     string `json:"color" db:"color" gorm:"type:varchar(32);not null;default:''"`
	ItemCount int    `json:"itemCount" db:"item_count" gorm:"not null;default:0"`
}

// Classification groups a post under exactly one category.
type Classification Taxonomy

// Tag labels a post; a post may carry many tags.
type Tag Taxonomy

// TagNames returns the names of the given tags in order.
func TagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
