package model

import (
	"sort"
	"time"
)

// Field limits enforced at write time.
const (
	MaxCategories      = 2
	MaxIngredientsLen  = 1000
	MaxInstructionsLen = 2000
	MaxReferenceLen    = 1000
	MaxCategoryLen     = 50
)

// Recipe is a user-authored dish with free text fields, up to two categories and an optional image.
type Recipe struct {
	ID           uint             `gorm:"primaryKey"`
	Title        string           `gorm:"size:255;not null"`
	Ingredients  string           `gorm:"size:1000"`
	Instructions string           `gorm:"size:2000"`
	Favorite     bool             `gorm:"not null;default:false;index"`
	Reference    string           `gorm:"size:1000"`
	ImagePath    string           `gorm:"size:512"` // "/uploads/<name>", empty when absent
	Categories   []RecipeCategory `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeCategory is one row of the recipe -> category index.
type RecipeCategory struct {
	RecipeID uint   `gorm:"primaryKey;autoIncrement:false"`
	Name     string `gorm:"primaryKey;size:50;index"`
}

// TableName keeps the index table name stable across drivers.
func (RecipeCategory) TableName() string {
	return "recipe_category"
}

// HasImage reports whether an image file is attached.
func (r *Recipe) HasImage() bool {
	return r.ImagePath != ""
}

// CategoryNames returns the recipe's categories sorted by name.
func (r *Recipe) CategoryNames() []string {
	names := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// HasCategory reports membership of name in the recipe's category set.
func (r *Recipe) HasCategory(name string) bool {
	for _, c := range r.Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// SetCategories replaces the category set. Names are expected to be normalized already.
func (r *Recipe) SetCategories(names []string) {
	r.Categories = make([]RecipeCategory, 0, len(names))
	for _, name := range names {
		r.Categories = append(r.Categories, RecipeCategory{RecipeID: r.ID, Name: name})
	}
}
