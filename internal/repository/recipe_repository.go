package repository

import (
	"context"

	"gorm.io/gorm"

	"recipeapp/internal/model"
)

// CategoryCount is the number of recipes tagged with a category.
type CategoryCount struct {
	Name  string
	Count int64
}

// RecipeRepository defines recipe persistence operations. Recipes are always
// returned with their categories loaded and ordered by insertion.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	Update(ctx context.Context, recipe *model.Recipe) error
	SetFavorite(ctx context.Context, id uint, favorite bool) error
	FindByID(ctx context.Context, id uint) (*model.Recipe, error)
	List(ctx context.Context) ([]model.Recipe, error)
	ListFavorites(ctx context.Context) ([]model.Recipe, error)
	ListByCategory(ctx context.Context, category string) ([]model.Recipe, error)
	Count(ctx context.Context) (int64, error)
	CountFavorites(ctx context.Context) (int64, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) withCategories(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Categories").Order("recipes.id")
}

// Create inserts the recipe and its category rows in one transaction.
func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// Update overwrites the recipe's scalar fields and replaces its category rows.
func (r *recipeRepository) Update(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Recipe{ID: recipe.ID}).
			Omit("Categories").
			Select("title", "ingredients", "instructions", "favorite", "reference", "image_path", "updated_at").
			Updates(recipe)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&model.RecipeCategory{}).Error; err != nil {
			return err
		}
		if len(recipe.Categories) == 0 {
			return nil
		}
		for i := range recipe.Categories {
			recipe.Categories[i].RecipeID = recipe.ID
		}
		return tx.Create(&recipe.Categories).Error
	})
}

// SetFavorite updates only the favorite flag.
func (r *recipeRepository) SetFavorite(ctx context.Context, id uint, favorite bool) error {
	res := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Update("favorite", favorite)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) FindByID(ctx context.Context, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).Preload("Categories").First(&recipe, id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := r.withCategories(ctx).Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) ListFavorites(ctx context.Context) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := r.withCategories(ctx).Where("favorite = ?", true).Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListByCategory returns recipes whose category set contains category (exact match).
func (r *recipeRepository) ListByCategory(ctx context.Context, category string) ([]model.Recipe, error) {
	members := r.db.Model(&model.RecipeCategory{}).Select("recipe_id").Where("name = ?", category)

	var recipes []model.Recipe
	if err := r.withCategories(ctx).Where("id IN (?)", members).Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Recipe{}).Count(&n).Error
	return n, err
}

func (r *recipeRepository) CountFavorites(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("favorite = ?", true).Count(&n).Error
	return n, err
}

// CategoryCounts returns per-category usage. Each recipe contributes once to every category it carries.
func (r *recipeRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	err := r.db.WithContext(ctx).Model(&model.RecipeCategory{}).
		Select("name, COUNT(*) AS count").
		Group("name").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Delete removes the recipe and its category rows. Returns gorm.ErrRecordNotFound for unknown ids.
func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeCategory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteAll wipes every recipe and the category index, returning the number of recipes removed.
func (r *recipeRepository) DeleteAll(ctx context.Context) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&model.RecipeCategory{}).Error; err != nil {
			return err
		}
		res := global.Delete(&model.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}
