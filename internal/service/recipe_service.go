package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"recipeapp/internal/cache"
	apperrors "recipeapp/internal/errors"
	"recipeapp/internal/logger"
	"recipeapp/internal/metrics"
	"recipeapp/internal/model"
	"recipeapp/internal/repository"
	"recipeapp/internal/storage"
)

const (
	recipeCacheTTL = 5 * time.Minute
	maxTitleLen    = 255
)

// RecipeInput carries the user-editable fields of a recipe as submitted.
type RecipeInput struct {
	Title        string
	Ingredients  string
	Instructions string
	Favorite     bool
	Reference    string
	Categories   []string
}

// ImageUpload is an uploaded image file. A nil upload or one with zero size means "no image".
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

func (u *ImageUpload) present() bool {
	return u != nil && u.Size > 0 && u.Content != nil
}

// UpdateInput is RecipeInput plus the image replacement controls of the edit form.
type UpdateInput struct {
	RecipeInput
	Image              *ImageUpload
	DeleteCurrentImage bool
}

// Stats aggregates recipe counts.
type Stats struct {
	TotalRecipes              int64            `json:"totalRecipes"`
	FavoriteRecipes           int64            `json:"favoriteRecipes"`
	CategoryStats             map[string]int64 `json:"categoryStats"`
	AverageRecipesPerCategory float64          `json:"averageRecipesPerCategory"`
}

// CategoryUsage is one entry of the category listing.
type CategoryUsage struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// SearchFilter narrows a recipe search. Blank text filters and a nil Favorite are ignored.
type SearchFilter struct {
	Title      string
	Category   string
	Ingredient string
	Favorite   *bool
}

// ExportRecord is the flat projection of a recipe used by export and import.
type ExportRecord struct {
	ID           uint     `json:"id"`
	Title        string   `json:"title"`
	Ingredients  string   `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Categories   []string `json:"categories"`
	Favorite     bool     `json:"favorite"`
	Reference    string   `json:"reference"`
	HasImage     bool     `json:"hasImage"`
}

// ImportFailure describes one rejected import record.
type ImportFailure struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

// ResetResult summarizes a full data reset.
type ResetResult struct {
	RecipesDeleted int `json:"recipesDeleted"`
	ImagesDeleted  int `json:"imagesDeleted"`
}

// RecipeService handles recipe operations.
type RecipeService interface {
	Create(ctx context.Context, in RecipeInput, image *ImageUpload) (*model.Recipe, error)
	Update(ctx context.Context, id uint, in UpdateInput) (*model.Recipe, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.Recipe, error)
	List(ctx context.Context) ([]model.Recipe, error)
	ListFavorites(ctx context.Context) ([]model.Recipe, error)
	ListByCategory(ctx context.Context, category string) ([]model.Recipe, error)
	ToggleFavorite(ctx context.Context, id uint) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
	Categories(ctx context.Context) ([]CategoryUsage, error)
	Search(ctx context.Context, filter SearchFilter) ([]model.Recipe, error)
	Export(ctx context.Context) ([]ExportRecord, error)
	Import(ctx context.Context, records []ExportRecord) (*ImportResult, error)
	Reset(ctx context.Context) (*ResetResult, error)
}

type recipeService struct {
	repo         repository.RecipeRepository
	images       storage.ImageStore
	cache        *cache.Client
	log          logger.Logger
	metrics      *metrics.Metrics
	maxImageSize int64
}

// NewRecipeService creates a new recipe service. maxImageSize <= 0 disables the per-file limit.
func NewRecipeService(
	repo repository.RecipeRepository,
	images storage.ImageStore,
	cache *cache.Client,
	log logger.Logger,
	m *metrics.Metrics,
	maxImageSize int64,
) RecipeService {
	if log == nil {
		log = logger.Nop()
	}
	return &recipeService{
		repo:         repo,
		images:       images,
		cache:        cache,
		log:          log.With(logger.Fields{"component": "recipe_service"}),
		metrics:      m,
		maxImageSize: maxImageSize,
	}
}

func (s *recipeService) cacheKey(id uint) string {
	return fmt.Sprintf("recipe:%d", id)
}

// validate checks the title, categories and field lengths, returning the normalized input.
func (s *recipeService) validate(in RecipeInput) (RecipeInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, apperrors.Invalid("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return in, apperrors.Invalid("title must be at most %d characters", maxTitleLen)
	}

	categories, err := NormalizeCategories(in.Categories)
	if err != nil {
		return in, err
	}
	in.Categories = categories

	if utf8.RuneCountInString(in.Ingredients) > model.MaxIngredientsLen {
		return in, apperrors.Invalid("ingredients must be at most %d characters", model.MaxIngredientsLen)
	}
	if utf8.RuneCountInString(in.Instructions) > model.MaxInstructionsLen {
		return in, apperrors.Invalid("instructions must be at most %d characters", model.MaxInstructionsLen)
	}
	if utf8.RuneCountInString(in.Reference) > model.MaxReferenceLen {
		return in, apperrors.Invalid("reference must be at most %d characters", model.MaxReferenceLen)
	}
	return in, nil
}

func (s *recipeService) checkImage(image *ImageUpload) error {
	if image.present() && s.maxImageSize > 0 && image.Size > s.maxImageSize {
		return apperrors.ErrImageTooLarge
	}
	return nil
}

func (s *recipeService) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	imagePath, err := s.images.Save(ctx, image.Filename, image.Content)
	if err != nil {
		return "", apperrors.Persistence("store image", err)
	}
	s.metrics.ImageStored()
	return imagePath, nil
}

// discardImage deletes a stored image, logging instead of failing.
func (s *recipeService) discardImage(ctx context.Context, recipeID uint, imagePath string) bool {
	if imagePath == "" {
		return false
	}
	deleted, err := s.images.Delete(ctx, imagePath)
	if err != nil {
		s.log.Warn("image delete failed", logger.Fields{"recipe_id": recipeID, "image_path": imagePath, "error": err.Error()})
		return false
	}
	if !deleted {
		s.log.Warn("image already missing", logger.Fields{"recipe_id": recipeID, "image_path": imagePath})
		return false
	}
	s.metrics.ImageDeleted()
	return true
}

// Create validates the input, stores the image if one was supplied and persists the recipe.
// A stored image is left behind if the recipe insert fails.
func (s *recipeService) Create(ctx context.Context, in RecipeInput, image *ImageUpload) (*model.Recipe, error) {
	in, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkImage(image); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		Title:        in.Title,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
		Favorite:     in.Favorite,
		Reference:    in.Reference,
	}
	recipe.SetCategories(in.Categories)

	if image.present() {
		if recipe.ImagePath, err = s.storeImage(ctx, image); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, recipe); err != nil {
		s.log.Error("recipe create failed", logger.Fields{"title": recipe.Title, "error": err.Error()})
		return nil, apperrors.Persistence("create recipe", err)
	}

	s.metrics.RecipeCreated()
	s.log.Info("recipe created", logger.Fields{"recipe_id": recipe.ID, "categories": in.Categories, "has_image": recipe.HasImage()})
	return recipe, nil
}

// Update overwrites the recipe's fields, replaces its category set and applies the image rule:
// a new image replaces the old one, otherwise DeleteCurrentImage clears it, otherwise it is kept.
// The superseded file is removed only after the row is saved.
func (s *recipeService) Update(ctx context.Context, id uint, in UpdateInput) (*model.Recipe, error) {
	fields, err := s.validate(in.RecipeInput)
	if err != nil {
		return nil, err
	}
	if err := s.checkImage(in.Image); err != nil {
		return nil, err
	}

	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	recipe.Title = fields.Title
	recipe.Ingredients = fields.Ingredients
	recipe.Instructions = fields.Instructions
	recipe.Favorite = fields.Favorite
	recipe.Reference = fields.Reference
	recipe.SetCategories(fields.Categories)

	oldImage := ""
	switch {
	case in.Image.present():
		newPath, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		oldImage = recipe.ImagePath
		recipe.ImagePath = newPath
	case in.DeleteCurrentImage:
		oldImage = recipe.ImagePath
		recipe.ImagePath = ""
	}

	if err := s.repo.Update(ctx, recipe); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecipeNotFound
		}
		s.log.Error("recipe update failed", logger.Fields{"recipe_id": id, "error": err.Error()})
		return nil, apperrors.Persistence("update recipe", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	s.discardImage(ctx, id, oldImage)
	s.log.Info("recipe updated", logger.Fields{"recipe_id": id, "categories": fields.Categories, "has_image": recipe.HasImage()})
	return recipe, nil
}

// Delete removes the recipe and then, best effort, its image file.
func (s *recipeService) Delete(ctx context.Context, id uint) error {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRecipeNotFound
		}
		return apperrors.Persistence("delete recipe", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	s.metrics.RecipeDeleted(1)

	s.discardImage(ctx, id, recipe.ImagePath)
	s.log.Info("recipe deleted", logger.Fields{"recipe_id": id})
	return nil
}

// find loads a recipe straight from the store, bypassing the cache.
func (s *recipeService) find(ctx context.Context, id uint) (*model.Recipe, error) {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// Get retrieves a recipe by ID with caching.
func (s *recipeService) Get(ctx context.Context, id uint) (*model.Recipe, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Recipe
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(recipe); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, recipeCacheTTL)
	}
	return recipe, nil
}

func (s *recipeService) List(ctx context.Context) ([]model.Recipe, error) {
	return s.repo.List(ctx)
}

func (s *recipeService) ListFavorites(ctx context.Context) ([]model.Recipe, error) {
	return s.repo.ListFavorites(ctx)
}

func (s *recipeService) ListByCategory(ctx context.Context, category string) ([]model.Recipe, error) {
	return s.repo.ListByCategory(ctx, category)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *recipeService) ToggleFavorite(ctx context.Context, id uint) (bool, error) {
	recipe, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}

	favorite := !recipe.Favorite
	if err := s.repo.SetFavorite(ctx, id, favorite); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrRecipeNotFound
		}
		return false, apperrors.Persistence("toggle favorite", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return favorite, nil
}

// Stats computes totals, per-category counts and the mean of those counts.
func (s *recipeService) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}
	favorites, err := s.repo.CountFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	counts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	stats := &Stats{
		TotalRecipes:    total,
		FavoriteRecipes: favorites,
		CategoryStats:   make(map[string]int64, len(counts)),
	}
	var sum int64
	for _, c := range counts {
		stats.CategoryStats[c.Name] = c.Count
		sum += c.Count
	}
	if len(counts) > 0 {
		stats.AverageRecipesPerCategory = float64(sum) / float64(len(counts))
	}
	return stats, nil
}

// Categories lists categories by descending usage, ties broken by name.
func (s *recipeService) Categories(ctx context.Context) ([]CategoryUsage, error) {
	counts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	usage := make([]CategoryUsage, 0, len(counts))
	for _, c := range counts {
		usage = append(usage, CategoryUsage{Name: c.Name, Count: c.Count})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Count != usage[j].Count {
			return usage[i].Count > usage[j].Count
		}
		return usage[i].Name < usage[j].Name
	})
	return usage, nil
}

// Matches reports whether recipe satisfies every supplied filter.
// Text filters are case-insensitive substring matches.
func (f SearchFilter) Matches(recipe *model.Recipe) bool {
	if needle := strings.TrimSpace(f.Title); needle != "" && !containsFold(recipe.Title, needle) {
		return false
	}
	if needle := strings.TrimSpace(f.Category); needle != "" {
		found := false
		for _, c := range recipe.Categories {
			if containsFold(c.Name, needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if needle := strings.TrimSpace(f.Ingredient); needle != "" && !containsFold(recipe.Ingredients, needle) {
		return false
	}
	if f.Favorite != nil && recipe.Favorite != *f.Favorite {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *recipeService) Search(ctx context.Context, filter SearchFilter) ([]model.Recipe, error) {
	recipes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Recipe, 0, len(recipes))
	for i := range recipes {
		if filter.Matches(&recipes[i]) {
			matched = append(matched, recipes[i])
		}
	}
	return matched, nil
}

// ToExportRecord projects a recipe without its image bytes.
func ToExportRecord(recipe *model.Recipe) ExportRecord {
	return ExportRecord{
		ID:           recipe.ID,
		Title:        recipe.Title,
		Ingredients:  recipe.Ingredients,
		Instructions: recipe.Instructions,
		Categories:   recipe.CategoryNames(),
		Favorite:     recipe.Favorite,
		Reference:    recipe.Reference,
		HasImage:     recipe.HasImage(),
	}
}

func (s *recipeService) Export(ctx context.Context) ([]ExportRecord, error) {
	recipes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]ExportRecord, 0, len(recipes))
	for i := range recipes {
		records = append(records, ToExportRecord(&recipes[i]))
	}
	return records, nil
}

// Import creates one recipe per record through the regular create validation.
// ID and HasImage are ignored. Invalid records are reported and skipped.
func (s *recipeService) Import(ctx context.Context, records []ExportRecord) (*ImportResult, error) {
	result := &ImportResult{Failed: []ImportFailure{}}
	for i, rec := range records {
		_, err := s.Create(ctx, RecipeInput{
			Title:        rec.Title,
			Ingredients:  rec.Ingredients,
			Instructions: rec.Instructions,
			Favorite:     rec.Favorite,
			Reference:    rec.Reference,
			Categories:   rec.Categories,
		}, nil)
		if err != nil {
			if errors.Is(err, apperrors.ErrPersistence) {
				return result, err
			}
			result.Failed = append(result.Failed, ImportFailure{Index: i, Title: rec.Title, Error: err.Error()})
			continue
		}
		result.Imported++
	}
	return result, nil
}

// Reset clears the recipe store and then removes every referenced image, continuing past failures.
func (s *recipeService) Reset(ctx context.Context) (*ResetResult, error) {
	recipes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return nil, apperrors.Persistence("delete all recipes", err)
	}

	result := &ResetResult{RecipesDeleted: int(removed)}
	keys := make([]string, 0, len(recipes))
	for i := range recipes {
		keys = append(keys, s.cacheKey(recipes[i].ID))
		if s.discardImage(ctx, recipes[i].ID, recipes[i].ImagePath) {
			result.ImagesDeleted++
		}
	}
	_ = s.cache.Delete(ctx, keys...)
	s.metrics.RecipeDeleted(result.RecipesDeleted)

	s.log.Info("recipe data reset", logger.Fields{"recipes_deleted": result.RecipesDeleted, "images_deleted": result.ImagesDeleted})
	return result, nil
}
