package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"

	"recipeapp/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Renderer.
const (
	PageHome       = "home"
	PageRecipeForm = "recipe_form"
	PageLogin      = "login"
	PageRegister   = "register"
)

// Page is the data every template receives.
type Page struct {
	Title    string
	Username string
	IsAdmin  bool
	Success  string
	Error    string
	Loading  bool

	Recipes       []model.Recipe
	FavoritesPage bool
	CategoryName  string

	Form *RecipeForm

	FormUsername string
	LoggedOut    bool
}

// RecipeForm holds the values shown in the create/edit form.
type RecipeForm struct {
	ID           uint     `json:"id,omitempty"`
	Title        string   `json:"title"`
	Ingredients  string   `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Reference    string   `json:"reference"`
	Favorite     bool     `json:"favorite"`
	Categories   []string `json:"categories"`
	ImagePath    string   `json:"imagePath,omitempty"`
}

// FormFromRecipe fills a form from a stored recipe.
func FormFromRecipe(r *model.Recipe) *RecipeForm {
	return &RecipeForm{
		ID:           r.ID,
		Title:        r.Title,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Reference:    r.Reference,
		Favorite:     r.Favorite,
		Categories:   r.CategoryNames(),
		ImagePath:    r.ImagePath,
	}
}

var funcs = template.FuncMap{
	"categoryAt": func(categories []string, i int) string {
		if i < 0 || i >= len(categories) {
			return ""
		}
		return categories[i]
	},
	"pathEscape": url.PathEscape,
}

// Renderer renders the embedded pages inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

// NewRenderer parses every page together with the layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageHome, PageRecipeForm, PageLogin, PageRegister} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
