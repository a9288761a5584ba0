package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/category"
)

type categoryListPage struct {
	page
	Categories []category.Stats
}

type categoryFormPage struct {
	page
	Error      string
	Editing    bool
	CategoryID string
	Name       string
	Icon       string
	Icons      []string
}

type categoryDeletePage struct {
	page
	Category *category.Category
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	stats, err := s.categories.ListWithStats(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "category_list.html", &categoryListPage{
		page:       s.page(r, w, "Categories"),
		Categories: stats,
	})
}

func (s *Server) handleCategoryNewPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "category_form.html", &categoryFormPage{
		page:  s.page(r, w, "New category"),
		Icons: category.IconSuggestions,
	})
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	form := &categoryFormPage{
		page:  s.page(r, w, "New category"),
		Name:  strings.TrimSpace(r.FormValue("name")),
		Icon:  strings.TrimSpace(r.FormValue("icon")),
		Icons: category.IconSuggestions,
	}

	_, err := s.categories.Create(r.Context(), user.ID, form.Name, form.Icon)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNameRequired):
			form.Error = "Name is required."
		case errors.Is(err, category.ErrExists):
			form.Error = "You already have a category with that name."
		default:
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "category_form.html", form)
		return
	}

	s.flash(w, r, flashSuccess, "Category added.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) categoryFromPath(w http.ResponseWriter, r *http.Request) (*category.Category, bool) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	c, err := s.categories.Get(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		s.serverError(w, r, err)
		return nil, false
	}
	return c, true
}

func (s *Server) handleCategoryEditPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.categoryFromPath(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "category_form.html", &categoryFormPage{
		page:       s.page(r, w, "Edit category"),
		Editing:    true,
		CategoryID: c.ID.String(),
		Name:       c.Name,
		Icon:       c.Icon,
		Icons:      category.IconSuggestions,
	})
}

func (s *Server) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	c, ok := s.categoryFromPath(w, r)
	if !ok {
		return
	}

	form := &categoryFormPage{
		page:       s.page(r, w, "Edit category"),
		Editing:    true,
		CategoryID: c.ID.String(),
		Name:       strings.TrimSpace(r.FormValue("name")),
		Icon:       strings.TrimSpace(r.FormValue("icon")),
		Icons:      category.IconSuggestions,
	}

	_, err := s.categories.Update(r.Context(), user.ID, c.ID, form.Name, form.Icon)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNameRequired):
			form.Error = "Name is required."
		case errors.Is(err, category.ErrExists):
			form.Error = "You already have a category with that name."
		default:
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "category_form.html", form)
		return
	}

	s.flash(w, r, flashSuccess, "Category updated.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleCategoryDeletePage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.categoryFromPath(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "category_confirm_delete.html", &categoryDeletePage{
		page:     s.page(r, w, "Delete category"),
		Category: c,
	})
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.categories.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.flash(w, r, flashSuccess, "Category deleted. Its expenses are now uncategorized.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
