package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
)

type groupListPage struct {
	page
	Groups []group.Stats
}

type groupFormPage struct {
	page
	Error       string
	Editing     bool
	GroupID     string
	Name        string
	Description string
	Members     string
}

type groupDetailPage struct {
	page
	Group     *group.Detail
	Expenses  []expense.Expense
	IsCreator bool
}

type groupDeletePage struct {
	page
	Group *group.Group
}

// splitUsernames accepts comma or whitespace separated usernames.
func splitUsernames(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (s *Server) handleGroupList(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	groups, err := s.groups.ListForUser(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "group_list.html", &groupListPage{
		page:   s.page(r, w, "Groups"),
		Groups: groups,
	})
}

func (s *Server) handleGroupNewPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "group_form.html", &groupFormPage{page: s.page(r, w, "New group")})
}

func (s *Server) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	form := &groupFormPage{
		page:        s.page(r, w, "New group"),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Members:     r.FormValue("members"),
	}

	_, err := s.groups.Create(r.Context(), user.ID, form.Name, form.Description, splitUsernames(form.Members))
	if err != nil {
		var unknown *group.UnknownUsernamesError
		switch {
		case errors.Is(err, group.ErrNameRequired):
			form.Error = "Name is required."
		case errors.As(err, &unknown):
			form.Error = "No such users: " + strings.Join(unknown.Usernames, ", ") + "."
		default:
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "group_form.html", form)
		return
	}

	s.flash(w, r, flashSuccess, "Group created.")
	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}

func (s *Server) handleGroupDetail(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	detail, err := s.groups.GetDetail(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	expenses, err := s.expenses.ListForGroup(r.Context(), user.ID, id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "group_detail.html", &groupDetailPage{
		page:      s.page(r, w, detail.Name),
		Group:     detail,
		Expenses:  expenses,
		IsCreator: detail.CreatedBy == user.ID,
	})
}

// groupForEdit loads a group and verifies the requester created it.
func (s *Server) groupForEdit(w http.ResponseWriter, r *http.Request) (*group.Detail, bool) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	detail, err := s.groups.GetDetail(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		s.serverError(w, r, err)
		return nil, false
	}
	if detail.CreatedBy != user.ID {
		s.flash(w, r, flashError, "Only the group creator can do that.")
		http.Redirect(w, r, "/groups/"+id.String(), http.StatusSeeOther)
		return nil, false
	}
	return detail, true
}

// memberUsernames joins the non-creator members for the edit form.
func memberUsernames(detail *group.Detail) string {
	names := make([]string, 0, len(detail.Members))
	for _, m := range detail.Members {
		if m.UserID == detail.CreatedBy {
			continue
		}
		names = append(names, m.Username)
	}
	return strings.Join(names, ", ")
}

func (s *Server) handleGroupEditPage(w http.ResponseWriter, r *http.Request) {
	detail, ok := s.groupForEdit(w, r)
	if !ok {
		return
	}

	s.render(w, r, http.StatusOK, "group_form.html", &groupFormPage{
		page:        s.page(r, w, "Edit group"),
		Editing:     true,
		GroupID:     detail.ID.String(),
		Name:        detail.Name,
		Description: detail.Description,
		Members:     memberUsernames(detail),
	})
}

func (s *Server) handleGroupUpdate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	detail, ok := s.groupForEdit(w, r)
	if !ok {
		return
	}

	form := &groupFormPage{
		page:        s.page(r, w, "Edit group"),
		Editing:     true,
		GroupID:     detail.ID.String(),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Members:     r.FormValue("members"),
	}

	_, err := s.groups.Update(r.Context(), user.ID, detail.ID, form.Name, form.Description, splitUsernames(form.Members))
	if err != nil {
		var unknown *group.UnknownUsernamesError
		switch {
		case errors.Is(err, group.ErrNameRequired):
			form.Error = "Name is required."
		case errors.As(err, &unknown):
			form.Error = "No such users: " + strings.Join(unknown.Usernames, ", ") + "."
		case errors.Is(err, group.ErrNotCreator):
			http.NotFound(w, r)
			return
		default:
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "group_form.html", form)
		return
	}

	s.flash(w, r, flashSuccess, "Group updated.")
	http.Redirect(w, r, "/groups/"+detail.ID.String(), http.StatusSeeOther)
}

func (s *Server) handleGroupDeletePage(w http.ResponseWriter, r *http.Request) {
	detail, ok := s.groupForEdit(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "group_confirm_delete.html", &groupDeletePage{
		page:  s.page(r, w, "Delete group"),
		Group: &detail.Group,
	})
}

func (s *Server) handleGroupDelete(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = s.groups.Delete(r.Context(), user.ID, id)
	if err != nil {
		switch {
		case errors.Is(err, group.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, group.ErrNotCreator):
			s.flash(w, r, flashError, "Only the group creator can delete it.")
			http.Redirect(w, r, "/groups/"+id.String(), http.StatusSeeOther)
		default:
			s.serverError(w, r, err)
		}
		return
	}

	s.flash(w, r, flashSuccess, "Group deleted along with its expenses.")
	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}
