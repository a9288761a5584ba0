package web

import (
	"net/http"

	"github.com/tallyhq/tally/internal/domain/expense"
)

type dashboardPage struct {
	page
	Summary *expense.DashboardSummary
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	summary, err := s.expenses.Dashboard(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", &dashboardPage{
		page:    s.page(r, w, "Dashboard"),
		Summary: summary,
	})
}
