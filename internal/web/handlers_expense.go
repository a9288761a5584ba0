package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/pkg/money"
)

const expensesPerPage = 20

// maxReceiptSize caps receipt uploads at 5 MiB.
const maxReceiptSize = 5 << 20

var errReceiptNotImage = errors.New("receipt must be an image")

type expenseListPage struct {
	page
	Expenses   []expense.Expense
	Total      int64
	Categories []category.Category
	Groups     []group.Stats

	// Echoed filter state.
	Query      string
	CategoryID string
	GroupID    string
	From       string
	To         string

	PageNum    int
	TotalPages int
	PrevPage   int
	NextPage   int
	FilterQS   string
}

type expenseFormPage struct {
	page
	Error      string
	Editing    bool
	ExpenseID  string
	Categories []category.Category
	Groups     []group.Stats

	Description string
	Amount      string
	SpentOn     string
	CategoryID  string
	GroupID     string
	HasReceipt  bool
}

type expenseDeletePage struct {
	page
	Expense *expense.Expense
}

func parseOptionalUUID(s string) (*uuid.UUID, bool) {
	if s == "" {
		return nil, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// expenseFilter reads the list filters from the query string. Malformed
// values are ignored rather than rejected.
func expenseFilter(r *http.Request) (expense.Filter, *expenseListPage) {
	q := r.URL.Query()
	view := &expenseListPage{
		Query:      strings.TrimSpace(q.Get("q")),
		CategoryID: q.Get("category"),
		GroupID:    q.Get("group"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}

	var f expense.Filter
	f.Query = view.Query
	if id, ok := parseOptionalUUID(view.CategoryID); ok && id != nil {
		f.CategoryID = id
	} else if !ok {
		view.CategoryID = ""
	}
	if id, ok := parseOptionalUUID(view.GroupID); ok && id != nil {
		f.GroupID = id
	} else if !ok {
		view.GroupID = ""
	}
	if t, err := time.Parse("2006-01-02", view.From); err == nil {
		f.From = &t
	} else {
		view.From = ""
	}
	if t, err := time.Parse("2006-01-02", view.To); err == nil {
		end := t.AddDate(0, 0, 1).Add(-time.Second)
		f.To = &end
	} else {
		view.To = ""
	}
	return f, view
}

// filterQS re-encodes the active filters for pagination and export links.
func filterQS(view *expenseListPage) string {
	vals := url.Values{}
	if view.Query != "" {
		vals.Set("q", view.Query)
	}
	if view.CategoryID != "" {
		vals.Set("category", view.CategoryID)
	}
	if view.GroupID != "" {
		vals.Set("group", view.GroupID)
	}
	if view.From != "" {
		vals.Set("from", view.From)
	}
	if view.To != "" {
		vals.Set("to", view.To)
	}
	return vals.Encode()
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	f, view := expenseFilter(r)

	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if pageNum < 1 {
		pageNum = 1
	}
	f.Limit = expensesPerPage
	f.Offset = (pageNum - 1) * expensesPerPage

	result, err := s.expenses.ListPage(r.Context(), user.ID, f)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	categories, err := s.categories.List(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	groups, err := s.groups.ListForUser(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	view.page = s.page(r, w, "Expenses")
	view.Expenses = result.Expenses
	view.Total = result.Total
	view.Categories = categories
	view.Groups = groups
	view.PageNum = pageNum
	view.TotalPages = int((result.Total + expensesPerPage - 1) / expensesPerPage)
	view.PrevPage = pageNum - 1
	view.NextPage = pageNum + 1
	view.FilterQS = filterQS(view)

	s.render(w, r, http.StatusOK, "expense_list.html", view)
}

// expenseFormOptions loads the category and group choices for the form.
func (s *Server) expenseFormOptions(r *http.Request, form *expenseFormPage) error {
	user := userFrom(r.Context())

	categories, err := s.categories.List(r.Context(), user.ID)
	if err != nil {
		return err
	}
	groups, err := s.groups.ListForUser(r.Context(), user.ID)
	if err != nil {
		return err
	}
	form.Categories = categories
	form.Groups = groups
	return nil
}

func (s *Server) handleExpenseNewPage(w http.ResponseWriter, r *http.Request) {
	form := &expenseFormPage{
		page:        s.page(r, w, "New expense"),
		Description: r.URL.Query().Get("description"),
		Amount:      r.URL.Query().Get("amount"),
		SpentOn:     time.Now().Format("2006-01-02"),
	}
	if err := s.expenseFormOptions(r, form); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "expense_form.html", form)
}

// receiptUpload pulls the optional receipt file out of the multipart form.
// Only image uploads are accepted. The caller owns closing the returned file.
func receiptUpload(r *http.Request) (*expense.ReceiptUpload, io.Closer, error) {
	file, header, err := r.FormFile("receipt")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		file.Close()
		return nil, nil, errReceiptNotImage
	}

	upload := &expense.ReceiptUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        file,
	}
	return upload, file, nil
}

// expenseFormInput parses the shared create/edit fields. A non-empty
// message means validation failed.
func (s *Server) expenseFormInput(r *http.Request, form *expenseFormPage) (expense.CreateInput, string) {
	form.Description = strings.TrimSpace(r.FormValue("description"))
	form.Amount = strings.TrimSpace(r.FormValue("amount"))
	form.SpentOn = r.FormValue("spent_on")
	form.CategoryID = r.FormValue("category_id")
	form.GroupID = r.FormValue("group_id")

	var input expense.CreateInput
	input.Description = form.Description

	amount, err := money.ParsePositive(form.Amount, s.currency)
	if err != nil {
		if errors.Is(err, money.ErrNotPositive) {
			return input, "Amount must be greater than zero."
		}
		return input, "Amount must be a number like 12.50."
	}
	input.AmountCents = amount.Cents()

	input.SpentOn = time.Now()
	if form.SpentOn != "" {
		t, err := time.Parse("2006-01-02", form.SpentOn)
		if err != nil {
			return input, "Date must look like 2024-01-31."
		}
		input.SpentOn = t
	}

	categoryID, ok := parseOptionalUUID(form.CategoryID)
	if !ok {
		return input, "Choose a valid category."
	}
	input.CategoryID = categoryID

	groupID, ok := parseOptionalUUID(form.GroupID)
	if !ok {
		return input, "Choose a valid group."
	}
	input.GroupID = groupID

	return input, ""
}

func (s *Server) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Upload too large.", http.StatusRequestEntityTooLarge)
		return
	}

	form := &expenseFormPage{page: s.page(r, w, "New expense")}
	input, msg := s.expenseFormInput(r, form)
	if msg == "" {
		upload, closer, err := receiptUpload(r)
		switch {
		case errors.Is(err, errReceiptNotImage):
			msg = "Receipt must be an image file."
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			if closer != nil {
				defer closer.Close()
			}
			input.Receipt = upload
		}
	}
	if msg == "" {
		_, err := s.expenses.Create(r.Context(), user.ID, input)
		switch {
		case err == nil:
			s.flash(w, r, flashSuccess, "Expense added.")
			http.Redirect(w, r, "/expenses", http.StatusSeeOther)
			return
		case errors.Is(err, expense.ErrDescriptionRequired):
			msg = "Description is required."
		case errors.Is(err, category.ErrNotFound):
			msg = "Choose a valid category."
		case errors.Is(err, group.ErrNotFound):
			msg = "Choose a valid group."
		default:
			s.serverError(w, r, err)
			return
		}
	}

	form.Error = msg
	if err := s.expenseFormOptions(r, form); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusUnprocessableEntity, "expense_form.html", form)
}

func (s *Server) expenseFromPath(w http.ResponseWriter, r *http.Request) (*expense.Expense, bool) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	e, err := s.expenses.GetByID(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		s.serverError(w, r, err)
		return nil, false
	}
	return e, true
}

func (s *Server) handleExpenseEditPage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.expenseFromPath(w, r)
	if !ok {
		return
	}

	form := &expenseFormPage{
		page:        s.page(r, w, "Edit expense"),
		Editing:     true,
		ExpenseID:   e.ID.String(),
		Description: e.Description,
		Amount:      money.New(e.AmountCents, s.currency).String(),
		SpentOn:     e.SpentOn.Format("2006-01-02"),
		HasReceipt:  e.ReceiptFileID != nil,
	}
	if e.CategoryID != nil {
		form.CategoryID = e.CategoryID.String()
	}
	if e.GroupID != nil {
		form.GroupID = e.GroupID.String()
	}
	if err := s.expenseFormOptions(r, form); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "expense_form.html", form)
}

func (s *Server) handleExpenseUpdate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	e, ok := s.expenseFromPath(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Upload too large.", http.StatusRequestEntityTooLarge)
		return
	}

	form := &expenseFormPage{
		page:       s.page(r, w, "Edit expense"),
		Editing:    true,
		ExpenseID:  e.ID.String(),
		HasReceipt: e.ReceiptFileID != nil,
	}
	input, msg := s.expenseFormInput(r, form)
	var upload *expense.ReceiptUpload
	if msg == "" {
		up, closer, err := receiptUpload(r)
		switch {
		case errors.Is(err, errReceiptNotImage):
			msg = "Receipt must be an image file."
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			if closer != nil {
				defer closer.Close()
			}
			upload = up
		}
	}
	if msg == "" {
		_, err := s.expenses.Update(r.Context(), user.ID, e.ID, expense.UpdateInput{
			Description: input.Description,
			AmountCents: input.AmountCents,
			SpentOn:     input.SpentOn,
			CategoryID:  input.CategoryID,
			GroupID:     input.GroupID,
			Receipt:     upload,
		})
		switch {
		case err == nil:
			s.flash(w, r, flashSuccess, "Expense updated.")
			http.Redirect(w, r, "/expenses", http.StatusSeeOther)
			return
		case errors.Is(err, expense.ErrDescriptionRequired):
			msg = "Description is required."
		case errors.Is(err, category.ErrNotFound):
			msg = "Choose a valid category."
		case errors.Is(err, group.ErrNotFound):
			msg = "Choose a valid group."
		default:
			s.serverError(w, r, err)
			return
		}
	}

	form.Error = msg
	if err := s.expenseFormOptions(r, form); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusUnprocessableEntity, "expense_form.html", form)
}

func (s *Server) handleExpenseDeletePage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.expenseFromPath(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "expense_confirm_delete.html", &expenseDeletePage{
		page:    s.page(r, w, "Delete expense"),
		Expense: e,
	})
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.expenses.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.flash(w, r, flashSuccess, "Expense deleted.")
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

func (s *Server) handleExpenseReceipt(w http.ResponseWriter, r *http.Request) {
	e, ok := s.expenseFromPath(w, r)
	if !ok {
		return
	}
	if e.ReceiptFileID == nil {
		http.NotFound(w, r)
		return
	}

	user := userFrom(r.Context())
	reader, info, err := s.expenses.Receipt(r.Context(), user.ID, *e.ReceiptFileID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", info.Name))
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Warn("failed to stream receipt", slog.Any("error", err))
	}
}

func (s *Server) handleExpenseExportCSV(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	f, _ := expenseFilter(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	if err := s.expenses.ExportCSV(r.Context(), user.ID, f, w); err != nil {
		s.logger.Error("csv export failed", slog.Any("error", err))
	}
}

func (s *Server) handleExpenseExportXLSX(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	f, _ := expenseFilter(r)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	if err := s.expenses.ExportXLSX(r.Context(), user.ID, f, w); err != nil {
		s.logger.Error("xlsx export failed", slog.Any("error", err))
	}
}

// handleSuggestCategory answers the htmx probe fired while typing a
// description on the expense form.
func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	text := r.URL.Query().Get("description")

	suggestion, err := s.suggest.Suggest(r.Context(), user.ID, text)
	if err != nil {
		s.logger.Warn("category suggestion failed", slog.Any("error", err))
	}
	if suggestion == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.renderPartial(w, r, "expense_form.html", "category_suggestion", suggestion)
}

// handleExpenseQuick parses free text like "Coffee 4.50" and lands on the
// prefilled expense form.
func (s *Server) handleExpenseQuick(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		http.Redirect(w, r, "/expenses/new", http.StatusSeeOther)
		return
	}

	description, cents := expense.QuickParse(text)
	vals := url.Values{}
	vals.Set("description", description)
	if cents > 0 {
		vals.Set("amount", money.New(cents, s.currency).String())
	}
	http.Redirect(w, r, "/expenses/new?"+vals.Encode(), http.StatusSeeOther)
}
