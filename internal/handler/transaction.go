package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// transactionRequest is the body of create and update. Absent fields stay nil.
type transactionRequest struct {
	Amount      *decimal.Decimal        `json:"amount"`
	Description *string                 `json:"description"`
	Type        *models.TransactionType `json:"type"`
	CategoryID  *int64                  `json:"categoryId"`
	Date        *string                 `json:"date"`
	Notes       *string                 `json:"notes"`
	Tags        *[]string               `json:"tags"`
	Location    *string                 `json:"location"`
	Receipt     *string                 `json:"receipt"`
}

// parseDate accepts RFC 3339 timestamps and plain dates
func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, models.WrapError(models.KindValidation, err, "%s must be a date", field)
	}
	return t, nil
}

func (req transactionRequest) patch() (service.TransactionPatch, error) {
	p := service.TransactionPatch{
		Amount:      req.Amount,
		Description: req.Description,
		Type:        req.Type,
		CategoryID:  req.CategoryID,
		Notes:       req.Notes,
		Tags:        req.Tags,
		Location:    req.Location,
		Receipt:     req.Receipt,
	}
	if req.Date != nil {
		d, err := parseDate("Date", *req.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	return p, nil
}

func (req transactionRequest) input() (service.TransactionInput, error) {
	p, err := req.patch()
	if err != nil {
		return service.TransactionInput{}, err
	}
	in := service.TransactionInput{Date: p.Date}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Type != nil {
		in.Type = *p.Type
	}
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
	}
	if p.Notes != nil {
		in.Notes = *p.Notes
	}
	if p.Tags != nil {
		in.Tags = *p.Tags
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.Receipt != nil {
		in.Receipt = *p.Receipt
	}
	return in, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, models.NewError(models.KindValidation, "%s must be a positive integer", key)
	}
	return n, nil
}

// transactionFilter reads the list query. A plain endDate covers the whole day.
func transactionFilter(userID int64, q url.Values) (models.TransactionFilter, int, error) {
	f := models.TransactionFilter{UserID: userID, Type: models.TransactionType(q.Get("type"))}
	page, err := queryInt(q, "page", 1)
	if err != nil {
		return f, 0, err
	}
	if f.Limit, err = queryInt(q, "limit", 10); err != nil {
		return f, 0, err
	}
	if v := q.Get("category"); v != "" {
		if f.CategoryID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return f, 0, models.NewError(models.KindValidation, "category must be an id")
		}
	}
	if v := q.Get("startDate"); v != "" {
		start, err := parseDate("startDate", v)
		if err != nil {
			return f, 0, err
		}
		f.StartDate = &start
	}
	if v := q.Get("endDate"); v != "" {
		end, err := parseDate("endDate", v)
		if err != nil {
			return f, 0, err
		}
		if len(v) == len(dateLayout) {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		f.EndDate = &end
	}
	return f, page, nil
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filter, page, err := transactionFilter(userID, r.URL.Query())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.ListTransactions(r.Context(), filter, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       res.Transactions,
		Pagination: &Pagination{Page: res.Page, Limit: res.Limit, Total: res.Total, Pages: res.Pages},
	})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	t, err := h.svc.GetTransaction(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, t)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.CreateTransaction(r.Context(), userID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: res.Transaction, Balance: &res.Balance})
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.UpdateTransaction(r.Context(), userID, id, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: res.Transaction, Balance: &res.Balance})
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.DeleteTransaction(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Transaction deleted successfully", Balance: &res.Balance})
}

// Stats aggregates the caller's transactions over the period query parameter
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	stats, err := h.svc.GetStats(r.Context(), userID, models.Period(r.URL.Query().Get("period")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, stats)
}
