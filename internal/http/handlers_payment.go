package http

import (
	"fmt"
	"net/http"

	"paytrack/internal/core"
	applog "paytrack/internal/log"
	"paytrack/internal/services"
	"paytrack/internal/validate"
)

// paymentRequest is the body of create and update calls. PhotoSizes, when
// sent, declares the byte size of each referenced photo, one entry per photo.
type paymentRequest struct {
	services.PaymentInput
	PhotoSizes []int64 `json:"photo_sizes,omitempty"`
}

func (p paymentRequest) input() (services.PaymentInput, error) {
	in := p.PaymentInput
	in.Title = sanitizeInput(in.Title)
	in.Description = sanitizeInput(in.Description)
	if p.PhotoSizes != nil && len(p.PhotoSizes) != len(in.Photos) {
		return in, core.NewValidationError(core.FieldPhotos,
			fmt.Sprintf("photo_sizes has %d entries for %d photos", len(p.PhotoSizes), len(in.Photos)))
	}
	for i, size := range p.PhotoSizes {
		if !validate.PhotoSize(size) {
			return in, core.NewValidationError(core.FieldPhotos,
				fmt.Sprintf("photo %d exceeds the %d byte limit", i+1, validate.MaxPhotoBytes))
		}
	}
	return in, nil
}

type paymentList struct {
	Payments []core.PaymentListItem `json:"payments"`
	Count    int                    `json:"count"`
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	var (
		items []core.PaymentListItem
		err   error
	)
	query := r.URL.Query()
	if hasFilter(query) {
		c, perr := ParseCriteria(query)
		if perr != nil {
			writeError(w, r, perr)
			return
		}
		items, err = s.payments.ListFiltered(r.Context(), c)
	} else {
		items, err = s.payments.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.PaymentListItem{}
	}
	NewJSONResponse().Body(paymentList{Payments: items, Count: len(items)}).Write(w)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	d, err := s.payments.Details(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(d).Write(w)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.payments.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.metrics.paymentMutations.WithLabelValues(applog.OpCreate).Inc()
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Payment created",
		applog.NewFields().WithPayment(d.ID, d.Title, d.Amount, d.Category.String()).ToSlice()...)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/payments/"+d.ID).
		Body(d).
		Write(w)
}

// handleUpdatePayment answers 200 with the stored details, or 204 when the
// store tolerated an unknown id and nothing changed.
func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.payments.Update(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.payments.Details(r.Context(), id)
	if err != nil {
		if core.IsNotFound(err) {
			NewJSONResponse().Status(http.StatusNoContent).Write(w)
			return
		}
		writeError(w, r, err)
		return
	}
	s.metrics.paymentMutations.WithLabelValues(applog.OpUpdate).Inc()
	NewJSONResponse().Body(d).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.payments.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.metrics.paymentMutations.WithLabelValues(applog.OpDelete).Inc()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.payments.Breakdown(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(b).Write(w)
}

func handleCategories(w http.ResponseWriter, _ *http.Request) {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	NewJSONResponse().Body(map[string]any{"categories": names, "default": core.DefaultCategory}).Write(w)
}
