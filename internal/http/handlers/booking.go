package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwangaza-health/booking-gateway/internal/booking"
	"github.com/mwangaza-health/booking-gateway/internal/hospital"
	"github.com/mwangaza-health/booking-gateway/internal/notify"
	"github.com/mwangaza-health/booking-gateway/internal/observability/metrics"
	"github.com/mwangaza-health/booking-gateway/internal/session"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// Booking serves the form lifecycle: open, mutate field by field, submit,
// close. Each form carries its own notice feed, drained into every
// response so the client can render toasts.
type Booking struct {
	registry  *booking.Registry
	directory booking.Directory
	scheduler booking.Scheduler
	session   *session.Store
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger

	mu    sync.Mutex
	feeds map[string]*notify.Feed
}

// NewBooking creates the booking handler set.
func NewBooking(registry *booking.Registry, directory booking.Directory, scheduler booking.Scheduler, sess *session.Store, m *metrics.BookingMetrics, logger *logging.Logger) *Booking {
	if logger == nil {
		logger = logging.Default()
	}
	return &Booking{
		registry:  registry,
		directory: directory,
		scheduler: scheduler,
		session:   sess,
		metrics:   m,
		logger:    logger,
		feeds:     make(map[string]*notify.Feed),
	}
}

type formEnvelope struct {
	FormID  string          `json:"form_id"`
	State   booking.State   `json:"state"`
	Notices []notify.Notice `json:"notices"`
}

type createFormRequest struct {
	// Appointment switches the form into edit mode, pre-filled from the
	// existing booking.
	Appointment *hospital.Appointment `json:"appointment"`
}

type updateFormRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// CreateForm opens a new booking form (or an edit form when the body
// carries an existing appointment) and loads the speciality list.
func (h *Booking) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req createFormRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	feed := notify.NewFeed(16)
	var formID string
	form := booking.NewForm(booking.Config{
		Directory: h.directory,
		Scheduler: h.scheduler,
		Notifier:  notify.Multi(feed, notify.NewLog(h.logger)),
		Logger:    h.logger,
		Metrics:   h.metrics,
		Token:     h.session.Token,
		OnSuccess: func() { h.closeForm(formID) },
		Edit:      req.Appointment,
	})
	formID = h.registry.Add(form)

	h.mu.Lock()
	h.feeds[formID] = feed
	h.mu.Unlock()

	form.Init(r.Context())

	writeJSON(w, http.StatusCreated, formEnvelope{
		FormID:  formID,
		State:   form.State(),
		Notices: feed.Drain(),
	})
}

// GetForm returns the current rendered state of a form.
func (h *Booking) GetForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	form, feed, ok := h.lookup(formID)
	if !ok {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}
	writeJSON(w, http.StatusOK, formEnvelope{
		FormID:  formID,
		State:   form.State(),
		Notices: feed.Drain(),
	})
}

// UpdateForm applies one field mutation and returns the resulting state.
func (h *Booking) UpdateForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	form, feed, ok := h.lookup(formID)
	if !ok {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}

	var req updateFormRequest
	if err := decodeJSON(r, &req); err != nil || req.Field == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := form.SetField(r.Context(), req.Field, req.Value); {
	case errors.Is(err, booking.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "unknown field "+req.Field)
		return
	case errors.Is(err, booking.ErrBadDoctorID):
		writeError(w, http.StatusBadRequest, "doctor_id must be numeric")
		return
	case errors.Is(err, booking.ErrDoctorsLoading):
		writeError(w, http.StatusConflict, "doctor list is refreshing, retry shortly")
		return
	}

	writeJSON(w, http.StatusOK, formEnvelope{
		FormID:  formID,
		State:   form.State(),
		Notices: feed.Drain(),
	})
}

// SubmitForm dispatches the draft upstream. A successful submission
// closes the form; the response still carries its final state and the
// success notice.
func (h *Booking) SubmitForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	form, feed, ok := h.lookup(formID)
	if !ok {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}

	err := form.Submit(r.Context())
	switch {
	case errors.Is(err, booking.ErrSubmitInFlight), errors.Is(err, booking.ErrDoctorsLoading):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, booking.ErrNoDoctorSelected), errors.Is(err, booking.ErrBadDoctorID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, formEnvelope{
		FormID:  formID,
		State:   form.State(),
		Notices: feed.Drain(),
	})
}

// DeleteForm discards a form (the modal closed without booking).
func (h *Booking) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	if !h.closeForm(formID) {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Slots is the stateless slot listing for a date.
func (h *Booking) Slots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"min_date": booking.MinSelectableDate(now),
		"slots":    booking.Slots(date, now),
	})
}

// Specialities proxies the speciality list without opening a form.
func (h *Booking) Specialities(w http.ResponseWriter, r *http.Request) {
	specialities, err := h.directory.ListSpecialities(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch specialities", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to load specialities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"specialities": specialities})
}

func (h *Booking) lookup(formID string) (*booking.Form, *notify.Feed, bool) {
	form, ok := h.registry.Get(formID)
	if !ok {
		// The registry sweeper may have expired the form; drop the
		// orphaned feed with it.
		h.mu.Lock()
		delete(h.feeds, formID)
		h.mu.Unlock()
		return nil, nil, false
	}
	h.mu.Lock()
	feed, ok := h.feeds[formID]
	h.mu.Unlock()
	if !ok {
		feed = notify.NewFeed(16)
	}
	return form, feed, true
}

func (h *Booking) closeForm(formID string) bool {
	ok := h.registry.Remove(formID)
	h.mu.Lock()
	delete(h.feeds, formID)
	h.mu.Unlock()
	return ok
}
