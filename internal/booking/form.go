package booking

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/mwangaza-health/booking-gateway/internal/hospital"
	"github.com/mwangaza-health/booking-gateway/internal/notify"
	"github.com/mwangaza-health/booking-gateway/internal/observability/metrics"
	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

// Directory provides the doctor-directory lookups the form depends on.
// *hospital.Client satisfies it.
type Directory interface {
	ListSpecialities(ctx context.Context) ([]string, error)
	ListDoctors(ctx context.Context, speciality, at string) ([]hospital.Doctor, error)
	GetDoctorCharge(ctx context.Context, doctorID int64) (float64, error)
}

// Scheduler submits assembled appointments upstream. *hospital.Client
// satisfies it.
type Scheduler interface {
	CreateAppointment(ctx context.Context, token string, req hospital.AppointmentRequest) (*hospital.Appointment, error)
	UpdateAppointment(ctx context.Context, token string, id int64, req hospital.AppointmentRequest) (*hospital.Appointment, error)
}

// TokenSource yields the bearer token to attach to submissions. It is
// read at submit time so a re-login mid-form picks up the new token.
type TokenSource func() string

var (
	ErrSubmitInFlight   = errors.New("booking: a submission is already in flight")
	ErrDoctorsLoading   = errors.New("booking: doctor lookup in progress")
	ErrNoDoctorSelected = errors.New("booking: no doctor selected")
	ErrUnknownField     = errors.New("booking: unknown field")
	ErrBadDoctorID      = errors.New("booking: doctor id is not numeric")
)

// Config wires a Form's collaborators.
type Config struct {
	Directory Directory
	Scheduler Scheduler
	Notifier  notify.Notifier
	Logger    *logging.Logger
	Metrics   *metrics.BookingMetrics
	Token     TokenSource
	OnSuccess func()
	Now       func() time.Time

	// Edit pre-fills the form from an existing appointment; nil means a
	// new booking.
	Edit *hospital.Appointment
}

// Form is the booking draft plus everything derived from it. Fields form
// a dependency chain: date gates time, {speciality, date, time} gate the
// doctor list, doctor gates the charge quote. Changing an upstream field
// invalidates everything downstream of it.
//
// Remote lookups run with the lock released and are tagged with the
// field snapshot that produced them; a result whose snapshot no longer
// matches is discarded rather than applied. The form it replaces let the
// last response win, which could surface doctors for a combination the
// user had already abandoned.
type Form struct {
	mu sync.Mutex

	directory Directory
	scheduler Scheduler
	notifier  notify.Notifier
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	token     TokenSource
	onSuccess func()
	now       func() time.Time

	editID  int64
	editing bool

	speciality string
	date       string
	timeOfDay  string
	doctorID   string
	reason     string

	specialities []string
	doctors      []hospital.Doctor
	charge       *float64

	loadingDoctors bool
	submitting     bool

	doctorFetchKey string
	chargeFetchFor string

	lastActive time.Time
}

// NewForm creates a booking form. Call Init to populate specialities.
func NewForm(cfg Config) *Form {
	f := &Form{
		directory: cfg.Directory,
		scheduler: cfg.Scheduler,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		token:     cfg.Token,
		onSuccess: cfg.OnSuccess,
		now:       cfg.Now,
	}
	if f.logger == nil {
		f.logger = logging.Default()
	}
	if f.notifier == nil {
		f.notifier = notify.NewLog(f.logger)
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.token == nil {
		f.token = func() string { return "" }
	}
	if apt := cfg.Edit; apt != nil {
		f.editing = true
		f.editID = apt.ID
		f.doctorID = strconv.FormatInt(apt.DoctorID, 10)
		f.reason = apt.Reason
		f.date, f.timeOfDay = SplitDateTime(apt.AppointmentDatetime)
	}
	f.lastActive = f.now()
	return f
}

// Init loads the speciality list. A failure is surfaced as an error
// notice and leaves the form usable for retry via another Init.
func (f *Form) Init(ctx context.Context) {
	start := f.now()
	specialities, err := f.directory.ListSpecialities(ctx)
	f.metrics.ObserveUpstream("specialities", statusLabel(err), f.now().Sub(start).Seconds())

	f.mu.Lock()
	f.touch()
	if err != nil {
		f.logger.Error("failed to fetch specialities", "error", err)
		f.notifier.Error("Failed to load specialities")
	} else {
		f.specialities = specialities
	}
	doctorID := f.doctorID
	f.doctorID = ""
	f.mu.Unlock()

	// An edit form opens with a doctor already chosen, so its quote is
	// fetched up front.
	if doctorID != "" {
		_ = f.SetDoctor(ctx, doctorID)
	}
}

// SetField routes a field mutation by name; field names mirror the wire
// form ("speciality", "date", "time", "doctor_id", "reason").
func (f *Form) SetField(ctx context.Context, field, value string) error {
	switch field {
	case "speciality":
		f.SetSpeciality(ctx, value)
	case "date":
		f.SetDate(ctx, value)
	case "time":
		f.SetTime(ctx, value)
	case "doctor_id":
		return f.SetDoctor(ctx, value)
	case "reason":
		f.SetReason(value)
	default:
		return ErrUnknownField
	}
	return nil
}

// SetDate selects a calendar date and always clears the chosen time,
// which in turn keeps the doctor list gated until a new time is picked.
func (f *Form) SetDate(ctx context.Context, date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if date == f.date {
		return
	}
	f.date = date
	f.timeOfDay = ""
	f.refreshDoctorsLocked(ctx)
}

// SetTime selects a time slot.
func (f *Form) SetTime(ctx context.Context, timeOfDay string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if timeOfDay == f.timeOfDay {
		return
	}
	f.timeOfDay = timeOfDay
	f.refreshDoctorsLocked(ctx)
}

// SetSpeciality selects a speciality.
func (f *Form) SetSpeciality(ctx context.Context, speciality string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if speciality == f.speciality {
		return
	}
	f.speciality = speciality
	f.refreshDoctorsLocked(ctx)
}

// SetReason updates the free-text reason; nothing depends on it.
func (f *Form) SetReason(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.reason = reason
}

// SetDoctor selects a doctor and fetches their charge quote. Clearing
// the selection drops the quote without a remote call. Selection is
// refused while the doctor list is being refreshed.
func (f *Form) SetDoctor(ctx context.Context, doctorID string) error {
	f.mu.Lock()
	f.touch()
	if f.loadingDoctors {
		f.mu.Unlock()
		return ErrDoctorsLoading
	}
	if doctorID == f.doctorID {
		f.mu.Unlock()
		return nil
	}
	f.doctorID = doctorID
	f.charge = nil
	f.chargeFetchFor = ""
	if doctorID == "" {
		f.mu.Unlock()
		return nil
	}

	id, err := strconv.ParseInt(doctorID, 10, 64)
	if err != nil {
		f.mu.Unlock()
		return ErrBadDoctorID
	}
	f.chargeFetchFor = doctorID
	f.mu.Unlock()

	start := f.now()
	charge, err := f.directory.GetDoctorCharge(ctx, id)
	f.metrics.ObserveUpstream("charge", statusLabel(err), f.now().Sub(start).Seconds())

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chargeFetchFor != doctorID {
		f.metrics.ObserveStaleDiscard("charge")
		return nil
	}
	if err != nil {
		f.logger.Error("failed to fetch doctor charges", "error", err, "doctor_id", id)
		f.notifier.Error("Failed to load appointment charges")
		return nil
	}
	f.charge = &charge
	return nil
}

// refreshDoctorsLocked re-derives the doctor list after an upstream
// field changed. Caller holds the lock; it is released around the remote
// call and re-held on return. The selected doctor and quote are cleared
// before the fetch so a slow response can never resurrect them.
func (f *Form) refreshDoctorsLocked(ctx context.Context) {
	if f.speciality == "" || f.date == "" || f.timeOfDay == "" {
		return
	}

	key := f.speciality + "|" + f.date + "|" + f.timeOfDay
	speciality := f.speciality
	at := CombineDateTime(f.date, f.timeOfDay)

	f.doctorID = ""
	f.charge = nil
	f.chargeFetchFor = ""
	f.doctors = nil
	f.loadingDoctors = true
	f.doctorFetchKey = key

	f.mu.Unlock()
	start := f.now()
	doctors, err := f.directory.ListDoctors(ctx, speciality, at)
	f.metrics.ObserveUpstream("doctors", statusLabel(err), f.now().Sub(start).Seconds())
	f.mu.Lock()

	if f.doctorFetchKey != key {
		f.metrics.ObserveStaleDiscard("doctors")
		return
	}
	f.loadingDoctors = false
	if err != nil {
		f.logger.Error("failed to fetch doctors", "error", err, "speciality", speciality, "at", at)
		f.notifier.Error("Failed to load available doctors")
		return
	}
	f.doctors = doctors
}

// Submit assembles the draft and dispatches it upstream: create for a
// new booking, update when editing. On success the form notifies and
// fires the completion callback exactly once; on failure every field is
// left intact for retry.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	f.touch()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if f.loadingDoctors {
		f.mu.Unlock()
		return ErrDoctorsLoading
	}
	if f.doctorID == "" {
		f.mu.Unlock()
		return ErrNoDoctorSelected
	}
	id, err := strconv.ParseInt(f.doctorID, 10, 64)
	if err != nil {
		f.mu.Unlock()
		return ErrBadDoctorID
	}

	req := hospital.AppointmentRequest{
		DoctorID:            id,
		AppointmentDatetime: CombineDateTime(f.date, f.timeOfDay),
		Reason:              f.reason,
	}
	editing, editID := f.editing, f.editID
	f.submitting = true
	f.mu.Unlock()

	action := "create"
	if editing {
		action = "update"
	}

	token := f.token()
	if editing {
		_, err = f.scheduler.UpdateAppointment(ctx, token, editID, req)
	} else {
		_, err = f.scheduler.CreateAppointment(ctx, token, req)
	}

	f.mu.Lock()
	f.submitting = false
	f.metrics.ObserveSubmit(action, statusLabel(err))
	if err != nil {
		f.logger.Error("failed to submit appointment", "error", err, "action", action)
		f.notifier.Error("Failed to submit appointment")
		f.mu.Unlock()
		return err
	}
	if editing {
		f.notifier.Success("Appointment updated successfully")
	} else {
		f.notifier.Success("Appointment created successfully")
	}
	onSuccess := f.onSuccess
	f.mu.Unlock()

	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

// State is a render-ready snapshot of the form.
type State struct {
	Editing      bool              `json:"editing"`
	Speciality   string            `json:"speciality"`
	DoctorID     string            `json:"doctor_id"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Reason       string            `json:"reason"`
	MinDate      string            `json:"min_date"`
	Slots        []string          `json:"slots"`
	Specialities []string          `json:"specialities"`
	Doctors      []hospital.Doctor `json:"doctors"`
	Charge       *float64          `json:"appointment_charges"`

	LoadingDoctors bool `json:"loading_doctors"`
	Submitting     bool `json:"submitting"`
	NoDoctors      bool `json:"no_doctors_available"`
	CanSubmit      bool `json:"can_submit"`
}

// State returns the current snapshot.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	s := State{
		Editing:        f.editing,
		Speciality:     f.speciality,
		DoctorID:       f.doctorID,
		Date:           f.date,
		Time:           f.timeOfDay,
		Reason:         f.reason,
		MinDate:        MinSelectableDate(now),
		Slots:          Slots(f.date, now),
		Specialities:   f.specialities,
		Doctors:        f.doctors,
		Charge:         f.charge,
		LoadingDoctors: f.loadingDoctors,
		Submitting:     f.submitting,
	}
	upstreamSet := f.speciality != "" && f.date != "" && f.timeOfDay != ""
	s.NoDoctors = upstreamSet && !f.loadingDoctors && len(f.doctors) == 0
	s.CanSubmit = !f.submitting && !f.loadingDoctors && f.doctorID != "" && len(f.doctors) > 0
	return s
}

// LastActive reports when the form was last touched; the registry uses
// it to expire abandoned forms.
func (f *Form) LastActive() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive
}

func (f *Form) touch() {
	f.lastActive = f.now()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
