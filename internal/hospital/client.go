// Package hospital is the REST client for the upstream hospital
// management API, which owns scheduling, charging and authentication.
// The gateway never re-implements those decisions; it only relays them.
package hospital

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mwangaza-health/booking-gateway/pkg/logging"
)

const (
	defaultTimeout = 20 * time.Second

	apiPrefix  = "/api/v1"
	logoutPath = "/d/user/logout"
)

// StatusError is returned when the upstream responds outside the 2xx range.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("hospital: status %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("hospital: status %d", e.Code)
}

// Client talks to the hospital API over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a hospital API client rooted at endpoint.
func NewClient(endpoint string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListSpecialities returns the names of all bookable specialities.
func (c *Client) ListSpecialities(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/specialities", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDoctors returns the doctors of a speciality who work at the given
// datetime ("2006-01-02T15:04"). An empty list means nobody is available.
func (c *Client) ListDoctors(ctx context.Context, speciality, at string) ([]Doctor, error) {
	q := url.Values{}
	q.Set("speciality_name", speciality)
	q.Set("at", at)

	var out []Doctor
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/doctors?"+q.Encode(), "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDoctorCharge returns the appointment charge quoted for a doctor.
func (c *Client) GetDoctorCharge(ctx context.Context, doctorID int64) (float64, error) {
	var out DoctorDetails
	// The upstream route is /doctor{id} with no separator.
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/doctor%d", apiPrefix, doctorID), "", nil, &out); err != nil {
		return 0, err
	}
	return out.Speciality.AppointmentCharges, nil
}

// CreateAppointment books a new appointment on behalf of the patient
// identified by token.
func (c *Client) CreateAppointment(ctx context.Context, token string, req AppointmentRequest) (*Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/appointment", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAppointment reschedules an existing appointment.
func (c *Client) UpdateAppointment(ctx context.Context, token string, id int64, req AppointmentRequest) (*Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/appointment/%d", apiPrefix, id), token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile fetches the patient profile for the given token.
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the upstream session for token. Callers treat the
// result as best effort; the local session is cleared regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, logoutPath, token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("hospital: marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("hospital: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hospital: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("hospital: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Detail: extractDetail(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("hospital: unmarshal response: %w", err)
	}
	return nil
}

// extractDetail pulls the upstream's {"detail": "..."} message when
// present, otherwise a truncated copy of the raw body.
func extractDetail(body []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	msg := string(body)
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
