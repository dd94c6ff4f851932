package hospital

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListDoctors(t *testing.T) {
	var gotPath, gotSpeciality, gotAt string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSpeciality = r.URL.Query().Get("speciality_name")
		gotAt = r.URL.Query().Get("at")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 7, "fullname": "Achieng Otieno", "speciality": "Cardiology", "department_name": "Medicine"},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil)
	doctors, err := c.ListDoctors(context.Background(), "Cardiology", "2025-01-10T10:00")
	if err != nil {
		t.Fatalf("ListDoctors error: %v", err)
	}
	if gotPath != "/api/v1/doctors" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotSpeciality != "Cardiology" || gotAt != "2025-01-10T10:00" {
		t.Fatalf("unexpected query: speciality=%q at=%q", gotSpeciality, gotAt)
	}
	if len(doctors) != 1 || doctors[0].ID != 7 || doctors[0].Fullname != "Achieng Otieno" {
		t.Fatalf("unexpected doctors: %+v", doctors)
	}
}

func TestGetDoctorCharge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/doctor7" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       7,
			"fullname": "Achieng Otieno",
			"speciality": map[string]any{
				"name":                "Cardiology",
				"appointment_charges": 1500,
				"treatment_charges":   3000,
				"department_name":     "Medicine",
			},
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil)
	charge, err := c.GetDoctorCharge(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetDoctorCharge error: %v", err)
	}
	if charge != 1500 {
		t.Fatalf("charge = %v, want 1500", charge)
	}
}

func TestCreateAppointmentSendsPayloadAndToken(t *testing.T) {
	var gotAuth string
	var gotBody AppointmentRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "doctor_id": 7, "appointment_datetime": gotBody.AppointmentDatetime,
			"reason": gotBody.Reason, "appointment_charges": 1500, "status": "scheduled",
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil)
	apt, err := c.CreateAppointment(context.Background(), "tok123", AppointmentRequest{
		DoctorID:            7,
		AppointmentDatetime: "2025-01-10T14:00",
		Reason:              "checkup",
	})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.DoctorID != 7 || gotBody.AppointmentDatetime != "2025-01-10T14:00" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
	if apt.ID != 42 || apt.Status != "scheduled" {
		t.Fatalf("unexpected appointment: %+v", apt)
	}
}

func TestUpdateAppointmentPath(t *testing.T) {
	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil)
	if _, err := c.UpdateAppointment(context.Background(), "tok", 9, AppointmentRequest{DoctorID: 7}); err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/v1/appointment/9" {
		t.Fatalf("got %s %s", gotMethod, gotPath)
	}
}

func TestUpstreamDetailSurfacesInError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"detail": "Doctor is not available at the given time. Try other times."})
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil)
	_, err := c.CreateAppointment(context.Background(), "tok", AppointmentRequest{DoctorID: 1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.Code != http.StatusBadRequest || se.Detail == "" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestLogoutHitsDjangoRoute(t *testing.T) {
	var gotPath, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, nil)
	if err := c.Logout(context.Background(), "tok456"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if gotPath != "/d/user/logout" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok456" {
		t.Fatalf("unexpected auth %q", gotAuth)
	}
}
