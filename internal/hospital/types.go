package hospital

// Doctor is an entry from the upstream doctor directory, filtered by
// speciality and requested appointment time.
type Doctor struct {
	ID             int64    `json:"id"`
	Fullname       string   `json:"fullname"`
	Speciality     string   `json:"speciality"`
	WorkingDays    []string `json:"working_days,omitempty"`
	DepartmentName string   `json:"department_name"`
}

// SpecialityDetails carries the charges attached to a doctor's speciality.
type SpecialityDetails struct {
	Name               string  `json:"name"`
	AppointmentCharges float64 `json:"appointment_charges"`
	TreatmentCharges   float64 `json:"treatment_charges"`
	DepartmentName     string  `json:"department_name"`
}

// DoctorDetails is the response of the single-doctor endpoint.
type DoctorDetails struct {
	ID         int64             `json:"id"`
	Fullname   string            `json:"fullname"`
	Speciality SpecialityDetails `json:"speciality"`
}

// AppointmentRequest is the payload for creating or updating an
// appointment. The datetime is the upstream's naive local form,
// "2006-01-02T15:04", assembled from the selected date and slot.
type AppointmentRequest struct {
	DoctorID            int64  `json:"doctor_id"`
	AppointmentDatetime string `json:"appointment_datetime"`
	Reason              string `json:"reason"`
}

// Appointment is the upstream's echo of a created or updated appointment.
type Appointment struct {
	ID                  int64   `json:"id"`
	DoctorID            int64   `json:"doctor_id"`
	AppointmentDatetime string  `json:"appointment_datetime"`
	Reason              string  `json:"reason"`
	AppointmentCharges  float64 `json:"appointment_charges"`
	Status              string  `json:"status"`
}

// Profile is the patient profile cached in the session store.
type Profile struct {
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
}
