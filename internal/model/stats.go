package model

// DoctorStats feeds the doctor dashboard.
type DoctorStats struct {
	ByStatus          map[AppointmentStatus]int `json:"byStatus"`
	TotalAppointments int                       `json:"totalAppointments"`
	DistinctPatients  int                       `json:"distinctPatients"`
	TodayAppointments int                       `json:"todayAppointments"`
	Rating            RatingAggregate           `json:"rating"`
}

type PatientStats struct {
	Upcoming   int   `json:"upcoming"`
	Completed  int   `json:"completed"`
	Cancelled  int   `json:"cancelled"`
	Total      int   `json:"total"`
	TotalSpent int64 `json:"totalSpent"`
}

type AdminStats struct {
	UsersByRole           map[Role]int              `json:"usersByRole"`
	AppointmentsByStatus  map[AppointmentStatus]int `json:"appointmentsByStatus"`
	SuccessfulPayments    int                       `json:"successfulPayments"`
	SuccessfulPaymentsSum int64                     `json:"successfulPaymentsSum"`
}
