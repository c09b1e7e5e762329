package model

// DashboardStats aggregates booking and user counts for the admin dashboard.
type DashboardStats struct {
	TotalAppointments int64      `json:"total_appointments"`
	Approved          int64      `json:"approved"`
	Pending           int64      `json:"pending"`
	Rejected          int64      `json:"rejected"`
	TotalDoctors      int64      `json:"total_doctors"`
	TotalPatients     int64      `json:"total_patients"`
	Upcoming          []*Booking `json:"upcoming_appointments"`
}

// WeeklyCount is the number of bookings created on one day of the last week.
type WeeklyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"appointments"`
}
