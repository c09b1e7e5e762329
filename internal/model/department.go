package model

// Departments is the fixed clinic department table. Loaded once at process
// start and immutable thereafter; there is no dynamic registration.
var Departments = []string{
	"General Consultation",
	"Dentistry",
	"Cardiology",
	"Dermatology",
	"ENT (Ear, Nose, Throat)",
	"Gynecology",
	"Pediatrics",
	"Orthopedics",
	"Ophthalmology (Eyes)",
	"Neurology",
	"Oncology",
	"Radiology",
	"Urology",
	"Gastroenterology",
	"Psychiatry",
	"Physiotherapy",
	"Nutrition & Dietetics",
	"Pulmonology",
	"Nephrology",
	"Emergency",
	"Infectious Diseases",
}

var departmentSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Departments))
	for _, d := range Departments {
		m[d] = struct{}{}
	}
	return m
}()

// ValidDepartment reports whether name is one of the fixed clinic departments.
func ValidDepartment(name string) bool {
	_, ok := departmentSet[name]
	return ok
}
