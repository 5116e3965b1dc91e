package profile

// The profile shape is an external data contract: base fields plus three
// role-specific sub-objects. The orchestrator slices it by field name.

// Kid is one child entry in the parent profile
type Kid struct {
	Name   string `json:"name"`
	Age    int    `json:"age,omitempty"`
	School string `json:"school,omitempty"`
}

// Exam is one upcoming exam entry in the student profile
type Exam struct {
	Course string `json:"course"`
	Date   string `json:"date,omitempty"` // ISO instant when known
}

// ParentProfile holds parent-role profile data
type ParentProfile struct {
	Kids            []Kid    `json:"kids,omitempty"`
	Schools         []string `json:"schools,omitempty"`
	RecurringEvents []string `json:"recurring_events,omitempty"`
}

// StudentProfile holds student-role profile data
type StudentProfile struct {
	Degree        string   `json:"degree,omitempty"`
	Year          string   `json:"year,omitempty"`
	Courses       []string `json:"courses,omitempty"`
	UpcomingExams []Exam   `json:"upcoming_exams,omitempty"`
}

// JobProfile holds job-seeker profile data
type JobProfile struct {
	TargetRoles         []string `json:"target_roles,omitempty"`
	TargetLocations     []string `json:"target_locations,omitempty"`
	SalaryBand          string   `json:"salary_band,omitempty"`
	CompaniesOfInterest []string `json:"companies_of_interest,omitempty"`
}

// UserProfile is the complete profile across all roles
type UserProfile struct {
	UserID  string         `json:"user_id"`
	Name    string         `json:"name"`
	City    string         `json:"city,omitempty"`
	Parent  ParentProfile  `json:"parent"`
	Student StudentProfile `json:"student"`
	Job     JobProfile     `json:"job"`
}

// StaticSlice returns the fields relevant to a base role. Unknown roles get
// the base fields only.
func (p *UserProfile) StaticSlice(role string) map[string]interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	base := map[string]interface{}{
		"name": p.Name,
		"city": p.City,
	}

	switch role {
	case "parent":
		base["kids"] = p.Parent.Kids
		base["schools"] = p.Parent.Schools
		base["recurring_events"] = p.Parent.RecurringEvents
	case "student":
		base["degree"] = p.Student.Degree
		base["year"] = p.Student.Year
		base["courses"] = p.Student.Courses
		base["upcoming_exams"] = p.Student.UpcomingExams
	case "job":
		base["target_roles"] = p.Job.TargetRoles
		base["target_locations"] = p.Job.TargetLocations
		base["salary_band"] = p.Job.SalaryBand
		base["companies_of_interest"] = p.Job.CompaniesOfInterest
	}
	return base
}

// CrossRoleSlice returns the small, hand-mapped borrow of another persona's
// profile fields. This is policy configuration kept as a reviewable table,
// not a generic merge.
func (p *UserProfile) CrossRoleSlice(role string) map[string]interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	switch role {
	case "job":
		// Job hunting surfaces education background
		if p.Student.Degree != "" {
			out["degree"] = p.Student.Degree
		}
		if len(p.Student.Courses) > 0 {
			out["courses"] = p.Student.Courses
		}
	case "student":
		// Studying surfaces career goals
		if len(p.Job.TargetRoles) > 0 {
			out["career_goals"] = p.Job.TargetRoles
		}
	case "parent":
		// Family planning surfaces the academic calendar
		if len(p.Student.UpcomingExams) > 0 {
			out["upcoming_exams"] = p.Student.UpcomingExams
		}
	}
	return out
}
