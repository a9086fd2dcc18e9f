package models

import (
	"slices"
	"time"
)

// Platform is where an application was submitted.
type Platform string

const (
	PlatformLinkedIn       Platform = "LinkedIn"
	PlatformInternshala    Platform = "Internshala"
	PlatformCompanyWebsite Platform = "Company Website"
	PlatformNaukri         Platform = "Naukri"
	PlatformIndeed         Platform = "Indeed"
	PlatformOther          Platform = "Other"
)

var Platforms = []Platform{
	PlatformLinkedIn, PlatformInternshala, PlatformCompanyWebsite,
	PlatformNaukri, PlatformIndeed, PlatformOther,
}

func (p Platform) Valid() bool { return slices.Contains(Platforms, p) }

// Status is the stage an application has reached.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusShortlisted        Status = "Shortlisted"
	StatusInterviewScheduled Status = "Interview Scheduled"
	StatusSelected           Status = "Selected"
	StatusCompleted          Status = "Completed"
	StatusRejected           Status = "Rejected"
)

var Statuses = []Status{
	StatusApplied, StatusShortlisted, StatusInterviewScheduled,
	StatusSelected, StatusCompleted, StatusRejected,
}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Internship is one tracked application, owned by UserID.
type Internship struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	CompanyName  string     `json:"companyName"`
	Role         string     `json:"role"`
	Platform     Platform   `json:"platform"`
	AppliedDate  time.Time  `json:"appliedDate"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	NextStepDate *time.Time `json:"nextStepDate,omitempty"`
	Status       Status     `json:"status"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OwnerID implements auth.Owned.
func (i *Internship) OwnerID() string { return i.UserID }

// InternshipStats counts a user's applications per status.
type InternshipStats struct {
	Total              int `json:"total"`
	Applied            int `json:"applied"`
	Shortlisted        int `json:"shortlisted"`
	InterviewScheduled int `json:"interviewScheduled"`
	Selected           int `json:"selected"`
	Completed          int `json:"completed"`
	Rejected           int `json:"rejected"`
}

// Add records n applications in status s.
func (st *InternshipStats) Add(s Status, n int) {
	st.Total += n
	switch s {
	case StatusApplied:
		st.Applied += n
	case StatusShortlisted:
		st.Shortlisted += n
	case StatusInterviewScheduled:
		st.InterviewScheduled += n
	case StatusSelected:
		st.Selected += n
	case StatusCompleted:
		st.Completed += n
	case StatusRejected:
		st.Rejected += n
	}
}
