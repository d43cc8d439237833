package console

import (
	"time"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
)

type (
	Announcement struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		Audience  string    `json:"audience"`
		CreatedBy string    `json:"createdBy"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Contest struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Deadline    time.Time `json:"deadline"`
		Audience    string    `json:"audience"`
		CreatedBy   string    `json:"createdBy"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	PracticeSet struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		FocusArea   string    `json:"focusArea"`
		Description string    `json:"description"`
		ResourceURL string    `json:"resourceUrl"`
		Audience    string    `json:"audience"`
		CreatedBy   string    `json:"createdBy"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// Dashboard is the admin console snapshot, tailored to the viewer.
	Dashboard struct {
		Users         []account.Profile `json:"users"`
		Announcements []Announcement    `json:"announcements"`
		Contests      []Contest         `json:"contests"`
		PracticeSets  []PracticeSet     `json:"practiceSets"`
		Viewer        account.Profile   `json:"viewer"`
	}
)

type (
	NewAnnouncement struct {
		Title    string `json:"title" validate:"notblank,max=200"`
		Message  string `json:"message" validate:"notblank,max=5000"`
		Audience string `json:"audience" validate:"max=120"`
	}

	NewContest struct {
		Name        string `json:"name" validate:"notblank,max=200"`
		Description string `json:"description" validate:"notblank,max=5000"`
		Deadline    string `json:"deadline" validate:"notblank,deadline"`
		Audience    string `json:"audience" validate:"max=120"`
	}

	NewPracticeSet struct {
		Title       string `json:"title" validate:"notblank,max=200"`
		FocusArea   string `json:"focusArea" validate:"notblank,max=120"`
		Description string `json:"description" validate:"notblank,max=5000"`
		ResourceURL string `json:"resourceUrl" validate:"omitempty,url,max=2048"`
		Audience    string `json:"audience" validate:"max=120"`
	}

	UpdateRole struct {
		UserID       string `json:"userId" validate:"notblank"`
		Role         string `json:"role" validate:"notblank,role"`
		Organization string `json:"organization" validate:"max=120"`
	}

	UpdateStatus struct {
		UserID string `json:"userId" validate:"notblank"`
		Status string `json:"status" validate:"notblank,status"`
	}
)

func (na *NewAnnouncement) clean() {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	na.Audience = core.CleanString(na.Audience)
}

func (nc *NewContest) clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Deadline = core.CleanString(nc.Deadline)
	nc.Audience = core.CleanString(nc.Audience)
}

func (np *NewPracticeSet) clean() {
	np.Title = core.CleanString(np.Title)
	np.FocusArea = core.CleanString(np.FocusArea)
	np.Description = core.CleanString(np.Description)
	np.ResourceURL = core.CleanString(np.ResourceURL)
	np.Audience = core.CleanString(np.Audience)
}

func (ur *UpdateRole) clean() {
	ur.UserID = core.CleanString(ur.UserID)
	ur.Role = core.CleanString(ur.Role, true /* lower */)
	ur.Organization = core.CleanString(ur.Organization)
}

func (us *UpdateStatus) clean() {
	us.UserID = core.CleanString(us.UserID)
	us.Status = core.CleanString(us.Status, true /* lower */)
}
