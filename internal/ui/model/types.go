package model

// Broadcast is a livestream entry reported by the shrine backend.
type Broadcast struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	StreamURL    string `json:"stream_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	IsActive     bool   `json:"is_active"`
	IsScheduled  bool   `json:"is_scheduled"`
	ScheduledAt  string `json:"scheduled_at,omitempty"`
	StartedAt    string `json:"started_at,omitempty"`
	ViewerCount  int    `json:"viewer_count"`
}

// ActiveResponse matches the envelope served by GET /api/livestreams/active.
type ActiveResponse struct {
	Success bool       `json:"success"`
	Data    *Broadcast `json:"data"`
}

// UpcomingResponse matches the envelope served by GET /api/livestreams/upcoming.
// Data is ordered soonest first.
type UpcomingResponse struct {
	Success bool        `json:"success"`
	Data    []Broadcast `json:"data"`
}

// PrayerRequest is the payload posted when creating a prayer request.
type PrayerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Prayer string `json:"prayer"`
}

// PrayerResponse captures the backend's reply to POST /api/prayers.
type PrayerResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// PrayerFormErrors groups validation flags for the prayer request form.
type PrayerFormErrors struct {
	Name   bool
	Prayer bool
}

// Any reports whether any field failed validation.
func (e PrayerFormErrors) Any() bool {
	return e.Name || e.Prayer
}

// Notice is a toaster-style message shown after a form action. Key names the
// localized string; Message is the English text.
type Notice struct {
	Tone    string
	Key     string
	Message string
}

const (
	// NoticeSuccess marks an affirmative notice.
	NoticeSuccess = "success"
	// NoticeError marks a failure notice.
	NoticeError = "error"
)

// PrayerFormState represents the fully-rendered prayer request form state.
type PrayerFormState struct {
	Form      PrayerRequest
	Errors    PrayerFormErrors
	Submitted bool
	Notice    *Notice
}

// LanguageOption provides label/value pairs for the language picker.
type LanguageOption struct {
	Label string
	Value string
}
