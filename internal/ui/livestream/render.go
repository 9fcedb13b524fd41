package livestream

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/i18n"
	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

//go:embed templates/notification.tmpl
var templateFS embed.FS

// Renderer produces the notification markup.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded notification template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/notification.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse notification template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Templates exposes the parsed template set so page templates can include
// the "notification" block.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

// NotificationData is the template input for one notification.
type NotificationData struct {
	Broadcast   model.Broadcast
	IsLive      bool
	Theme       string
	Accent      string
	AccentHover string
	Compact     bool
	Viewers     string
	Started     string
	StartsAt    string
	L           *i18n.Localizer
}

// Data prepares template input for view. It returns nil for a nil view.
func Data(view *NotificationView, l *i18n.Localizer, loc *time.Location) *NotificationData {
	if view == nil {
		return nil
	}
	accent, hover := "bg-green-600", "bg-green-600 hover:bg-green-700"
	if view.IsLive {
		accent, hover = "bg-red-600", "bg-red-600 hover:bg-red-700"
	}
	return &NotificationData{
		Broadcast:   view.Broadcast,
		IsLive:      view.IsLive,
		Theme:       view.Theme,
		Accent:      accent,
		AccentHover: hover,
		Compact:     l.Compact(),
		Viewers:     l.Number(max(view.Broadcast.ViewerCount, 0)),
		Started:     FormatClock(view.Broadcast.StartedAt, loc, l.T("livestream.notification.recently")),
		StartsAt:    FormatClock(view.Broadcast.ScheduledAt, loc, l.T("livestream.notification.soon.fallback")),
		L:           l,
	}
}

// Render returns the notification markup for view, or empty markup when the
// notification is suppressed.
func (r *Renderer) Render(view *NotificationView, l *i18n.Localizer, loc *time.Location) (template.HTML, error) {
	data := Data(view, l, loc)
	if data == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "notification", data); err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return template.HTML(buf.String()), nil
}
