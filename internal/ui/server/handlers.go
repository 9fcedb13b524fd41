package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
	"github.com/Its-donkey/shrine-live/internal/ui/model"
	"github.com/Its-donkey/shrine-live/internal/ui/prayer"
)

type healthResponse struct {
	Status        string `json:"status"`
	LivestreamSeq uint64 `json:"livestream_seq"`
	Livestream    string `json:"livestream"`
	Error         string `json:"error,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Livestream: livestream.KindNone.String()}
	if s.feed != nil {
		if obs, ok := s.feed.Latest(r.Context()); ok {
			resp.LivestreamSeq = obs.Seq
			resp.Livestream = obs.Kind.String()
		}
	}
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
			render.Status(r, http.StatusServiceUnavailable)
		}
	}
	render.JSON(w, r, resp)
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	l := s.localizer(w, r)
	data := homePageData{basePageData: s.buildBasePageData(r, l, "home.title")}
	s.execute(w, "home", data, http.StatusOK)
}

func (s *server) handleLivestream(w http.ResponseWriter, r *http.Request) {
	l := s.localizer(w, r)
	data := livestreamPageData{basePageData: s.buildBasePageData(r, l, "livestream.page.title")}
	if b, live := s.visibility(r).Current(); b != nil {
		data.Broadcast = b
		data.IsLive = live
		data.Viewers = l.Number(max(b.ViewerCount, 0))
		data.Started = livestream.FormatClock(b.StartedAt, s.location, l.T("livestream.notification.recently"))
		data.StartsAt = livestream.FormatClock(b.ScheduledAt, s.location, l.T("livestream.notification.soon.fallback"))
	}
	s.execute(w, "livestream", data, http.StatusOK)
}

// handleNotificationFragment serves only the notification markup, or 204
// when nothing should be shown.
func (s *server) handleNotificationFragment(w http.ResponseWriter, r *http.Request) {
	l := s.localizer(w, r)
	markup := s.notification(r, l)
	if markup == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(markup))
}

func (s *server) handlePrayerForm(w http.ResponseWriter, r *http.Request) {
	var state model.PrayerFormState
	if r.URL.Query().Get("submitted") == "1" {
		state.Submitted = true
		notice := prayer.NoticeSuccess
		state.Notice = &notice
	}
	s.renderPrayer(w, r, state, http.StatusOK)
}

func (s *server) handlePrayerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	state := model.PrayerFormState{
		Form: model.PrayerRequest{
			Name:   r.PostFormValue("name"),
			Email:  r.PostFormValue("email"),
			Prayer: r.PostFormValue("prayer"),
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	s.prayers.Submit(ctx, &state)

	switch {
	case state.Submitted:
		http.Redirect(w, r, "/prayer-request?submitted=1", http.StatusSeeOther)
	case state.Errors.Any():
		s.renderPrayer(w, r, state, http.StatusUnprocessableEntity)
	default:
		s.renderPrayer(w, r, state, http.StatusBadGateway)
	}
}

func (s *server) handlePrayerReset(w http.ResponseWriter, r *http.Request) {
	var state model.PrayerFormState
	s.prayers.Reset(&state)
	http.Redirect(w, r, "/prayer-request", http.StatusSeeOther)
}

func (s *server) renderPrayer(w http.ResponseWriter, r *http.Request, state model.PrayerFormState, status int) {
	l := s.localizer(w, r)
	data := prayerPageData{
		basePageData: s.buildBasePageData(r, l, "prayer.request.title"),
		State:        state,
		FormAction:   "/prayer-request",
		ResetURL:     "/prayer-request/reset",
	}
	if state.Notice != nil {
		data.NoticeText = l.T(state.Notice.Key)
		if data.NoticeText == state.Notice.Key && strings.TrimSpace(state.Notice.Message) != "" {
			data.NoticeText = state.Notice.Message
		}
	}
	s.execute(w, "prayer", data, status)
}

func (s *server) execute(w http.ResponseWriter, name string, data any, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status > 0 {
		w.WriteHeader(status)
	}
	if err := s.templates[name].ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("http", "render "+name, err, nil)
	}
}
