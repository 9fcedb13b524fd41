package server

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/shrine-live/internal/ui/i18n"
	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

// langCookie remembers an explicit language choice.
const langCookie = "shrine_lang"

type navLink struct {
	Label  string
	Href   string
	Active bool
}

type basePageData struct {
	SiteName       string
	PageTitle      string
	StylesheetPath string
	CurrentPath    string
	CurrentYear    int
	Lang           string
	L              *i18n.Localizer
	Languages      []model.LanguageOption
	Nav            []navLink
	Notification   template.HTML
}

type homePageData struct {
	basePageData
}

type livestreamPageData struct {
	basePageData
	Broadcast *model.Broadcast
	IsLive    bool
	Started   string
	StartsAt  string
	Viewers   string
}

type prayerPageData struct {
	basePageData
	State      model.PrayerFormState
	NoticeText string
	FormAction string
	ResetURL   string
}

// localizer picks the language for r. A supported ?lang= value is stored in
// a cookie so later pages keep it.
func (s *server) localizer(w http.ResponseWriter, r *http.Request) *i18n.Localizer {
	explicit := strings.TrimSpace(r.URL.Query().Get("lang"))
	if explicit != "" && s.catalog.Supported(strings.ToLower(explicit)) {
		http.SetCookie(w, &http.Cookie{
			Name:     langCookie,
			Value:    strings.ToLower(explicit),
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	} else if cookie, err := r.Cookie(langCookie); err == nil {
		explicit = cookie.Value
	}
	lang := s.catalog.Match(r.Header.Get("Accept-Language"), explicit)
	return s.catalog.Localizer(lang)
}

func (s *server) buildBasePageData(r *http.Request, l *i18n.Localizer, titleKey string) basePageData {
	path := r.URL.Path
	nav := []navLink{
		{Label: l.T("nav.home"), Href: "/"},
		{Label: l.T("nav.livestream"), Href: "/livestream"},
		{Label: l.T("nav.prayer"), Href: "/prayer-request"},
	}
	for i := range nav {
		nav[i].Active = nav[i].Href == path
	}
	return basePageData{
		SiteName:       s.siteName,
		PageTitle:      l.T(titleKey) + " · " + s.siteName,
		StylesheetPath: "/styles.css",
		CurrentPath:    path,
		CurrentYear:    s.currentYear,
		Lang:           l.Lang(),
		L:              l,
		Languages:      s.catalog.Options(),
		Nav:            nav,
		Notification:   s.notification(r, l),
	}
}

// visibility is the state a fresh page mount starts from.
func (s *server) visibility(r *http.Request) livestream.Visibility {
	if s.feed == nil {
		return livestream.Visibility{}
	}
	return s.feed.Visibility(r.Context(), s.clearOnLapse)
}

func (s *server) notification(r *http.Request, l *i18n.Localizer) template.HTML {
	v := s.visibility(r)
	markup, err := s.renderer.Render(v.View(), l, s.location)
	if err != nil {
		s.logger.Error("http", "render notification", err, map[string]any{"path": r.URL.Path})
		return ""
	}
	return markup
}
