package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Its-donkey/shrine-live/internal/ui/i18n"
	"github.com/Its-donkey/shrine-live/internal/ui/livestream"
	"github.com/Its-donkey/shrine-live/internal/ui/model"
	"github.com/Its-donkey/shrine-live/internal/ui/prayer"
	"github.com/Its-donkey/shrine-live/internal/ui/state"
	"github.com/Its-donkey/shrine-live/logging"
)

type stubPrayerService struct {
	calls []model.PrayerRequest
	err   error
}

func (s *stubPrayerService) CreatePrayer(ctx context.Context, req model.PrayerRequest) error {
	s.calls = append(s.calls, req)
	return s.err
}

type testSite struct {
	handler http.Handler
	feed    *livestream.Feed
	prayers *stubPrayerService
}

func newTestSite(t *testing.T, mutate func(*Options)) *testSite {
	t.Helper()
	svc := &stubPrayerService{}
	feed := livestream.NewFeed(state.NewFeedCache(0), logging.Discard())
	opts := Options{
		SiteName:  "Shrine",
		AssetsDir: t.TempDir(),
		Location:  time.UTC,
		Feed:      feed,
		Prayers:   prayer.NewController(svc, logging.Discard()),
		Logger:    logging.Discard(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	handler, err := New(opts)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testSite{handler: handler, feed: feed, prayers: svc}
}

func (s *testSite) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testSite) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *testSite) postForm(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func parseDoc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func liveObservation(seq uint64) livestream.Observation {
	return livestream.Observation{
		Seq:  seq,
		Kind: livestream.KindActive,
		Broadcast: &model.Broadcast{
			ID:          7,
			Title:       "Holy Mass",
			StreamURL:   "https://video.example.org/watch/7",
			IsActive:    true,
			StartedAt:   "2026-04-05T09:30:00Z",
			ViewerCount: 42,
		},
	}
}

func TestHomeRendersLiveNotification(t *testing.T) {
	site := newTestSite(t, nil)
	site.feed.Publish(context.Background(), liveObservation(1))

	rec := site.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	doc := parseDoc(t, rec)
	note := doc.Find("#livestream-notification-slot [data-notification]")
	if note.Length() != 1 {
		t.Fatalf("expected one notification, got %d", note.Length())
	}
	if theme, _ := note.Attr("data-theme"); theme != livestream.ThemeLive {
		t.Fatalf("unexpected theme %q", theme)
	}
	if got := strings.TrimSpace(note.Find("[data-viewers]").First().Text()); got != "42 watching" {
		t.Fatalf("unexpected viewers text %q", got)
	}
	if got := strings.TrimSpace(note.Find("[data-variant=desktop] [data-time]").Text()); got != "Started 9:30 AM" {
		t.Fatalf("unexpected time text %q", got)
	}
}

func TestHomeWithoutBroadcastHasNoNotification(t *testing.T) {
	site := newTestSite(t, nil)
	doc := parseDoc(t, site.get(t, "/"))
	if doc.Find("[data-notification]").Length() != 0 {
		t.Fatal("notification should be suppressed")
	}
	if doc.Find("[data-page=home]").Length() != 1 {
		t.Fatal("expected home page content")
	}
}

func TestNotificationFragment(t *testing.T) {
	site := newTestSite(t, nil)
	if rec := site.get(t, "/livestream/notification"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	site.feed.Publish(context.Background(), livestream.Observation{
		Seq:       2,
		Kind:      livestream.KindUpcoming,
		Broadcast: &model.Broadcast{ID: 9, Title: "Rosary", IsScheduled: true, ScheduledAt: "2026-04-05T15:04:00Z"},
	})
	rec := site.get(t, "/livestream/notification")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := parseDoc(t, rec)
	if theme, _ := doc.Find("[data-notification]").Attr("data-theme"); theme != livestream.ThemeUpcoming {
		t.Fatalf("unexpected theme %q", theme)
	}
	if got := strings.TrimSpace(doc.Find("[data-variant=desktop] [data-time]").Text()); got != "Starts at 3:04 PM" {
		t.Fatalf("unexpected time text %q", got)
	}
}

func TestLivestreamPage(t *testing.T) {
	site := newTestSite(t, nil)
	doc := parseDoc(t, site.get(t, "/livestream"))
	if doc.Find("[data-empty]").Length() != 1 {
		t.Fatal("expected empty state without a broadcast")
	}

	site.feed.Publish(context.Background(), liveObservation(3))
	doc = parseDoc(t, site.get(t, "/livestream"))
	article := doc.Find("[data-broadcast]")
	if live, _ := article.Attr("data-live"); live != "true" {
		t.Fatalf("expected live broadcast, got %q", live)
	}
	if href, _ := article.Find("[data-stream-link]").Attr("href"); href != "https://video.example.org/watch/7" {
		t.Fatalf("unexpected stream link %q", href)
	}
	if doc.Find(`nav[data-nav=desktop] a[aria-current=page]`).AttrOr("href", "") != "/livestream" {
		t.Fatal("expected livestream nav link to be active")
	}
}

func TestLanguageSelection(t *testing.T) {
	site := newTestSite(t, nil)

	rec := site.get(t, "/?lang=ta")
	doc := parseDoc(t, rec)
	if lang := doc.Find("html").AttrOr("lang", ""); lang != "ta" {
		t.Fatalf("expected ta, got %q", lang)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != langCookie || cookies[0].Value != "ta" {
		t.Fatalf("expected language cookie, got %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: langCookie, Value: "ta"})
	req.Header.Set("Accept-Language", "en-US")
	if lang := parseDoc(t, site.do(t, req)).Find("html").AttrOr("lang", ""); lang != "ta" {
		t.Fatalf("cookie should win over Accept-Language, got %q", lang)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ta-IN,ta;q=0.9")
	if lang := parseDoc(t, site.do(t, req)).Find("html").AttrOr("lang", ""); lang != "ta" {
		t.Fatalf("expected Accept-Language match, got %q", lang)
	}

	if lang := parseDoc(t, site.get(t, "/?lang=xx")).Find("html").AttrOr("lang", ""); lang != "en" {
		t.Fatalf("unsupported language should fall back to en, got %q", lang)
	}
}

func TestCatalogDefaultLanguage(t *testing.T) {
	catalog, err := i18n.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if err := catalog.SetDefault(i18n.Tamil); err != nil {
		t.Fatalf("set default: %v", err)
	}
	site := newTestSite(t, func(o *Options) { o.Catalog = catalog })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	if lang := parseDoc(t, site.do(t, req)).Find("html").AttrOr("lang", ""); lang != "ta" {
		t.Fatalf("expected configured default ta, got %q", lang)
	}
	if lang := parseDoc(t, site.get(t, "/?lang=en")).Find("html").AttrOr("lang", ""); lang != "en" {
		t.Fatalf("explicit choice should beat the default, got %q", lang)
	}
}

func TestPrayerSubmitValidation(t *testing.T) {
	site := newTestSite(t, nil)
	rec := site.postForm(t, "/prayer-request", url.Values{"name": {"  "}, "email": {"a@b.c"}, "prayer": {"For peace"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if len(site.prayers.calls) != 0 {
		t.Fatal("service must not be called for invalid input")
	}
	doc := parseDoc(t, rec)
	if doc.Find("[data-error=name]").Length() != 1 || doc.Find("[data-error=prayer]").Length() != 0 {
		t.Fatal("expected only the name error")
	}
	if got := doc.Find("#prayer-text").Text(); got != "For peace" {
		t.Fatalf("prayer text not preserved: %q", got)
	}
	if got := strings.TrimSpace(doc.Find("[data-notice]").Text()); got != "Please fill in all required fields" {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestPrayerSubmitSuccessRedirects(t *testing.T) {
	site := newTestSite(t, nil)
	rec := site.postForm(t, "/prayer-request", url.Values{"name": {"Anna"}, "prayer": {"For my family"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/prayer-request?submitted=1" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if len(site.prayers.calls) != 1 || site.prayers.calls[0].Name != "Anna" {
		t.Fatalf("unexpected service calls %+v", site.prayers.calls)
	}

	doc := parseDoc(t, site.get(t, "/prayer-request?submitted=1"))
	if doc.Find("[data-confirmation]").Length() != 1 || doc.Find("[data-prayer-form]").Length() != 0 {
		t.Fatal("expected confirmation view")
	}
	if got := doc.Find("[data-notice]").AttrOr("data-notice", ""); got != model.NoticeSuccess {
		t.Fatalf("unexpected notice tone %q", got)
	}
}

func TestPrayerSubmitFailureKeepsValues(t *testing.T) {
	site := newTestSite(t, nil)
	site.prayers.err = errors.New("backend down")
	rec := site.postForm(t, "/prayer-request", url.Values{"name": {"Anna"}, "email": {"anna@example.org"}, "prayer": {"For healing"}})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	doc := parseDoc(t, rec)
	if v := doc.Find("#prayer-name").AttrOr("value", ""); v != "Anna" {
		t.Fatalf("name not preserved: %q", v)
	}
	if v := doc.Find("#prayer-email").AttrOr("value", ""); v != "anna@example.org" {
		t.Fatalf("email not preserved: %q", v)
	}
	if got := strings.TrimSpace(doc.Find("[data-notice]").Text()); got != "Failed to submit prayer. Please try again." {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestPrayerReset(t *testing.T) {
	site := newTestSite(t, nil)
	rec := site.postForm(t, "/prayer-request/reset", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/prayer-request" {
		t.Fatalf("unexpected reset response %d %q", rec.Code, rec.Header().Get("Location"))
	}
	doc := parseDoc(t, site.get(t, "/prayer-request"))
	if doc.Find("[data-prayer-form]").Length() != 1 {
		t.Fatal("expected empty form after reset")
	}
}

func TestHealth(t *testing.T) {
	site := newTestSite(t, nil)
	site.feed.Publish(context.Background(), liveObservation(5))

	rec := site.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.LivestreamSeq != 5 || resp.Livestream != "active" {
		t.Fatalf("unexpected health %+v", resp)
	}

	degraded := newTestSite(t, func(o *Options) {
		o.Ready = func(ctx context.Context) error { return errors.New("redis unreachable") }
	})
	rec = degraded.get(t, "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAPIProxy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != livestream.ActivePath {
			t.Errorf("unexpected proxied path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":null}`)
	}))
	defer backend.Close()

	site := newTestSite(t, func(o *Options) { o.APIBase = backend.URL })
	rec := site.get(t, livestream.ActivePath)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"success":true,"data":null}` {
		t.Fatalf("unexpected body %q", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestAPIProxyFailureLogsRequestID(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	backendURL := backend.URL
	backend.Close()

	logger := logging.New("shrine", logging.DEBUG, io.Discard)
	entries := make(chan logging.Entry, 16)
	defer logger.Subscribe(entries)()

	site := newTestSite(t, func(o *Options) {
		o.APIBase = backendURL
		o.Logger = logger
	})
	rec := site.get(t, livestream.ActivePath)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	id := rec.Header().Get("X-Request-ID")
	if id == "" {
		t.Fatal("expected request id header")
	}

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-entries:
			if e.Message != "api proxy failed" {
				continue
			}
			if e.RequestID != id || e.Level != "WARN" || e.Fields["path"] != livestream.ActivePath {
				t.Fatalf("unexpected proxy entry %+v", e)
			}
			return
		case <-deadline:
			t.Fatal("expected a proxy failure entry")
		}
	}
}

func TestInvalidAPIBase(t *testing.T) {
	if _, err := New(Options{APIBase: "not a url", Logger: logging.Discard()}); err == nil {
		t.Fatal("expected error for invalid api url")
	}
}
