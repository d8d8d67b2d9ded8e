package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	"github.com/Passbob/dopamine-travel-front/internal/config"
	"github.com/Passbob/dopamine-travel-front/internal/travelapi"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// instantClock lets frame streams run without waiting between frames.
type instantClock struct{}

func (instantClock) Now() time.Time { return time.Now() }
func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// countingService records every backend call besides the visit counter.
type countingService struct {
	*travelapi.StaticService
	calls atomic.Int64
}

func (s *countingService) Provinces(ctx context.Context) ([]travelapi.Province, error) {
	s.calls.Add(1)
	return s.StaticService.Provinces(ctx)
}

func (s *countingService) Cities(ctx context.Context, no travelapi.No) ([]travelapi.City, error) {
	s.calls.Add(1)
	return s.StaticService.Cities(ctx, no)
}

func (s *countingService) Themes(ctx context.Context) ([]travelapi.Theme, error) {
	s.calls.Add(1)
	return s.StaticService.Themes(ctx)
}

func (s *countingService) Constraints(ctx context.Context) ([]travelapi.Constraint, error) {
	s.calls.Add(1)
	return s.StaticService.Constraints(ctx)
}

func (s *countingService) TravelCourse(ctx context.Context, q travelapi.CourseQuery) (travelapi.CourseSlots, error) {
	s.calls.Add(1)
	return s.StaticService.TravelCourse(ctx, q)
}

// failingService answers every list with a backend error envelope.
type failingService struct {
	*travelapi.StaticService
}

func (failingService) Provinces(context.Context) ([]travelapi.Province, error) {
	return nil, &travelapi.EnvelopeError{Endpoint: "provinces", Code: "ERROR", Message: "점검 중입니다"}
}

func (failingService) TotalVisits(context.Context) (int64, error) {
	return 0, travelapi.ErrUnavailable
}

// emptyService has no provinces to offer.
type emptyService struct {
	*travelapi.StaticService
}

func (emptyService) Provinces(context.Context) ([]travelapi.Province, error) {
	return []travelapi.Province{}, nil
}

// markupCourseService returns stops whose text looks like markup.
type markupCourseService struct {
	*travelapi.StaticService
}

func (markupCourseService) TravelCourse(context.Context, travelapi.CourseQuery) (travelapi.CourseSlots, error) {
	return travelapi.CourseSlots{
		travelapi.SlotKey(1): json.RawMessage(`{"name":"<Seoul Forest>","description":"Open 9am<br>to 6pm"}`),
		travelapi.SlotKey(2): json.RawMessage(`"{\"name\":\"Cafe <b>Moon</b>\"}"`),
	}, nil
}

type testEnv struct {
	srv     *httptest.Server
	clock   *testClock
	service *countingService
}

func testConfig() config.Config {
	return config.Config{
		Environment: "local",
		Server:      config.ServerConfig{Port: "0"},
		Backend:     config.BackendConfig{Timeout: time.Second},
		Session: config.SessionConfig{
			CookieName:  "test_session",
			HashKey:     "0123456789abcdef0123456789abcdef",
			WorkflowTTL: time.Hour,
		},
		Web: config.WebConfig{
			TemplatesDir: "../../templates",
			PublicDir:    "../../public",
			ContentDir:   "../../content",
			LocalesDir:   "../../locales",
			DefaultLang:  "ko",
			SiteURL:      "https://travel.example",
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	service := &countingService{StaticService: travelapi.NewStaticService()}
	env := newTestEnvWith(t, testConfig(), service)
	env.service = service
	return env
}

func newTestEnvWith(t *testing.T, cfg config.Config, travel travelapi.Service) *testEnv {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	a, err := newApp(cfg, nil, appDeps{
		Travel:      travel,
		Rand:        fixedRand(0),
		Clock:       clock.Now,
		PlayerClock: instantClock{},
	})
	require.NoError(t, err)
	srv := httptest.NewServer(newRouter(a))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, clock: clock}
}

type browser struct {
	t    *testing.T
	base string
	jar  *cookiejar.Jar
	http *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	return &browser{t: t, base: e.srv.URL, jar: jar, http: &http.Client{Jar: jar}}
}

func (b *browser) csrf() string {
	u, _ := url.Parse(b.base)
	for _, c := range b.jar.Cookies(u) {
		if c.Name == "csrf_token" {
			return c.Value
		}
	}
	return ""
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.http.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string, htmx bool) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values, htmx bool) (*http.Response, string) {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", b.csrf())
	}
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

// reachCourse settles the province, city and theme stages and lands on /course.
func (e *testEnv) reachCourse(t *testing.T, b *browser) {
	t.Helper()
	b.get("/random", false)
	for _, stage := range []string{"/random", "/random/city", "/random/theme"} {
		resp, _ := b.post(stage+"/spin", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode, stage)
		e.clock.Add(time.Minute)
		b.post(stage+"/confirm", nil, false)
	}
	_, body := b.get("/course", false)
	require.Equal(t, 1, parse(t, body).Find(`[data-testid="draw"]`).Length())
}

func parse(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.browser(t).get("/healthz", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body)
}

func TestAssetsServed(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.browser(t).get("/assets/js/app.js", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "stage:done")
	require.Contains(t, body, "new EventSource(visual.dataset.frames)")
}

func TestHomeShowsVisitCounter(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.browser(t).get("/", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := parse(t, body)
	counter := doc.Find(`[data-testid="visit-counter"]`)
	require.Equal(t, 1, counter.Length())
	require.Equal(t, "12346", counter.AttrOr("data-value", ""))
	require.Contains(t, counter.AttrOr("data-counter", ""), `"value":12346`)
	require.Equal(t, "/random", doc.Find(`[data-testid="start"]`).AttrOr("href", ""))
	require.Equal(t, 2, doc.Find(`script[type="application/ld+json"]`).Length())
	require.Zero(t, env.service.calls.Load())
}

func TestMissingSelectionShowsNoticeWithoutBackendCall(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	for _, path := range []string{"/random/city", "/random/theme", "/course", "/postResult"} {
		resp, body := b.get(path, false)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		doc := parse(t, body)
		notice := doc.Find(`[data-testid="notice"]`)
		require.Equal(t, 1, notice.Length(), path)
		require.Equal(t, "/random", notice.Find("a.button").AttrOr("href", ""), path)
		require.Equal(t, "noindex", doc.Find(`meta[name="robots"]`).AttrOr("content", ""), path)
	}
	require.Zero(t, env.service.calls.Load())

	resp, _ := b.get("/postResult/export.txt", false)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBackendFailureIsShownOnThePage(t *testing.T) {
	env := newTestEnvWith(t, testConfig(), failingService{StaticService: travelapi.NewStaticService()})
	b := env.browser(t)

	resp, body := b.get("/", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counter := parse(t, body).Find(`[data-testid="visit-counter"]`)
	require.Equal(t, "0", counter.AttrOr("data-value", ""))
	require.Equal(t, 1, counter.Find(".visit-counter-note").Length())

	resp, body = b.get("/random", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parse(t, body)
	require.Equal(t, "failed", doc.Find(`[data-testid="stage"]`).AttrOr("data-state", ""))
	require.Contains(t, doc.Find(`[data-testid="stage-error"]`).Text(), "점검 중입니다")
	require.Zero(t, doc.Find(`[data-testid="spin"]`).Length())

	// spinning without candidates goes back to the page
	resp, _ = b.post("/random/spin", nil, false)
	require.Equal(t, "/random", resp.Request.URL.Path)
}

func TestSpinRequiresCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	resp, _ := b.get("/random", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.post("/random/spin", url.Values{"csrf_token": {"forged"}}, true)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFullSelectionFlow(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	_, body := b.get("/random", false)
	doc := parse(t, body)
	stage := doc.Find(`[data-testid="stage"]`)
	require.Equal(t, "idle", stage.AttrOr("data-state", ""))
	require.Equal(t, 6, stage.Find(".candidate").Length())

	// province
	resp, body := b.post("/random/spin", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stage = parse(t, body).Find(`[data-testid="stage"]`)
	require.Equal(t, "running", stage.AttrOr("data-state", ""))
	require.Equal(t, "/random/reveal", stage.AttrOr("hx-get", ""))
	require.NotEmpty(t, stage.Find("[data-plan]").AttrOr("data-plan", ""))
	require.Equal(t, "/random/frames", stage.Find("[data-plan]").AttrOr("data-frames", ""))
	wheel := stage.Find("ol.candidates-wheel")
	require.Contains(t, wheel.AttrOr("style", ""), "--turn: 0deg", "the browser rotates the wheel while running")
	require.Equal(t, "--i: 2", wheel.Find(`[data-index="2"]`).AttrOr("style", ""))

	// a second spin keeps the running animation
	_, body = b.post("/random/spin", nil, true)
	require.Equal(t, "running", parse(t, body).Find(`[data-testid="stage"]`).AttrOr("data-state", ""))

	env.clock.Add(10 * time.Second)
	_, body = b.get("/random/reveal", true)
	doc = parse(t, body)
	require.Equal(t, "settled", doc.Find(`[data-testid="stage"]`).AttrOr("data-state", ""))
	require.Contains(t, doc.Find(`[data-testid="selected"]`).Text(), "서울특별시")
	// six segments, five turns, segment 0 centred under the pointer
	wheel = doc.Find("ol.candidates-wheel")
	require.Equal(t, "1830", wheel.AttrOr("data-degrees", ""))
	require.Contains(t, wheel.AttrOr("style", ""), "--n: 6")
	require.Contains(t, wheel.AttrOr("style", ""), "--turn: 1830deg", "the settled wheel keeps its final rotation")

	resp, body = b.post("/random/confirm", nil, false)
	require.Equal(t, "/random/city", resp.Request.URL.Path)
	require.Equal(t, 3, parse(t, body).Find(`[data-testid="stage"] .candidate`).Length())

	// city
	b.post("/random/city/spin", nil, true)
	env.clock.Add(10 * time.Second)
	resp, body = b.post("/random/city/confirm", nil, false)
	require.Equal(t, "/random/theme", resp.Request.URL.Path)
	doc = parse(t, body)
	require.Equal(t, 1, doc.Find(`[data-testid="reel-theme"]`).Length())
	require.Equal(t, 1, doc.Find(`[data-testid="reel-constraint"]`).Length())

	// theme and constraint
	_, body = b.post("/random/theme/spin", nil, true)
	require.Equal(t, "running", parse(t, body).Find(`[data-testid="stage"]`).AttrOr("data-state", ""))
	env.clock.Add(10 * time.Second)
	_, body = b.get("/random/theme/reveal", true)
	doc = parse(t, body)
	require.Equal(t, "맛집 탐방", doc.Find(`[data-testid="selected-theme"]`).Text())
	require.Equal(t, "대중교통만 이용", doc.Find(`[data-testid="selected-constraint"]`).Text())

	resp, body = b.post("/random/theme/confirm", nil, false)
	require.Equal(t, "/course", resp.Request.URL.Path)
	require.Equal(t, 1, parse(t, body).Find(`[data-testid="draw"]`).Length())

	// course draw and pick
	_, body = b.post("/course/draw", nil, true)
	require.Equal(t, "shuffling", parse(t, body).Find(`[data-testid="stage"]`).AttrOr("data-state", ""))

	resp, _ = b.post("/course/pick", url.Values{"card": {"1"}}, false)
	require.Equal(t, "/course", resp.Request.URL.Path, "cards cannot be picked while shuffling")

	env.clock.Add(2 * time.Second)
	_, body = b.get("/course", false)
	doc = parse(t, body)
	require.Equal(t, "ready", doc.Find(`[data-testid="stage"]`).AttrOr("data-state", ""))
	require.Equal(t, 1, doc.Find(`[data-testid="card-B"]`).Length())

	resp, _ = b.post("/course/pick", url.Values{"card": {"7"}}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = b.post("/course/pick", url.Values{"card": {"1"}}, false)
	require.Equal(t, "/postResult", resp.Request.URL.Path)
	doc = parse(t, body)
	require.Equal(t, "서울특별시 종로구 여행 코스", doc.Find(`[data-testid="result-title"]`).Text())
	steps := doc.Find(`[data-testid="itinerary"] .itinerary-step`)
	require.Equal(t, 5, steps.Length())
	require.Equal(t, "종로구 전망대", steps.First().Find("h2").Text())
	require.Equal(t, "/postResult/export.txt", doc.Find(`[data-testid="copy"]`).AttrOr("data-copy-url", ""))

	// a second pick keeps the first card
	resp, _ = b.post("/course/pick", url.Values{"card": {"2"}}, false)
	require.Equal(t, "/postResult", resp.Request.URL.Path)

	resp, text := b.get("/postResult/export.txt", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.True(t, strings.HasPrefix(text,
		"서울특별시 종로구 여행 코스\n테마: 맛집 탐방 / 제약: 대중교통만 이용\n\n1. 종로구 전망대\n도시 전체를 내려다보며 하루 동선을 확인해요.\n\n2. 종로구 아침 시장\n"), text)

	// going home starts over
	b.get("/", false)
	_, body = b.get("/course", false)
	require.Equal(t, 1, parse(t, body).Find(`[data-testid="notice"]`).Length())
}

func TestFrameStream(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	resp, _ := b.get("/random/frames", false)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	b.get("/random", false)
	b.post("/random/spin", nil, true)

	resp, body := b.get("/random/frames", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.True(t, strings.HasPrefix(body, "event: plan\ndata: {\"skin\":\"wheel\",\"durationMs\":5000"), body)
	require.Contains(t, body, `"degrees":1830,"elapsedMs":0}`)
	require.Contains(t, body, "event: frame\n")
	require.True(t, strings.HasSuffix(body, "event: settled\ndata: {\"index\":0}\n\n"), body)
}

func TestEnglishLocale(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)

	resp, body := b.get("/about?hl=en", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "en", resp.Header.Get("Content-Language"))
	doc := parse(t, body)
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	require.Contains(t, doc.Find("h1").Text(), "About Dopamine Travel")

	// the choice sticks to the session
	_, body = b.get("/about", false)
	require.Equal(t, "en", parse(t, body).Find("html").AttrOr("lang", ""))
}

func TestSpinIsRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits.SpinPerMinute = 1
	env := newTestEnvWith(t, cfg, travelapi.NewStaticService())
	b := env.browser(t)
	b.get("/random", false)

	resp, _ := b.post("/random/spin", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = b.post("/random/spin", nil, true)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	env := newTestEnv(t)
	b := env.browser(t)
	b.get("/random", false)

	resp, body := b.get("/metrics", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "travel_active_workflows")
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.browser(t).get("/nowhere", false)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, 1, parse(t, body).Find(`[data-testid="notice"]`).Length())
}

func TestEmptyListShowsUnavailable(t *testing.T) {
	env := newTestEnvWith(t, testConfig(), emptyService{StaticService: travelapi.NewStaticService()})
	b := env.browser(t)

	resp, body := b.get("/random", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parse(t, body)
	require.Equal(t, "unavailable", doc.Find(`[data-testid="stage"]`).AttrOr("data-state", ""))
	require.Equal(t, 1, doc.Find(`[data-testid="stage-unavailable"]`).Length())
	require.Zero(t, doc.Find(`[data-testid="spin"]`).Length())
	require.Zero(t, doc.Find(`[data-testid="stage-error"]`).Length())
}

func TestMarkupLikeStopNamesAreKeptAndEscaped(t *testing.T) {
	env := newTestEnvWith(t, testConfig(), markupCourseService{StaticService: travelapi.NewStaticService()})
	b := env.browser(t)
	env.reachCourse(t, b)

	b.post("/course/draw", nil, true)
	env.clock.Add(time.Minute)
	resp, body := b.post("/course/pick", url.Values{"card": {"0"}}, false)
	require.Equal(t, "/postResult", resp.Request.URL.Path)
	require.Contains(t, body, "&lt;Seoul Forest&gt;")
	require.NotContains(t, body, "<b>Moon</b>")

	steps := parse(t, body).Find(`[data-testid="itinerary"] .itinerary-step`)
	require.Equal(t, 2, steps.Length())
	require.Equal(t, "<Seoul Forest>", steps.First().Find("h2").Text())
	require.Equal(t, "Cafe <b>Moon</b>", steps.Eq(1).Find("h2").Text())

	_, text := b.get("/postResult/export.txt", false)
	require.Contains(t, text, "1. <Seoul Forest>\nOpen 9am<br>to 6pm\n")
	require.Contains(t, text, "2. Cafe <b>Moon</b>")
}

func TestSessionsFromDefaultConfig(t *testing.T) {
	cfg, err := config.Load(config.WithEnvMap(map[string]string{
		"TRAVEL_WEB_TEMPLATES_DIR": "../../templates",
		"TRAVEL_WEB_PUBLIC_DIR":    "../../public",
		"TRAVEL_WEB_CONTENT_DIR":   "../../content",
		"TRAVEL_WEB_LOCALES_DIR":   "../../locales",
	}), config.WithoutSystemEnv(), config.WithEnvFile(""))
	require.NoError(t, err)
	require.Empty(t, cfg.Session.HashKey)
	require.Empty(t, cfg.Session.BlockKey)

	env := newTestEnvWith(t, cfg, travelapi.NewStaticService())
	b := env.browser(t)
	b.get("/random", false)
	require.NotEmpty(t, b.csrf())

	resp, body := b.post("/random/spin", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "running", parse(t, body).Find(`[data-testid="stage"]`).AttrOr("data-state", ""))

	// the workflow survives into the next request
	env.clock.Add(time.Minute)
	_, body = b.get("/random/reveal", true)
	require.Equal(t, "settled", parse(t, body).Find(`[data-testid="stage"]`).AttrOr("data-state", ""))
}
