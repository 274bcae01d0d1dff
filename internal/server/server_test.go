package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/relx/internal/auth"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/desertthunder/relx/internal/tasks"
	tu "github.com/desertthunder/relx/internal/testing"
)

const testNonce = "0123456789abcdef"

type staticRelations []string

func (s staticRelations) Related(context.Context, string) ([]string, error) { return s, nil }

type failingRelations struct{ err error }

func (f failingRelations) Related(context.Context, string) ([]string, error) { return nil, f.err }

type fixture struct {
	router     *BasicRouter
	tokenCalls *atomic.Int32
	catalog    *tu.FakeCatalog
	logs       *tu.SafeBuffer
}

func newFixture(t *testing.T, rel tasks.RelationSource, mutate func(*RouterOptions)) *fixture {
	t.Helper()
	f := &fixture{tokenCalls: &atomic.Int32{}, logs: &tu.SafeBuffer{}}

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.PostForm.Get("code") == "good_code":
			w.Write([]byte(`{"access_token":"access_1","refresh_token":"refresh_1","token_type":"Bearer"}`))
		case r.PostForm.Get("refresh_token") == "refresh_1":
			w.Write([]byte(`{"access_token":"access_2","token_type":"Bearer"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}
	}))
	t.Cleanup(tokenSrv.Close)

	logger := shared.NewLogger(f.logs)
	f.catalog = &tu.FakeCatalog{
		Artists: map[string]string{"Queens of the Stone Age": "QA1", "The Raconteurs": "TR2"},
		Tracks: map[string][]string{
			"QA1": {"spotify:track:q1", "spotify:track:q2", "spotify:track:q3"},
			"TR2": {"spotify:track:r1", "spotify:track:r2", "spotify:track:r3"},
		},
	}

	flow, err := auth.NewFlow(auth.Options{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8888/callback",
		AuthURL:      "https://accounts.example.com/authorize",
		TokenURL:     tokenSrv.URL,
		Nonces:       auth.NonceFunc(func() string { return testNonce }),
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("failed to create flow: %v", err)
	}

	engine, err := tasks.NewEngine(tasks.Options{
		Relations: rel,
		Catalogs:  f.catalog.Factory(nil),
		Timeout:   2 * time.Second,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	opts := RouterOptions{Flow: flow, Pipeline: engine, Logger: logger}
	if mutate != nil {
		mutate(&opts)
	}
	f.router = NewRouter(opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		f.router.Wait(ctx)
	})
	return f
}

func (f *fixture) get(target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func stateCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == StateCookie {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	f := newFixture(t, staticRelations{}, nil)
	rec := f.get("/login")

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect: %v", err)
	}
	if loc.Host != "accounts.example.com" || loc.Query().Get("state") != testNonce {
		t.Errorf("unexpected redirect %s", loc)
	}
	if loc.Query().Get("response_type") != "code" || loc.Query().Get("client_id") != "id" {
		t.Errorf("missing authorization parameters in %s", loc)
	}

	c := stateCookie(rec)
	if c == nil || c.Value != testNonce {
		t.Fatalf("expected state cookie %q, got %+v", testNonce, c)
	}
	if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie attributes %+v", c)
	}
}

func TestCallback(t *testing.T) {
	t.Run("State Mismatch Never Calls Token Endpoint", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		rec := f.get("/callback?code=good_code&state=X", &http.Cookie{Name: StateCookie, Value: "Y"})

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/#error=state_mismatch" {
			t.Errorf("expected /#error=state_mismatch, got %s", got)
		}
		if n := f.tokenCalls.Load(); n != 0 {
			t.Errorf("expected token endpoint not to be called, got %d calls", n)
		}
	})

	t.Run("Missing Cookie", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		rec := f.get("/callback?code=good_code&state=" + testNonce)

		if got := rec.Header().Get("Location"); got != "/#error=state_mismatch" {
			t.Errorf("expected /#error=state_mismatch, got %s", got)
		}
		if f.tokenCalls.Load() != 0 {
			t.Error("expected token endpoint not to be called")
		}
	})

	t.Run("Missing State", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		rec := f.get("/callback?code=good_code", &http.Cookie{Name: StateCookie, Value: testNonce})

		if got := rec.Header().Get("Location"); got != "/#error=state_mismatch" {
			t.Errorf("expected /#error=state_mismatch, got %s", got)
		}
	})

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		rec := f.get("/callback?code=good_code&state="+testNonce, &http.Cookie{Name: StateCookie, Value: testNonce})

		if got := rec.Header().Get("Location"); got != "/#access_token=access_1&refresh_token=refresh_1" {
			t.Errorf("unexpected redirect %s", got)
		}
		c := stateCookie(rec)
		if c == nil || c.MaxAge >= 0 {
			t.Errorf("expected the state cookie to be cleared, got %+v", c)
		}
		if f.tokenCalls.Load() != 1 {
			t.Errorf("expected exactly one token call, got %d", f.tokenCalls.Load())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		rec := f.get("/callback?code=bad_code&state="+testNonce, &http.Cookie{Name: StateCookie, Value: testNonce})

		if got := rec.Header().Get("Location"); got != "/#error=invalid_token" {
			t.Errorf("expected /#error=invalid_token, got %s", got)
		}
		if stateCookie(rec) == nil {
			t.Error("expected the matched state cookie to be cleared")
		}
	})
}

func TestRefreshToken(t *testing.T) {
	f := newFixture(t, staticRelations{}, nil)

	tests := []struct {
		name   string
		target string
		status int
		key    string
		value  string
	}{
		{name: "Success", target: "/refresh_token?refresh_token=refresh_1", status: http.StatusOK, key: "access_token", value: "access_2"},
		{name: "Missing Parameter", target: "/refresh_token", status: http.StatusBadRequest, key: "error", value: "missing_argument"},
		{name: "Rejected", target: "/refresh_token?refresh_token=stale", status: http.StatusBadGateway, key: "error", value: "refresh_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.get(tt.target)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected a JSON body, got %q", rec.Body.String())
			}
			if body[tt.key] != tt.value {
				t.Errorf("expected %s=%s, got %v", tt.key, tt.value, body)
			}
		})
	}

	t.Run("Error Message", func(t *testing.T) {
		rec := f.get("/refresh_token?refresh_token=stale")

		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("expected a JSON body, got %q", rec.Body.String())
		}
		if body.Message != shared.ErrRefreshFailed.Error() {
			t.Errorf("expected message %q, got %q", shared.ErrRefreshFailed.Error(), body.Message)
		}
		if strings.Contains(body.Message, "invalid_grant") {
			t.Errorf("expected upstream detail to stay out of the body, got %q", body.Message)
		}
	})
}

func TestRelatedArtists(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		f := newFixture(t, staticRelations{"Queens of the Stone Age", "The Raconteurs"}, nil)
		rec := f.get("/related_artists?artist=Muse&access_token=access_1")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body RelatedResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.PlaylistID != "pl1" || body.Name != "Muses Recommended Artists" || body.Status != "created" {
			t.Errorf("unexpected body %+v", body)
		}
		if body.Related != 2 || body.Resolved != 2 || body.Tracks != 6 || body.Batches != 2 {
			t.Errorf("unexpected counts %+v", body)
		}

		tu.Eventually(t, time.Second, func() bool { return len(f.catalog.Adds()) == 2 })
		tu.Eventually(t, time.Second, func() bool { return f.logs.Contains("insertion settled") })
	})

	t.Run("Wait For Insertion", func(t *testing.T) {
		f := newFixture(t, staticRelations{"Queens of the Stone Age", "The Raconteurs"}, nil)
		release := make(chan struct{})
		f.catalog.AddErr = func(int, []string) error {
			<-release
			return nil
		}

		if rec := f.get("/related_artists?artist=Muse&access_token=access_1"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := f.router.Wait(ctx); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout while insertion is blocked, got %v", err)
		}
		if !f.logs.Contains("playlist insertion cut short") {
			t.Errorf("expected the cut short insertion to be logged, got %s", f.logs.String())
		}

		close(release)
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := f.router.Wait(ctx); err != nil {
			t.Errorf("expected insertion to settle, got %v", err)
		}
		if len(f.catalog.Adds()) != 2 {
			t.Errorf("expected both batches inserted, got %d", len(f.catalog.Adds()))
		}
	})

	t.Run("Missing Parameters", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		for _, target := range []string{"/related_artists?artist=Muse", "/related_artists?access_token=t"} {
			if rec := f.get(target); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", target, rec.Code)
			}
		}
	})

	t.Run("Scrape Failure", func(t *testing.T) {
		f := newFixture(t, failingRelations{err: shared.ErrFetchFailed}, nil)
		rec := f.get("/related_artists?artist=Muse&access_token=access_1")

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"fetch_failed"`) {
			t.Errorf("expected fetch_failed, got %s", rec.Body.String())
		}
	})

	t.Run("Profile Failure", func(t *testing.T) {
		f := newFixture(t, staticRelations{"The Raconteurs"}, nil)
		f.catalog.UserErr = errors.New("401")
		rec := f.get("/related_artists?artist=Muse&access_token=access_1")

		if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), "profile_fetch_failed") {
			t.Errorf("expected 502 profile_fetch_failed, got %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPipelineStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrMissingArgument, http.StatusBadRequest},
		{shared.ErrTimeout, http.StatusGatewayTimeout},
		{shared.ErrPlaylistCreateFailed, http.StatusBadGateway},
		{errors.New("other"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := pipelineStatus(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Not Allowed", func(t *testing.T) {
		f := newFixture(t, staticRelations{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		r := NewBasicRouter()
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
	})

	t.Run("Static Files", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>relx</h1>"), 0644); err != nil {
			t.Fatalf("failed to write index: %v", err)
		}
		f := newFixture(t, staticRelations{}, func(o *RouterOptions) { o.StaticDir = dir })

		rec := f.get("/")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "relx") {
			t.Errorf("expected index.html, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Missing Static Dir", func(t *testing.T) {
		if NewBasicRouter().Static(filepath.Join(t.TempDir(), "missing")) {
			t.Error("expected Static to report false for a missing directory")
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Request ID And Log Line", func(t *testing.T) {
		logs := &tu.SafeBuffer{}
		var seen string
		h := Logging(shared.NewLogger(logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/refresh_token?refresh_token=secret", nil))

		if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("expected request id %q in header, got %q", seen, rec.Header().Get(RequestIDHeader))
		}
		if !strings.Contains(logs.String(), "418") {
			t.Errorf("expected status in log, got %s", logs.String())
		}
		if strings.Contains(logs.String(), "secret") {
			t.Errorf("expected query string to be left out of logs, got %s", logs.String())
		}
	})

	t.Run("Recover", func(t *testing.T) {
		h := Recover(shared.NewLogger(&tu.SafeBuffer{}))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if body := rec.Body.String(); !strings.Contains(body, `"internal error"`) || strings.Contains(body, "boom") {
			t.Errorf("expected a generic message, got %s", body)
		}
	})
}

type drainRecorder struct{ waited atomic.Bool }

func (d *drainRecorder) ServeHTTP(http.ResponseWriter, *http.Request) {}
func (d *drainRecorder) Routes() []string                          { return []string{"/drain"} }

func (d *drainRecorder) Wait(context.Context) error {
	d.waited.Store(true)
	return nil
}

func TestServerRun(t *testing.T) {
	router := NewBasicRouter()
	drain := &drainRecorder{}
	router.Handler(drain)
	srv := New("127.0.0.1:0", router, shared.NewLogger(&tu.SafeBuffer{}))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
		if !drain.waited.Load() {
			t.Error("expected shutdown to wait on handler background work")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
