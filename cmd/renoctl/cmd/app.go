package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/sessions"
)

// cookiesKey holds the backend's cookies (the refresh token) next to the
// session, so a refresh works across separate invocations.
const cookiesKey = "cookies"

// app is what a command needs to talk to the backend as the stored user.
type app struct {
	cfg     config.Config
	baseURL *url.URL
	storage *sessions.FileStorage
	store   *sessions.PersistentStore
	jar     *cookiejar.Jar
	client  *apiclient.Client
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func newApp(stderr io.Writer, options ...apiclient.Option) (*app, error) {
	cfg := config.New()

	base := apiURL
	if base == "" {
		base = cfg.GetBaseURL()
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", base)
	}

	sessionPath := sessionFile
	if sessionPath == "" {
		sessionPath = cfg.GetSessionFile()
	}
	storage := sessions.NewFileStorage(sessionPath)
	store := sessions.NewStore(storage, sessions.WithKey(cfg.GetSessionKey()))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		baseURL: baseURL,
		storage: storage,
		store:   store,
		jar:     jar,
	}
	a.loadCookies()

	a.client = apiclient.New(baseURL.String(), store, append([]apiclient.Option{
		apiclient.WithConfig(cfg),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.GetRequestTimeout(), Jar: jar}),
		apiclient.WithLoginRedirect(func() {
			fmt.Fprintln(stderr, "Your session has expired. Run `renoctl login` to sign in again.")
		}),
	}, options...)...)
	return a, nil
}

func (a *app) loadCookies() {
	raw, ok, err := a.storage.GetItem(cookiesKey)
	if err != nil || !ok {
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Debug().Err(err).Msg("Ignoring unreadable stored cookies")
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: a.cookiePath()})
	}
	a.jar.SetCookies(a.cookieURL(), cookies)
}

// cookiePath is where the backend scopes its refresh cookie: the directory
// of the refresh endpoint.
func (a *app) cookiePath() string {
	return path.Dir(a.cfg.GetRefreshPath())
}

func (a *app) cookieURL() *url.URL {
	u := *a.baseURL
	u.Path = a.cookiePath() + "/"
	return &u
}

// saveCookies persists the jar's cookies for the backend. Call it when the
// command is done.
func (a *app) saveCookies() {
	cookies := a.jar.Cookies(a.cookieURL())
	if len(cookies) == 0 {
		if err := a.storage.RemoveItem(cookiesKey); err != nil {
			log.Warn().Err(err).Msg("Failed to clear stored cookies")
		}
		return
	}

	stored := make([]storedCookie, 0, len(cookies))
	seen := make(map[string]bool, len(cookies))
	for _, c := range cookies {
		// Most specific path first; keep that one.
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := a.storage.SetItem(cookiesKey, string(data)); err != nil {
		log.Warn().Err(err).Msg("Failed to store cookies")
	}
}
