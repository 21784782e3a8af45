// Package rest implements the HTTP adapter: a configured endpoint is asked
// for a JSON map of attributes for one username. The adapter owns its HTTP
// client; no global client singletons.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"persondir/internal/attribute"
	"persondir/internal/source"
	"persondir/pkg/platform/sentinel"
)

// Options is the endpoint wiring for one REST source.
type Options struct {
	// URL of the attribute endpoint. Required.
	URL string

	// Method is GET or POST; GET when empty.
	Method string

	// BasicAuthUsername/BasicAuthPassword enable basic auth when both set.
	BasicAuthUsername string
	BasicAuthPassword string
}

// Adapter resolves people from an HTTP endpoint returning a JSON attribute
// map.
type Adapter struct {
	cfg    source.Config
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// New wires a REST adapter. A nil client falls back to a default client so
// callers can still inject transport-level timeouts and TLS settings.
func New(cfg source.Config, opts Options, client *http.Client, logger *slog.Logger) (*Adapter, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%s: endpoint URL must be set: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, fmt.Errorf("%s: endpoint URL: %v: %w", cfg.Name, err, sentinel.ErrConfiguration)
	}
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	if opts.Method != http.MethodGet && opts.Method != http.MethodPost {
		return nil, fmt.Errorf("%s: method must be GET or POST: %w", cfg.Name, sentinel.ErrConfiguration)
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cfg: cfg, opts: opts, client: client, logger: logger}, nil
}

func (a *Adapter) Name() string   { return a.cfg.Name }
func (a *Adapter) Required() bool { return a.cfg.Required }

func (a *Adapter) PossibleUserAttributeNames() []string { return a.cfg.PossibleUserAttributeNames() }
func (a *Adapter) AvailableQueryAttributes() []string   { return a.cfg.AvailableQueryAttributes() }

// People supports username-based lookup only: the endpoint answers for one
// user at a time. A query without the username attribute contributes nothing.
func (a *Adapter) People(ctx context.Context, query attribute.Query) ([]attribute.Person, error) {
	values := query[a.cfg.UsernameAttribute]
	if len(values) == 0 || values[0] == nil {
		return nil, nil
	}

	person, err := a.person(ctx, fmt.Sprint(values[0]))
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}
	return []attribute.Person{*person}, nil
}

func (a *Adapter) person(ctx context.Context, username string) (*attribute.Person, error) {
	endpoint, err := url.Parse(a.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: endpoint URL: %v: %w", a.cfg.Name, err, sentinel.ErrConfiguration)
	}
	params := endpoint.Query()
	params.Set("username", username)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, a.opts.Method, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %v: %w", a.cfg.Name, err, sentinel.ErrBackend)
	}
	if a.opts.BasicAuthUsername != "" && a.opts.BasicAuthPassword != "" {
		req.SetBasicAuth(a.opts.BasicAuthUsername, a.opts.BasicAuthPassword)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", a.cfg.Name, err, sentinel.ErrBackend)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: endpoint returned %d: %w", a.cfg.Name, res.StatusCode, sentinel.ErrBackend)
	}

	var flat map[string]any
	if err := json.NewDecoder(res.Body).Decode(&flat); err != nil {
		return nil, fmt.Errorf("%s: decode response: %v: %w", a.cfg.Name, err, sentinel.ErrMalformedResult)
	}

	person := attribute.NewPerson(username, attribute.BagFromScalars(flat))
	a.logger.Debug("rest lookup complete", "source", a.cfg.Name, "username", username, "attributes", len(flat))
	return &person, nil
}
