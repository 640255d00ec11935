// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/canplay/internal/api"
	"github.com/ManuGH/canplay/internal/auth"
	"github.com/ManuGH/canplay/internal/capability"
	"github.com/ManuGH/canplay/internal/flags"
)

// backend is what every subcommand talks to.
type backend interface {
	Query(ctx context.Context, types []string, overrides map[string]bool) ([]api.CanPlayResult, error)
	Catalog(ctx context.Context) (api.CatalogResponse, error)
	Flags(ctx context.Context) (api.FlagsResponse, error)
	SetFlag(ctx context.Context, name string, enabled bool) error
	Close() error
}

var errOverridesRemote = errors.New("--flag overrides are only supported offline")

type local struct {
	reg        *capability.Registry
	store      flags.Store
	persistent bool
}

func newLocal(reg *capability.Registry, store flags.Store, persistent bool) *local {
	return &local{reg: reg, store: store, persistent: persistent}
}

func (l *local) Query(_ context.Context, types []string, overrides map[string]bool) ([]api.CanPlayResult, error) {
	source, err := flags.NewOverlay(l.store, l.reg.DefaultFlags(), overrides)
	if err != nil {
		return nil, err
	}
	resolver := capability.NewResolver(l.reg, source)

	out := make([]api.CanPlayResult, len(types))
	for i, mime := range types {
		out[i] = api.NewCanPlayResult(mime, resolver.Explain(mime))
	}
	return out, nil
}

func (l *local) Catalog(context.Context) (api.CatalogResponse, error) {
	return api.BuildCatalog(l.reg, l.store), nil
}

func (l *local) Flags(ctx context.Context) (api.FlagsResponse, error) {
	snap, err := l.store.Snapshot(ctx)
	if err != nil {
		return api.FlagsResponse{}, err
	}
	return api.FlagsResponse{Backend: l.store.Backend(), Flags: snap}, nil
}

func (l *local) SetFlag(ctx context.Context, name string, enabled bool) error {
	if !l.persistent {
		return errors.New("flag writes need --config with a persistent backend or --server")
	}
	return l.store.Set(ctx, name, enabled)
}

func (l *local) Close() error { return l.store.Close() }

type remote struct {
	base   *url.URL
	token  string
	client *http.Client
}

func newRemote(rawURL, token string, timeout time.Duration) (*remote, error) {
	u, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid --server URL %q", rawURL)
	}
	return &remote{base: u, token: token, client: &http.Client{Timeout: timeout}}, nil
}

func (r *remote) Query(ctx context.Context, types []string, overrides map[string]bool) ([]api.CanPlayResult, error) {
	if len(overrides) > 0 {
		return nil, errOverridesRemote
	}
	var resp struct {
		Results []api.CanPlayResult `json:"results"`
	}
	body := map[string][]string{"types": types}
	if err := r.do(ctx, http.MethodPost, "/api/v1/canplay", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (r *remote) Catalog(ctx context.Context) (api.CatalogResponse, error) {
	var resp api.CatalogResponse
	err := r.do(ctx, http.MethodGet, "/api/v1/catalog", nil, &resp)
	return resp, err
}

func (r *remote) Flags(ctx context.Context) (api.FlagsResponse, error) {
	var resp api.FlagsResponse
	err := r.do(ctx, http.MethodGet, "/api/v1/flags", nil, &resp)
	return resp, err
}

func (r *remote) SetFlag(ctx context.Context, name string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return r.do(ctx, http.MethodPut, "/api/v1/flags/"+url.PathEscape(name), body, nil)
}

func (r *remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *remote) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set(auth.HeaderAPIToken, r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var e api.ErrorBody
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			if e.Detail != "" {
				return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, e.Error, e.Detail)
			}
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
