// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 The ipaget Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package store talks to the App Store volume purchase service: it
// authenticates an account, resolves historical builds of an
// application and downloads their packages.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"howett.net/plist"

	"github.com/ipaget/ipaget/httputil"
	"github.com/ipaget/ipaget/logger"
)

const (
	authEndpoint         = "https://auth.itunes.apple.com/auth/v1/native/fast"
	listBuildsEndpoint   = "https://p32-buy.itunes.apple.com/WebObjects/MZFinance.woa/wa/volumeStoreDownloadProduct"
	resolveBuildEndpoint = "https://p25-buy.itunes.apple.com/WebObjects/MZFinance.woa/wa/volumeStoreDownloadProduct"
	searchEndpoint       = "https://itunes.apple.com/search"

	// the volume purchase endpoints only talk to Apple Configurator
	configuratorUserAgent = "Configurator/2.15 (Macintosh; OS X 11.0.0; 16G29) AppleWebKit/2603.3.8"

	formContentType = "application/x-www-form-urlencoded"

	// replies are small property lists; anything bigger is not for us
	maxReplySize = 16 * 1024 * 1024
)

// Config represents the configuration to access the store.
type Config struct {
	// DeviceID is the stable device identifier sent with every call.
	DeviceID string

	AuthURI         *url.URL
	ListBuildsURI   *url.URL
	ResolveBuildURI *url.URL
	SearchURI       *url.URL

	// Country is the storefront used by Search.
	Country string

	// BuildOrder decides how ListBuilds orders the server reply.
	BuildOrder BuildOrder
}

var defaultConfig = Config{}

// DefaultConfig returns a copy of the default configuration ready to be
// adapted.
func DefaultConfig() *Config {
	cfg := defaultConfig
	return &cfg
}

func mustParse(rawurl string) *url.URL {
	u, err := url.Parse(rawurl)
	if err != nil {
		panic(err)
	}
	return u
}

func init() {
	defaultConfig.AuthURI = mustParse(authEndpoint)
	defaultConfig.ListBuildsURI = mustParse(listBuildsEndpoint)
	defaultConfig.ResolveBuildURI = mustParse(resolveBuildEndpoint)
	defaultConfig.SearchURI = mustParse(searchEndpoint)
	defaultConfig.Country = "CN"
	defaultConfig.BuildOrder = BuildOrderReversed
}

// Store represents the App Store volume purchase service.
type Store struct {
	deviceID string

	authURI         *url.URL
	listBuildsURI   *url.URL
	resolveBuildURI *url.URL
	searchURI       *url.URL

	country    string
	buildOrder BuildOrder

	// reused http clients
	client   *http.Client
	dlClient *http.Client
}

// New creates a new Store with the given access configuration. Unset
// endpoints fall back to the defaults.
func New(cfg *Config) *Store {
	if cfg == nil {
		cfg = &defaultConfig
	}
	pick := func(u, dflt *url.URL) *url.URL {
		if u != nil {
			return u
		}
		return dflt
	}
	country := cfg.Country
	if country == "" {
		country = defaultConfig.Country
	}

	return &Store{
		deviceID:        cfg.DeviceID,
		authURI:         pick(cfg.AuthURI, defaultConfig.AuthURI),
		listBuildsURI:   pick(cfg.ListBuildsURI, defaultConfig.ListBuildsURI),
		resolveBuildURI: pick(cfg.ResolveBuildURI, defaultConfig.ResolveBuildURI),
		searchURI:       pick(cfg.SearchURI, defaultConfig.SearchURI),
		country:         country,
		buildOrder:      cfg.BuildOrder,

		// request bodies carry the password, never dump them
		client: httputil.NewHTTPClient(&httputil.ClientOptions{
			Timeout: 30 * time.Second,
		}),
		// packages are large, the download is bounded by ctx instead
		dlClient: httputil.NewHTTPClient(nil),
	}
}

var errNoDeviceID = errors.New("internal error: no device identifier configured")

// endpointURL returns base with the device identifier added as the guid
// query parameter, which is how the store correlates calls.
func (s *Store) endpointURL(base *url.URL) (*url.URL, error) {
	if s.deviceID == "" {
		return nil, errNoDeviceID
	}
	u := *base
	q := u.Query()
	q.Set("guid", s.deviceID)
	u.RawQuery = q.Encode()
	return &u, nil
}

// requestOptions specifies parameters for store requests.
type requestOptions struct {
	Method       string
	URL          *url.URL
	ContentType  string
	ExtraHeaders map[string]string
	Data         []byte
}

// newRequest builds a new http.Request with headers for the store,
// authenticated for session if it is not nil.
func (s *Store) newRequest(ctx context.Context, reqOptions *requestOptions, session *Session) (*http.Request, error) {
	var body io.Reader
	if reqOptions.Data != nil {
		body = bytes.NewReader(reqOptions.Data)
	}

	req, err := http.NewRequestWithContext(ctx, reqOptions.Method, reqOptions.URL.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", configuratorUserAgent)
	if reqOptions.ContentType != "" {
		req.Header.Set("Content-Type", reqOptions.ContentType)
	}
	if session != nil {
		req.Header.Set("Cookie", session.Cookie)
		req.Header.Set("X-Dsid", session.DSID)
		req.Header.Set("iCloud-DSID", session.DSID)
	}
	for header, value := range reqOptions.ExtraHeaders {
		req.Header.Set(header, value)
	}

	return req, nil
}

func respToError(resp *http.Response, msg string) error {
	tpl := "cannot %s: got unexpected HTTP status code %d via %s to %q"
	return fmt.Errorf(tpl, msg, resp.StatusCode, resp.Request.Method, resp.Request.URL.Redacted())
}

// encodePlist serializes v as an XML property list.
func encodePlist(v interface{}) ([]byte, error) {
	return plist.MarshalIndent(v, plist.XMLFormat, "\t")
}

// doPlistRequest posts a property list document and decodes the
// property list reply into result. what names the operation in errors.
func (s *Store) doPlistRequest(ctx context.Context, what string, endpoint *url.URL, payload interface{}, session *Session, result interface{}) (*http.Response, error) {
	u, err := s.endpointURL(endpoint)
	if err != nil {
		return nil, err
	}
	data, err := encodePlist(payload)
	if err != nil {
		return nil, fmt.Errorf("cannot %s: cannot encode request: %v", what, err)
	}

	req, err := s.newRequest(ctx, &requestOptions{
		Method:      "POST",
		URL:         u,
		ContentType: formContentType,
		Data:        data,
	}, session)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot %s: %v", what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp, respToError(resp, what)
	}

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return resp, fmt.Errorf("cannot %s: cannot read reply: %v", what, err)
	}
	if _, err := plist.Unmarshal(reply, result); err != nil {
		logger.Debugf("undecodable reply to %s: %q", what, reply)
		return resp, fmt.Errorf("cannot %s: cannot decode reply: %v", what, err)
	}

	return resp, nil
}
