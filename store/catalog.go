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

package store

import (
	"context"
	"fmt"
	"strings"
)

// BuildID identifies one historical build of an application. It is
// opaque: the store defines what it means and how builds compare.
type BuildID string

// BuildOrder decides in which order ListBuilds returns builds.
type BuildOrder int

const (
	// BuildOrderReversed returns builds in the reverse of the order
	// the store sent them in. Nothing says the store's order is by
	// age, so neither is this.
	BuildOrderReversed BuildOrder = iota
	// BuildOrderServer returns builds exactly as the store sent them.
	BuildOrderServer
)

func (o BuildOrder) String() string {
	switch o {
	case BuildOrderReversed:
		return "reversed"
	case BuildOrderServer:
		return "server"
	}
	return fmt.Sprintf("BuildOrder(%d)", int(o))
}

// ParseBuildOrder is the inverse of BuildOrder.String.
func ParseBuildOrder(s string) (BuildOrder, error) {
	switch s {
	case "reversed", "":
		return BuildOrderReversed, nil
	case "server":
		return BuildOrderServer, nil
	}
	return 0, fmt.Errorf("invalid build order %q (want %q or %q)", s, "reversed", "server")
}

// Signature is one account signature (SINF) of a purchase.
type Signature struct {
	ID   int64
	Blob []byte
}

// PurchaseDescriptor is what the store answers for one build of an
// application: where to get it, what it is, and how to sign it.
type PurchaseDescriptor struct {
	URL        string
	Metadata   map[string]interface{}
	Signatures []Signature
}

func (d *PurchaseDescriptor) metadataString(key string) string {
	v, ok := d.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DisplayName returns the bundle display name of the build.
func (d *PurchaseDescriptor) DisplayName() string {
	return d.metadataString("bundleDisplayName")
}

// Version returns the bundle version of the build.
func (d *PurchaseDescriptor) Version() string {
	return d.metadataString("bundleVersion")
}

// Signature returns the signature with the given id, if there is one.
func (d *PurchaseDescriptor) Signature(id int64) (*Signature, bool) {
	for i := range d.Signatures {
		if d.Signatures[i].ID == id {
			return &d.Signatures[i], true
		}
	}
	return nil, false
}

// ArtifactBaseName returns <displayName>-<version>, the name (without
// extension) under which the build is stored locally.
func (d *PurchaseDescriptor) ArtifactBaseName() string {
	name := d.DisplayName() + "-" + d.Version()
	return strings.Map(func(r rune) rune {
		if r == '/' || r == 0 {
			return '_'
		}
		return r
	}, name)
}

type productRequest struct {
	CreditDisplay     string `plist:"creditDisplay"`
	GUID              string `plist:"guid"`
	SalableAdamID     string `plist:"salableAdamId"`
	ExternalVersionID string `plist:"externalVersionId,omitempty"`
}

type productSinf struct {
	ID   int64  `plist:"id"`
	Sinf []byte `plist:"sinf"`
}

type productReply struct {
	CustomerMessage string `plist:"customerMessage"`
	SongList        []struct {
		URL      string                 `plist:"URL"`
		Metadata map[string]interface{} `plist:"metadata"`
		Sinfs    []productSinf          `plist:"sinfs"`
	} `plist:"songList"`
}

func (s *Store) product(ctx context.Context, session *Session, appID string, build BuildID) (*productReply, error) {
	endpoint := s.listBuildsURI
	what := "list builds"
	if build != "" {
		endpoint = s.resolveBuildURI
		what = "resolve build"
	}

	req := &productRequest{
		GUID:              s.deviceID,
		SalableAdamID:     appID,
		ExternalVersionID: string(build),
	}
	var reply productReply
	if _, err := s.doPlistRequest(ctx, what, endpoint, req, session, &reply); err != nil {
		return nil, err
	}
	if len(reply.SongList) == 0 {
		return nil, &CatalogError{Kind: ProductNotFound, AppID: appID, Build: build, Message: reply.CustomerMessage}
	}
	return &reply, nil
}

// ListBuilds returns the builds of the application the store knows
// about, ordered according to the configured BuildOrder.
func (s *Store) ListBuilds(ctx context.Context, session *Session, appID string) ([]BuildID, error) {
	reply, err := s.product(ctx, session, appID, "")
	if err != nil {
		return nil, err
	}

	raw, _ := reply.SongList[0].Metadata["softwareVersionExternalIdentifiers"].([]interface{})
	if len(raw) == 0 {
		return nil, &CatalogError{Kind: ProductNotFound, AppID: appID, Message: "no builds listed"}
	}
	builds := make([]BuildID, 0, len(raw))
	for _, id := range raw {
		builds = append(builds, BuildID(fmt.Sprint(id)))
	}

	if s.buildOrder == BuildOrderReversed {
		for i, j := 0, len(builds)-1; i < j; i, j = i+1, j-1 {
			builds[i], builds[j] = builds[j], builds[i]
		}
	}
	return builds, nil
}

// ResolveBuild returns the purchase descriptor of one build of the
// application.
func (s *Store) ResolveBuild(ctx context.Context, session *Session, appID string, build BuildID) (*PurchaseDescriptor, error) {
	if build == "" {
		return nil, fmt.Errorf("internal error: cannot resolve an empty build of application %s", appID)
	}
	reply, err := s.product(ctx, session, appID, build)
	if err != nil {
		return nil, err
	}

	song := reply.SongList[0]
	if song.URL == "" {
		return nil, &CatalogError{Kind: ProductNotFound, AppID: appID, Build: build, Message: "no download location"}
	}

	desc := &PurchaseDescriptor{
		URL:      song.URL,
		Metadata: song.Metadata,
	}
	if desc.Metadata == nil {
		desc.Metadata = make(map[string]interface{})
	}
	for _, sinf := range song.Sinfs {
		desc.Signatures = append(desc.Signatures, Signature{ID: sinf.ID, Blob: sinf.Sinf})
	}
	return desc, nil
}
