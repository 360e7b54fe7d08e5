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

package resign

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"howett.net/plist"

	"github.com/ipaget/ipaget/logger"
)

const (
	manifestPattern = "**/*.app/SC_Info/Manifest.plist"
	payloadDir      = "Payload"
)

// Manifest is the signature manifest of an application bundle.
type Manifest struct {
	// SinfPaths are where signatures go, relative to the bundle.
	SinfPaths []string `plist:"SinfPaths"`
}

// parseManifest decodes a manifest. Empty or undecodable manifests are
// taken to be empty documents.
func parseManifest(data []byte) *Manifest {
	var m Manifest
	if len(bytes.TrimSpace(data)) == 0 {
		return &m
	}
	if _, err := plist.Unmarshal(data, &m); err != nil {
		logger.Debugf("cannot decode signature manifest, treating it as empty: %v", err)
		return &Manifest{}
	}
	return &m
}

func isTopLevelManifest(name string) bool {
	parts := strings.Split(name, "/")
	return len(parts) == 4 && parts[0] == payloadDir && strings.HasSuffix(parts[1], ".app") && len(parts[1]) > len(".app")
}

// FindManifestEntry returns the archive entry, out of names, holding the
// signature manifest of the application bundle. Nested bundles
// (extensions, watch apps) carry manifests too; when more than one
// entry matches, the only one directly under Payload/ wins.
func FindManifestEntry(names []string) (string, error) {
	var matches []string
	for _, name := range names {
		if ok, _ := doublestar.Match(manifestPattern, name); ok {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", &Error{Kind: ManifestNotFound}
	case 1:
		return matches[0], nil
	}

	var top []string
	for _, name := range matches {
		if isTopLevelManifest(name) {
			top = append(top, name)
		}
	}
	if len(top) != 1 {
		return "", &Error{
			Kind: ManifestInvalid,
			Path: matches[0],
			Err:  fmt.Errorf("ambiguous, %d candidates: %s", len(matches), strings.Join(matches, ", ")),
		}
	}
	return top[0], nil
}

// BundleName returns the name of the bundle the manifest belongs to,
// that is the entry right under Payload/ without its .app suffix.
func BundleName(manifestPath string) (string, error) {
	parts := strings.Split(manifestPath, "/")
	if len(parts) < 2 || parts[0] != payloadDir {
		return "", fmt.Errorf("not inside %s/", payloadDir)
	}
	name := strings.TrimSuffix(parts[1], ".app")
	if name == "" || name == parts[1] {
		return "", fmt.Errorf("%q is not an application bundle", parts[1])
	}
	return name, nil
}

// SignatureTarget returns the archive entry the signature declared at
// sinfPath by the manifest at manifestPath must be written to.
func SignatureTarget(manifestPath, sinfPath string) (string, error) {
	bundle, err := BundleName(manifestPath)
	if err != nil {
		return "", err
	}
	if sinfPath == "" {
		return "", errors.New("empty signature path")
	}
	if path.IsAbs(sinfPath) {
		return "", fmt.Errorf("signature path %q is absolute", sinfPath)
	}

	bundleDir := payloadDir + "/" + bundle + ".app"
	target := path.Join(bundleDir, sinfPath)
	if !strings.HasPrefix(target, bundleDir+"/") {
		return "", fmt.Errorf("signature path %q is outside of the bundle", sinfPath)
	}
	return target, nil
}
