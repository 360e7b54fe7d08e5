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

// Package deviceid works out the device identifier the store uses to
// correlate the calls of one client.
package deviceid

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/ipaget/ipaget/logger"
)

var interfaces = psnet.InterfacesWithContext

var newUUID = uuid.New

// Normalize turns a hardware address or a configured identifier into
// the store form: uppercase hex without separators.
func Normalize(id string) (string, error) {
	norm := strings.ToUpper(strings.NewReplacer(":", "", "-", "", ".", "").Replace(strings.TrimSpace(id)))
	if norm == "" {
		return "", fmt.Errorf("invalid device id %q: empty", id)
	}
	for _, r := range norm {
		if !strings.ContainsRune("0123456789ABCDEF", r) {
			return "", fmt.Errorf("invalid device id %q: not hexadecimal", id)
		}
	}
	return norm, nil
}

func isLoopback(iface psnet.InterfaceStat) bool {
	for _, flag := range iface.Flags {
		if flag == "loopback" {
			return true
		}
	}
	return false
}

func isNullAddress(norm string) bool {
	return strings.Trim(norm, "0") == ""
}

// hardwareID returns the address of the first non-loopback interface
// that has one.
func hardwareID(ctx context.Context) (string, error) {
	ifaces, err := interfaces(ctx)
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if isLoopback(iface) || iface.HardwareAddr == "" {
			continue
		}
		norm, err := Normalize(iface.HardwareAddr)
		if err != nil || isNullAddress(norm) {
			continue
		}
		logger.Debugf("Using the hardware address of %s as device id.", iface.Name)
		return norm, nil
	}
	return "", nil
}

// Resolve returns the device identifier for this run. A configured
// identifier wins; otherwise the first hardware address is used; if
// there is none a random identifier of the same shape is made up.
func Resolve(ctx context.Context, configured string) (string, error) {
	if configured != "" {
		return Normalize(configured)
	}

	id, err := hardwareID(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Noticef("cannot list network interfaces: %v", err)
	}
	if id != "" {
		return id, nil
	}

	u := newUUID()
	id = strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))[:12]
	logger.Noticef("No hardware address found, using generated device id %s; set device-id in the configuration to keep it stable.", id)
	return id, nil
}
