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

package deviceid

import (
	"context"

	"github.com/google/uuid"
	psnet "github.com/shirou/gopsutil/v4/net"
)

func MockInterfaces(f func(ctx context.Context) (psnet.InterfaceStatList, error)) (restore func()) {
	old := interfaces
	interfaces = f
	return func() {
		interfaces = old
	}
}

func MockNewUUID(f func() uuid.UUID) (restore func()) {
	old := newUUID
	newUUID = f
	return func() {
		newUUID = old
	}
}
