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

// Package quantity formats byte counts, transfer rates and durations
// for humans.
package quantity

import (
	"fmt"
	"math"

	"github.com/ipaget/ipaget/i18n"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n in binary multiples: one decimal below ten
// units, none otherwise, so the width stays small ("0 B", "1.5 MB",
// "734 MB").
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	r := float64(n)
	l := 0
	for r >= 1024 && l < len(byteUnits)-1 {
		r /= 1024
		l++
	}
	precision := 0
	if r < 10 && l > 0 {
		precision = 1
	}
	return fmt.Sprintf("%.*f %s", precision, r, byteUnits[l])
}

// FormatRate renders a transfer rate given in bytes per second.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec < 0 || math.IsNaN(bytesPerSec) || math.IsInf(bytesPerSec, 0) {
		bytesPerSec = 0
	}
	return FormatBytes(int64(bytesPerSec)) + "/s"
}

var (
	// TRANSLATORS: this needs to be a single rune that is understood to mean "seconds" in e.g. 1m30s
	//    (I fully expect this to always be "s", given it's a SI unit)
	secs = i18n.G("s")
	// TRANSLATORS: this needs to be a single rune that is understood to mean "minutes" in e.g. 1m30s
	mins = i18n.G("m")
	// TRANSLATORS: this needs to be a single rune that is understood to mean "hours" in e.g. 1h30m
	hours = i18n.G("h")
)

func divmod(a, b float64) (q, r float64) {
	q = math.Floor(a / b)
	return q, a - q*b
}

// FormatDuration renders dt seconds compactly, e.g. "9s", "1m30s",
// "2h05m". Anything beyond 99 hours is shown as "--".
func FormatDuration(dt float64) string {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return "--"
	}
	dt = math.Round(dt)
	if dt < 60 {
		return fmt.Sprintf("%.f%s", dt, secs)
	}
	if dt < 3600 {
		m, s := divmod(dt, 60)
		return fmt.Sprintf("%.f%s%02.f%s", m, mins, s, secs)
	}
	h, m := divmod(dt/60, 60)
	if h > 99 {
		return "--"
	}
	return fmt.Sprintf("%.f%s%02.f%s", h, hours, math.Floor(m), mins)
}
