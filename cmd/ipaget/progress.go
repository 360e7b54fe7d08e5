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

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/ipaget/ipaget/i18n"
	"github.com/ipaget/ipaget/progress"
	"github.com/ipaget/ipaget/strutil/quantity"
)

// labelWidth is the number of columns the label takes; display names
// are often CJK, so this is measured in cells, not runes.
const labelWidth = 24

// lineInterval is the least time between two lines when the output is
// not a terminal.
const lineInterval = time.Second

var timeNow = time.Now

// textMeter shows a download on a single line. On a terminal the line
// is redrawn for every sample; otherwise a new line is printed at most
// every lineInterval, plus one with the final state.
type textMeter struct {
	w         io.Writer
	overwrite bool

	label   string
	last    progress.Sample
	written int
	printed time.Time
}

func newTextMeter(w io.Writer, overwrite bool) *textMeter {
	return &textMeter{w: w, overwrite: overwrite}
}

func (m *textMeter) Start(label string, total int64) {
	m.label = runewidth.FillRight(runewidth.Truncate(label, labelWidth, "…"), labelWidth)
	m.last = progress.Sample{Total: total}
	m.written = 0
	m.printed = timeNow()
}

func (m *textMeter) line(s progress.Sample) string {
	parts := []string{m.label}
	pc, known := s.Percentage()
	if known {
		parts = append(parts, fmt.Sprintf("%3d%%", pc))
	}
	parts = append(parts, quantity.FormatBytes(s.Transferred), quantity.FormatRate(s.Rate))
	if known && s.Rate > 0 && s.Transferred < s.Total {
		eta := float64(s.Total-s.Transferred) / s.Rate
		// TRANSLATORS: %s is a duration like 1m30s
		parts = append(parts, fmt.Sprintf(i18n.G("ETA %s"), quantity.FormatDuration(eta)))
	}
	return strings.Join(parts, "  ")
}

func (m *textMeter) draw(s progress.Sample) {
	line := m.line(s)
	width := runewidth.StringWidth(line)
	pad := ""
	if m.written > width {
		pad = strings.Repeat(" ", m.written-width)
	}
	fmt.Fprint(m.w, "\r", line, pad)
	m.written = width
}

func (m *textMeter) Sample(s progress.Sample) {
	m.last = s
	if m.overwrite {
		m.draw(s)
		return
	}
	now := timeNow()
	if now.Sub(m.printed) < lineInterval {
		return
	}
	m.printed = now
	fmt.Fprintln(m.w, m.line(s))
}

func (m *textMeter) Finished() {
	if m.overwrite {
		m.draw(m.last)
		fmt.Fprint(m.w, "\n")
		return
	}
	fmt.Fprintln(m.w, m.line(m.last))
}
