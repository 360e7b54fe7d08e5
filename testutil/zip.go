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

package testutil

import (
	"archive/zip"
	"io"
	"os"

	"gopkg.in/check.v1"
)

// ZipEntry is one file of a test archive.
type ZipEntry struct {
	Name    string
	Content []byte
	Method  uint16
}

// MakeZip writes an archive holding entries, in order, to path.
func MakeZip(c *check.C, path string, entries ...ZipEntry) {
	f, err := os.Create(path)
	c.Assert(err, check.IsNil)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: e.Method})
		c.Assert(err, check.IsNil)
		_, err = w.Write(e.Content)
		c.Assert(err, check.IsNil)
	}
	c.Assert(zw.Close(), check.IsNil)
}

// ReadZip returns the entries of the archive at path, in order.
func ReadZip(c *check.C, path string) []ZipEntry {
	zr, err := zip.OpenReader(path)
	c.Assert(err, check.IsNil)
	defer zr.Close()

	entries := make([]ZipEntry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		c.Assert(err, check.IsNil)
		content, err := io.ReadAll(rc)
		rc.Close()
		c.Assert(err, check.IsNil)
		entries = append(entries, ZipEntry{Name: f.Name, Content: content, Method: f.Method})
	}
	return entries
}
