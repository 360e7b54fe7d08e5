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

package store_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	. "gopkg.in/check.v1"

	"github.com/ipaget/ipaget/progress"
	"github.com/ipaget/ipaget/store"
	"github.com/ipaget/ipaget/testutil"
)

type recordingMeter struct {
	mu       sync.Mutex
	label    string
	total    int64
	samples  []progress.Sample
	finished bool

	onSample func(progress.Sample)
}

func (m *recordingMeter) Start(label string, total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.label = label
	m.total = total
}

func (m *recordingMeter) Sample(s progress.Sample) {
	m.mu.Lock()
	m.samples = append(m.samples, s)
	m.mu.Unlock()
	if m.onSample != nil {
		m.onSample(s)
	}
}

func (m *recordingMeter) Finished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
}

type downloadSuite struct {
	baseStoreSuite

	dir     string
	payload []byte
}

var _ = Suite(&downloadSuite{})

func (s *downloadSuite) SetUpTest(c *C) {
	s.baseStoreSuite.SetUpTest(c)
	s.dir = c.MkDir()
	// several pool rounds worth of data
	s.payload = bytes.Repeat([]byte("0123456789abcdef"), 10*store.ChunkSize/16+7)
}

func (s *downloadSuite) servePayload(c *C, withLength bool) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, Equals, "GET")
		c.Check(r.URL.Path, Equals, "/foo.ipa")
		if withLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(s.payload)))
			w.Write(s.payload)
			return
		}
		// flushing forces a chunked reply without a length
		for rest := s.payload; len(rest) > 0; {
			n := 4096
			if n > len(rest) {
				n = len(rest)
			}
			w.Write(rest[:n])
			w.(http.Flusher).Flush()
			rest = rest[n:]
		}
	}
}

func (s *downloadSuite) TestDownload(c *C) {
	s.servePayload(c, true)
	target := filepath.Join(s.dir, "Foo-1.0.tmp")
	meter := &recordingMeter{}

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", target, meter, &store.DownloadOptions{
		ProgressInterval: time.Millisecond,
	})
	c.Assert(err, IsNil)
	c.Check(target, testutil.FileEquals, s.payload)

	total := int64(len(s.payload))
	c.Check(meter.label, Equals, "Foo")
	c.Check(meter.total, Equals, total)
	c.Check(meter.finished, Equals, true)
	c.Assert(len(meter.samples) > 0, Equals, true)

	var prevN int64
	prevPc := 0
	for _, sample := range meter.samples {
		c.Check(sample.Total, Equals, total)
		c.Check(sample.Transferred >= prevN, Equals, true)
		c.Check(sample.Transferred <= total, Equals, true)
		pc, ok := sample.Percentage()
		c.Check(ok, Equals, true)
		c.Check(pc >= prevPc, Equals, true)
		prevN, prevPc = sample.Transferred, pc
	}
	last := meter.samples[len(meter.samples)-1]
	c.Check(last.Transferred, Equals, total)
	pc, _ := last.Percentage()
	c.Check(pc, Equals, 100)
}

func (s *downloadSuite) TestDownloadUnknownLength(c *C) {
	s.servePayload(c, false)
	target := filepath.Join(s.dir, "Foo-1.0.tmp")
	meter := &recordingMeter{}

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", target, meter, nil)
	c.Assert(err, IsNil)
	c.Check(target, testutil.FileEquals, s.payload)

	c.Check(meter.total, Equals, int64(-1))
	last := meter.samples[len(meter.samples)-1]
	c.Check(last.Transferred, Equals, int64(len(s.payload)))
	_, ok := last.Percentage()
	c.Check(ok, Equals, false)
}

func (s *downloadSuite) TestDownloadReplacesExisting(c *C) {
	s.servePayload(c, true)
	target := filepath.Join(s.dir, "Foo-1.0.tmp")
	c.Assert(os.WriteFile(target, []byte("stale partial data"), 0644), IsNil)

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", target, nil, nil)
	c.Assert(err, IsNil)
	c.Check(target, testutil.FileEquals, s.payload)
}

func (s *downloadSuite) TestDownloadUnexpectedStatus(c *C) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}
	target := filepath.Join(s.dir, "Foo-1.0.tmp")
	url := s.server.URL + "/foo.ipa"

	err := s.newStore(c).Download(s.ctx, "Foo", url, target, nil, nil)
	c.Assert(err, FitsTypeOf, &store.DownloadError{})
	dlErr := err.(*store.DownloadError)
	c.Check(dlErr.Kind, Equals, store.DownloadNetwork)
	c.Check(dlErr.Code, Equals, 404)
	c.Check(err, ErrorMatches, `received an unexpected http response code \(404\) when trying to download .*/foo.ipa`)
	c.Check(target, testutil.FileAbsent)
}

func (s *downloadSuite) TestDownloadTruncatedLeavesPartial(c *C) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.Write([]byte("only a little"))
	}
	target := filepath.Join(s.dir, "Foo-1.0.tmp")

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", target, nil, nil)
	c.Assert(err, FitsTypeOf, &store.DownloadError{})
	dlErr := err.(*store.DownloadError)
	c.Check(dlErr.Kind, Equals, store.DownloadNetwork)
	c.Check(dlErr.URL, Equals, s.server.URL+"/foo.ipa")
	c.Check(errors.Is(err, io.ErrUnexpectedEOF), Equals, true)
	// left for the caller
	c.Check(target, testutil.FilePresent)
}

func (s *downloadSuite) TestDownloadFilesystemError(c *C) {
	s.servePayload(c, true)
	target := filepath.Join(s.dir, "no-such-dir", "Foo-1.0.tmp")

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", target, nil, nil)
	c.Assert(err, FitsTypeOf, &store.DownloadError{})
	c.Check(err.(*store.DownloadError).Kind, Equals, store.DownloadFilesystem)
	c.Check(err, ErrorMatches, "cannot write downloaded data: .*no such file or directory")
}

func (s *downloadSuite) TestDownloadNetworkError(c *C) {
	target := filepath.Join(s.dir, "Foo-1.0.tmp")

	err := s.newStore(c).Download(s.ctx, "Foo", "http://127.0.0.1:0/foo.ipa", target, nil, nil)
	c.Assert(err, FitsTypeOf, &store.DownloadError{})
	c.Check(err.(*store.DownloadError).Kind, Equals, store.DownloadNetwork)
	c.Check(err, ErrorMatches, `cannot download http://127.0.0.1:0/foo.ipa: .*`)
}

func (s *downloadSuite) TestDownloadCancelledRemovesPartial(c *C) {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(10*len(s.payload)))
		w.Write(s.payload)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}
	target := filepath.Join(s.dir, "Foo-1.0.tmp")

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	meter := &recordingMeter{onSample: func(sample progress.Sample) {
		if sample.Transferred > 0 {
			cancel()
		}
	}}

	err := s.newStore(c).Download(ctx, "Foo", s.server.URL+"/foo.ipa", target, meter, &store.DownloadOptions{
		ProgressInterval: time.Millisecond,
	})
	c.Assert(err, ErrorMatches, "download of Foo cancelled: context canceled")
	c.Check(err, testutil.ErrorIs, context.Canceled)
	c.Check(target, testutil.FileAbsent)
}

func (s *downloadSuite) TestDownloadRateLimited(c *C) {
	s.servePayload(c, true)
	var ratelimitReaderUsed bool
	var capacity int64
	restore := store.MockRatelimitReader(func(r io.Reader, bucket *ratelimit.Bucket) io.Reader {
		ratelimitReaderUsed = true
		capacity = bucket.Capacity()
		return r
	})
	defer restore()
	target := filepath.Join(s.dir, "Foo-1.0.tmp")

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", target, nil, &store.DownloadOptions{
		RateLimit: 1024 * 1024,
	})
	c.Assert(err, IsNil)
	c.Check(ratelimitReaderUsed, Equals, true)
	c.Check(capacity, Equals, int64(2*1024*1024))
	c.Check(target, testutil.FileEquals, s.payload)
}

func (s *downloadSuite) TestDownloadNoRateLimitByDefault(c *C) {
	s.servePayload(c, true)
	restore := store.MockRatelimitReader(func(r io.Reader, bucket *ratelimit.Bucket) io.Reader {
		c.Fatalf("unexpected rate limiting")
		return nil
	})
	defer restore()

	err := s.newStore(c).Download(s.ctx, "Foo", s.server.URL+"/foo.ipa", filepath.Join(s.dir, "x"), nil, nil)
	c.Assert(err, IsNil)
}
