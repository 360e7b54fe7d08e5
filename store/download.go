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
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/juju/ratelimit"
	"gopkg.in/tomb.v2"

	"github.com/ipaget/ipaget/logger"
	"github.com/ipaget/ipaget/osutil"
	"github.com/ipaget/ipaget/progress"
)

// DownloadOptions carries options for Download.
type DownloadOptions struct {
	// RateLimit caps the download speed in bytes per second; 0 means
	// no limit.
	RateLimit int64
	// ProgressInterval is how often the meter is sampled; 0 means
	// progress.DefaultInterval.
	ProgressInterval time.Duration
}

const (
	// peak memory use of a download is chunkPoolDepth*chunkSize
	chunkSize      = 32 * 1024
	chunkPoolDepth = 4
)

var ratelimitReader = ratelimit.Reader

// Download streams the package at downloadURL into targetPath, showing
// progress on pbar. Any file already at targetPath is removed first.
// Failures other than ctx being cancelled leave the partial file behind.
func (s *Store) Download(ctx context.Context, name, downloadURL, targetPath string, pbar progress.Meter, dlOpts *DownloadOptions) (err error) {
	if dlOpts == nil {
		dlOpts = &DownloadOptions{}
	}

	if err := osutil.RemoveIfExists(targetPath); err != nil {
		return &DownloadError{Kind: DownloadFilesystem, URL: downloadURL, Err: err}
	}

	u, err := url.Parse(downloadURL)
	if err != nil {
		return &DownloadError{Kind: DownloadNetwork, URL: downloadURL, Err: err}
	}

	t, tctx := tomb.WithContext(ctx)

	req, err := http.NewRequestWithContext(tctx, "GET", u.String(), nil)
	if err != nil {
		t.Kill(nil)
		return &DownloadError{Kind: DownloadNetwork, URL: downloadURL, Err: err}
	}
	startTime := time.Now()
	resp, err := s.dlClient.Do(req)
	if err != nil {
		t.Kill(nil)
		if ctx.Err() != nil {
			return fmt.Errorf("download of %s cancelled: %w", name, ctx.Err())
		}
		return &DownloadError{Kind: DownloadNetwork, URL: downloadURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Kill(nil)
		return &DownloadError{Kind: DownloadNetwork, Code: resp.StatusCode, URL: downloadURL}
	}

	w, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		t.Kill(nil)
		return &DownloadError{Kind: DownloadFilesystem, URL: downloadURL, Err: err}
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = &DownloadError{Kind: DownloadFilesystem, URL: downloadURL, Err: cerr}
		}
		if ctx.Err() != nil {
			os.Remove(targetPath)
		}
	}()
	logger.Debugf("Starting download of %q into %q.", name, targetPath)

	var body io.Reader = resp.Body
	if limit := dlOpts.RateLimit; limit > 0 {
		bucket := ratelimit.NewBucketWithRate(float64(limit), 2*limit)
		body = ratelimitReader(resp.Body, bucket)
	}

	tracker := progress.NewTracker(pbar, name, resp.ContentLength, dlOpts.ProgressInterval)
	err = stagedCopy(t, w, body, tracker)
	final := tracker.Finish()

	if ctx.Err() != nil {
		return fmt.Errorf("download of %s cancelled: %w", name, ctx.Err())
	}
	if err != nil {
		if dlErr, ok := err.(*DownloadError); ok {
			dlErr.URL = downloadURL
		}
		logger.Debugf("download of %q failed: %v", downloadURL, err)
		return err
	}
	if err := w.Sync(); err != nil {
		return &DownloadError{Kind: DownloadFilesystem, URL: downloadURL, Err: err}
	}

	dt := time.Since(startTime)
	logger.Debugf("Download of %q succeeded in %.03fs (%d bytes).", name, dt.Seconds(), final.Transferred)
	return nil
}

// stagedCopy moves src into dst through a bounded pool of chunks. The
// source stage fills free chunks and hands them over; the sink stage
// writes them out, accounts for them on tracker and gives them back.
// A third goroutine samples tracker until the sink is done. t supervises
// all three: the first stage failing stops the others.
func stagedCopy(t *tomb.Tomb, dst io.Writer, src io.Reader, tracker *progress.Tracker) error {
	free := make(chan []byte, chunkPoolDepth)
	for i := 0; i < chunkPoolDepth; i++ {
		free <- make([]byte, chunkSize)
	}
	full := make(chan []byte, chunkPoolDepth)
	sinkDone := make(chan struct{})

	// source
	t.Go(func() error {
		defer close(full)
		for {
			var buf []byte
			select {
			case buf = <-free:
			case <-t.Dying():
				return tomb.ErrDying
			}
			n, err := src.Read(buf[:cap(buf)])
			if n > 0 {
				select {
				case full <- buf[:n]:
				case <-t.Dying():
					return tomb.ErrDying
				}
			} else {
				free <- buf
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return &DownloadError{Kind: DownloadNetwork, Err: err}
			}
		}
	})

	// sink
	t.Go(func() error {
		defer close(sinkDone)
		for buf := range full {
			if _, err := dst.Write(buf); err != nil {
				return &DownloadError{Kind: DownloadFilesystem, Err: err}
			}
			tracker.Add(len(buf))
			free <- buf[:cap(buf)]
		}
		return nil
	})

	t.Go(func() error {
		tracker.Run(sinkDone)
		return nil
	})

	return t.Wait()
}
