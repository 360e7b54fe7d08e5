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

// Package resign turns a downloaded application archive into one
// installable under the purchasing account, by adding the account
// signature where the bundle manifest says it goes and stamping the
// account into the archive metadata.
package resign

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/tomb.v2"
	"howett.net/plist"

	"github.com/ipaget/ipaget/logger"
	"github.com/ipaget/ipaget/osutil"
	"github.com/ipaget/ipaget/store"
)

const (
	metadataEntry = "iTunesMetadata.plist"

	// manifests are tiny; don't let a broken one eat memory
	maxManifestSize = 1024 * 1024

	signatureID = 0
)

var accountKeys = []string{"apple-id", "userName", "appleId"}

var timeNow = time.Now

// Resign writes to finalPath a copy of the archive at tmpPath carrying
// the account signature of desc and metadata stamped with accountEmail.
// Any file at finalPath is removed first. A signature or metadata entry
// already in the archive is replaced, so resigning is idempotent.
func Resign(tmpPath string, desc *store.PurchaseDescriptor, accountEmail, finalPath string) error {
	if same, _ := samePath(tmpPath, finalPath); same {
		return &Error{Kind: IOFailure, Path: finalPath, Err: fmt.Errorf("output is the input")}
	}
	if err := osutil.RemoveIfExists(finalPath); err != nil {
		return &Error{Kind: IOFailure, Path: finalPath, Err: err}
	}

	metadata, err := accountMetadata(desc.Metadata, accountEmail)
	if err != nil {
		return &Error{Kind: IOFailure, Path: metadataEntry, Err: err}
	}

	sig, ok := desc.Signature(signatureID)
	if !ok {
		return &Error{Kind: SignatureMissing}
	}

	zr, err := zip.OpenReader(tmpPath)
	if err != nil {
		return &Error{Kind: IOFailure, Path: tmpPath, Err: err}
	}
	defer zr.Close()

	target, err := signatureTarget(&zr.Reader)
	if err != nil {
		if rerr, ok := err.(*Error); ok && rerr.Kind == ManifestNotFound {
			rerr.Path = tmpPath
		}
		return err
	}
	logger.Debugf("Injecting signature into %q of %q.", target, tmpPath)

	return writeArchive(finalPath, func(w io.Writer) error {
		return rewrite(w, &zr.Reader, target, sig.Blob, metadata)
	})
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

// signatureTarget finds the bundle manifest in the archive and works out
// which entry the signature belongs in.
func signatureTarget(zr *zip.Reader) (string, error) {
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	manifestPath, err := FindManifestEntry(names)
	if err != nil {
		return "", err
	}

	f, err := zr.Open(manifestPath)
	if err != nil {
		return "", &Error{Kind: IOFailure, Path: manifestPath, Err: err}
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxManifestSize))
	if err != nil {
		return "", &Error{Kind: IOFailure, Path: manifestPath, Err: err}
	}

	manifest := parseManifest(data)
	if len(manifest.SinfPaths) == 0 {
		return "", &Error{Kind: ManifestInvalid, Path: manifestPath, Err: fmt.Errorf("no signature paths")}
	}
	target, err := SignatureTarget(manifestPath, manifest.SinfPaths[0])
	if err != nil {
		return "", &Error{Kind: ManifestInvalid, Path: manifestPath, Err: err}
	}
	return target, nil
}

// accountMetadata returns the encoded metadata document: a copy of
// metadata with the account fields set to email.
func accountMetadata(metadata map[string]interface{}, email string) ([]byte, error) {
	doc := deepCopy(metadata).(map[string]interface{})
	for _, k := range accountKeys {
		doc[k] = email
	}
	return plist.MarshalIndent(doc, plist.XMLFormat, "\t")
}

func deepCopy(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, e := range v {
			m[k] = deepCopy(e)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(v))
		for i, e := range v {
			l[i] = deepCopy(e)
		}
		return l
	case []byte:
		return append([]byte(nil), v...)
	}
	return v
}

// rewrite streams every entry of zr, except the ones being replaced,
// into a new archive on w and appends the signature and metadata.
func rewrite(w io.Writer, zr *zip.Reader, target string, signature, metadata []byte) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range zr.File {
		if f.Name == target || f.Name == metadataEntry {
			continue
		}
		if err := copyEntry(zw, f); err != nil {
			return err
		}
	}

	now := timeNow()
	for _, e := range []struct {
		name string
		data []byte
	}{
		{target, signature},
		{metadataEntry, metadata},
	} {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return err
		}
		if _, err := fw.Write(e.data); err != nil {
			return err
		}
	}

	return zw.Close()
}

func copyEntry(zw *zip.Writer, f *zip.File) error {
	hdr := f.FileHeader
	// sizes, checksums and zip64 records are recomputed on write
	hdr.Extra = nil
	hdr.Method = zip.Deflate

	fw, err := zw.CreateHeader(&hdr)
	if err != nil {
		return err
	}
	if f.FileInfo().IsDir() {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("cannot read %q: %v", f.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("cannot read %q: %v", f.Name, err)
	}
	return nil
}

// writeArchive runs encode and a file sink for finalPath as two stages
// joined by a pipe. Either stage failing stops the other one.
func writeArchive(finalPath string, encode func(w io.Writer) error) error {
	pr, pw := io.Pipe()

	var t tomb.Tomb
	t.Go(func() error {
		err := encode(pw)
		pw.CloseWithError(err)
		return err
	})
	t.Go(func() error {
		err := sinkFile(finalPath, pr)
		pr.CloseWithError(err)
		return err
	})

	if err := t.Wait(); err != nil {
		if _, ok := err.(*Error); ok {
			return err
		}
		return &Error{Kind: IOFailure, Path: finalPath, Err: err}
	}
	return nil
}

func sinkFile(finalPath string, r io.Reader) (err error) {
	f, err := os.OpenFile(finalPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Sync()
}
