package file

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

const artifactMode = 0o644

// Result describes a committed artifact.
type Result struct {
	Path   string
	Bytes  int64
	Digest uint64
	// Unchanged is true when the target already held identical content and
	// was left untouched.
	Unchanged bool
}

// Sink writes an artifact to a temporary file next to its target and only
// replaces the target on Commit, so a failed run never leaves a truncated file.
type Sink struct {
	path   string
	tmp    *os.File
	bw     *bufio.Writer
	digest *xxhash.Digest
	n      int64
	closed bool
}

// Create starts a new artifact for path.
func Create(path string) (*Sink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create sink: %w", err)
	}
	return &Sink{
		path:   path,
		tmp:    tmp,
		bw:     bufio.NewWriter(tmp),
		digest: xxhash.New(),
	}, nil
}

func (s *Sink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("write to closed sink")
	}
	n, err := s.bw.Write(p)
	s.digest.Write(p[:n])
	s.n += int64(n)
	return n, err
}

// Commit flushes the artifact and moves it into place. If the target already
// has the same content it is kept as is and the temporary file is discarded.
func (s *Sink) Commit() (Result, error) {
	if s.closed {
		return Result{}, errors.New("commit closed sink")
	}
	res := Result{Path: s.path, Bytes: s.n, Digest: s.digest.Sum64()}

	if err := s.bw.Flush(); err != nil {
		s.Abort()
		return res, fmt.Errorf("commit %s: %w", s.path, err)
	}
	if err := s.tmp.Sync(); err != nil {
		s.Abort()
		return res, fmt.Errorf("commit %s: %w", s.path, err)
	}
	if err := s.tmp.Chmod(artifactMode); err != nil {
		s.Abort()
		return res, fmt.Errorf("commit %s: %w", s.path, err)
	}
	if err := s.tmp.Close(); err != nil {
		s.closed = true
		os.Remove(s.tmp.Name())
		return res, fmt.Errorf("commit %s: %w", s.path, err)
	}
	s.closed = true

	if same, err := sameContent(s.path, res.Bytes, res.Digest); err == nil && same {
		res.Unchanged = true
		return res, os.Remove(s.tmp.Name())
	}

	if err := os.Rename(s.tmp.Name(), s.path); err != nil {
		os.Remove(s.tmp.Name())
		return res, fmt.Errorf("commit %s: %w", s.path, err)
	}
	return res, nil
}

// Abort discards the artifact. It is safe to call after Commit.
func (s *Sink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	closeErr := s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}

// Digest returns the xxhash64 of the file at path.
func Digest(path string) (uint64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	d := xxhash.New()
	n, err := io.Copy(d, f)
	if err != nil {
		return 0, 0, err
	}
	return d.Sum64(), n, nil
}

func sameContent(path string, size int64, digest uint64) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() || info.Size() != size {
		return false, nil
	}
	d, _, err := Digest(path)
	if err != nil {
		return false, err
	}
	return d == digest, nil
}
