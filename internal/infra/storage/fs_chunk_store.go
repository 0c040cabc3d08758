// Package storage holds the local-disk audio chunk store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ai-interview-engine/internal/domain"
	"ai-interview-engine/internal/domain/ports/repository"
)

var _ repository.AudioChunkStore = (*FSChunkStore)(nil)

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const (
	groupDirPrefix = "g"
	chunkSuffix    = ".chunk"
	combinedDir    = "combined"
)

// FSChunkStore keeps chunks as numbered files:
//
//	<root>/<namespace>/g0003/000001.chunk
//	<root>/<namespace>/combined/g0003.webm
//
// Chunk files are published with a hard link, so a sequence number is taken
// exactly once and readers never observe a half-written chunk.
type FSChunkStore struct {
	root string
	ext  string
}

func NewFSChunkStore(root, ext string) (*FSChunkStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSChunkStore{root: abs, ext: strings.TrimPrefix(ext, ".")}, nil
}

func (s *FSChunkStore) groupDir(namespace string, group int) string {
	return filepath.Join(s.root, namespace, fmt.Sprintf("%s%04d", groupDirPrefix, group))
}

func (s *FSChunkStore) Append(ctx context.Context, namespace string, group int, data []byte) (int, error) {
	if err := checkKey(namespace, group); err != nil {
		return 0, err
	}
	dir := s.groupDir(namespace, group)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("create group dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".incoming-*")
	if err != nil {
		return 0, fmt.Errorf("create temp chunk: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write chunk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close chunk: %w", err)
	}

	seqs, err := chunkSeqs(dir)
	if err != nil {
		return 0, err
	}
	next := 1
	if n := len(seqs); n > 0 {
		next = seqs[n-1] + 1
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err := os.Link(tmpName, filepath.Join(dir, chunkName(next)))
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("publish chunk: %w", err)
		}
		next++
	}
}

func (s *FSChunkStore) Chunks(ctx context.Context, namespace string, group int) ([][]byte, error) {
	if err := checkKey(namespace, group); err != nil {
		return nil, err
	}
	dir := s.groupDir(namespace, group)
	seqs, err := chunkSeqs(dir)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(seqs))
	for _, seq := range seqs {
		b, err := os.ReadFile(filepath.Join(dir, chunkName(seq)))
		if err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", seq, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *FSChunkStore) LatestGroup(ctx context.Context, namespace string) (int, error) {
	if !namespacePattern.MatchString(namespace) {
		return 0, domain.ErrInvalidArgument
	}
	entries, err := os.ReadDir(filepath.Join(s.root, namespace))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list groups: %w", err)
	}
	latest := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), groupDirPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), groupDirPrefix))
		if err == nil && n > latest {
			latest = n
		}
	}
	return latest, nil
}

func (s *FSChunkStore) EnsureGroup(ctx context.Context, namespace string, group int) error {
	if err := checkKey(namespace, group); err != nil {
		return err
	}
	return os.MkdirAll(s.groupDir(namespace, group), 0o750)
}

func (s *FSChunkStore) WriteCombined(ctx context.Context, namespace string, group int, data []byte) (string, error) {
	if err := checkKey(namespace, group); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, namespace, combinedDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create combined dir: %w", err)
	}
	final := filepath.Join(dir, fmt.Sprintf("%s%04d.%s", groupDirPrefix, group, s.ext))
	tmp, err := os.CreateTemp(dir, ".combining-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return final, nil
}

func (s *FSChunkStore) ReadCombined(ctx context.Context, location string) ([]byte, error) {
	clean := filepath.Clean(location)
	if rel, err := filepath.Rel(s.root, clean); err != nil || strings.HasPrefix(rel, "..") {
		return nil, domain.ErrInvalidArgument
	}
	b, err := os.ReadFile(clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func checkKey(namespace string, group int) error {
	if !namespacePattern.MatchString(namespace) || group < 1 {
		return domain.ErrInvalidArgument
	}
	return nil
}

func chunkName(seq int) string { return fmt.Sprintf("%06d%s", seq, chunkSuffix) }

// chunkSeqs returns the published sequence numbers of a group directory, ascending.
func chunkSeqs(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	seqs := make([]int, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, chunkSuffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, chunkSuffix))
		if err != nil {
			continue
		}
		seqs = append(seqs, n)
	}
	sort.Ints(seqs)
	return seqs, nil
}
