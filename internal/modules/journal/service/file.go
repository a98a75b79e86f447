package service

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sync"

	"turbo_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// File NDJSON, одна запись на строку, fsync не делаем.
type File struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "journal dir %s", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	return &File{f: f, w: bufio.NewWriter(f)}, nil
}

func (j *File) Append(_ context.Context, rec models.CycleRecord) error {
	line, err := sonic.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode journal record")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "write journal")
	}
	return j.w.Flush()
}

func (j *File) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.w.Flush(); err != nil {
		_ = j.f.Close()
		return err
	}
	return j.f.Close()
}
