package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileOptions configures a rotating log file.
type FileOptions struct {
	Dir      string
	Name     string
	MaxBytes int64
	Keep     int
	Now      func() time.Time
}

// FileWriter appends JSON log lines to Dir/Name, rotating by size and by
// calendar day. Rotated files are gzipped and at most Keep of them are retained.
type FileWriter struct {
	mu      sync.Mutex
	opts    FileOptions
	file    *os.File
	size    int64
	opened  time.Time
	pending sync.WaitGroup
}

// NewFileWriter opens (or creates) the active log file.
func NewFileWriter(opts FileOptions) (*FileWriter, error) {
	if opts.Name == "" {
		opts.Name = "shrine.log"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 * 1024 * 1024
	}
	if opts.Keep <= 0 {
		opts.Keep = 7
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	fw := &FileWriter{opts: opts}
	if err := fw.open(); err != nil {
		return nil, err
	}
	return fw, nil
}

// Path returns the location of the active log file.
func (fw *FileWriter) Path() string {
	return filepath.Join(fw.opts.Dir, fw.opts.Name)
}

func (fw *FileWriter) open() error {
	f, err := os.OpenFile(fw.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	fw.file = f
	fw.size = info.Size()
	fw.opened = fw.opts.Now()
	return nil
}

func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.file == nil {
		return 0, os.ErrClosed
	}
	if fw.needsRotation(int64(len(p))) {
		if err := fw.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := fw.file.Write(p)
	fw.size += int64(n)
	return n, err
}

func (fw *FileWriter) needsRotation(incoming int64) bool {
	if fw.size > 0 && fw.size+incoming > fw.opts.MaxBytes {
		return true
	}
	now := fw.opts.Now()
	y1, m1, d1 := fw.opened.Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

func (fw *FileWriter) rotate() error {
	if err := fw.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	fw.file = nil

	stamp := fw.opts.Now().Format("20060102-150405.000")
	rotated := filepath.Join(fw.opts.Dir, fmt.Sprintf("%s.%s", fw.opts.Name, stamp))
	if err := os.Rename(fw.Path(), rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	fw.pending.Add(1)
	go func() {
		defer fw.pending.Done()
		gzipFile(rotated)
		fw.prune()
	}()

	return fw.open()
}

func gzipFile(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	zw := gzip.NewWriter(out)
	_, copyErr := io.Copy(zw, in)
	closeErr := zw.Close()
	out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(path + ".gz")
		return
	}
	os.Remove(path)
}

// prune keeps the newest Keep rotated files. Rotated names embed their
// timestamp so lexical order is chronological.
func (fw *FileWriter) prune() {
	matches, err := filepath.Glob(filepath.Join(fw.opts.Dir, fw.opts.Name+".*.gz"))
	if err != nil || len(matches) <= fw.opts.Keep {
		return
	}
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-fw.opts.Keep] {
		os.Remove(path)
	}
}

// Close flushes pending compression work and closes the active file.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	f := fw.file
	fw.file = nil
	fw.mu.Unlock()

	fw.pending.Wait()
	if f == nil {
		return nil
	}
	return f.Close()
}
