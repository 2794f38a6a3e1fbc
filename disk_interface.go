package main

import (
	"errors"
	"os"
	"path/filepath"
)

// RealDiskInterface implements DiskInterface against the local filesystem.
// Unlike the teacher's version this carries no Windows stat cache: on POSIX
// a plain os.Stat per call is cheap enough, and the cache invalidation
// rules the teacher inherited from long-path Windows semantics don't apply
// here.
type RealDiskInterface struct{}

func NewRealDiskInterface() *RealDiskInterface { return &RealDiskInterface{} }

// Stat stats path, returning mtime 0 (not an error) when the file is
// simply missing.
func (this *RealDiskInterface) Stat(path string) (TimeStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return -1, err
	}
	return TimeStamp(info.ModTime().UnixNano()), nil
}

func (this *RealDiskInterface) WriteFile(path string, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}

// MakeDirs creates the parent directory of path, and any missing
// ancestors, mirroring mkdir -p on dirname(path).
func (this *RealDiskInterface) MakeDirs(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func (this *RealDiskInterface) ReadFile(path string) (string, StatusEnum, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", NotFound, nil
		}
		return "", OtherError, err
	}
	return string(buf), Okay, nil
}

// RemoveFile behaves like rm -f: removing a missing file is not an error.
func (this *RealDiskInterface) RemoveFile(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
