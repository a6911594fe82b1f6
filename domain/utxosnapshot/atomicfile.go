package utxosnapshot

import (
	"fmt"
	"os"
)

const stagingSuffix = ".incomplete"

// atomicFile stages writes under path + ".incomplete" and moves the result
// to path on Commit. The destination path is never created partially.
type atomicFile struct {
	*os.File
	path        string
	stagingPath string
}

// createAtomicFile fails if path exists, and opens the staging file
// otherwise. A stale staging file from an earlier failed dump is truncated.
func createAtomicFile(path string) (*atomicFile, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return nil, newError(ErrAlreadyExists, fmt.Sprintf("%s already exists. If you are sure this is "+
			"what you want, move it out of the way first", path), nil)
	}
	if !os.IsNotExist(err) {
		return nil, newError(ErrIO, fmt.Sprintf("Couldn't check whether %s exists: %s", path, err), err)
	}

	stagingPath := path + stagingSuffix
	file, err := os.OpenFile(stagingPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, newError(ErrIO, fmt.Sprintf("Couldn't open file %s for writing.", stagingPath), err)
	}
	return &atomicFile{File: file, path: path, stagingPath: stagingPath}, nil
}

// Commit syncs the staged file to disk and renames it to its destination.
// The staging file is removed if any step fails.
func (f *atomicFile) Commit() error {
	err := f.Sync()
	if err != nil {
		f.Abort()
		return newError(ErrIO, fmt.Sprintf("Failed syncing %s: %s", f.stagingPath, err), err)
	}
	err = f.Close()
	if err != nil {
		_ = os.Remove(f.stagingPath)
		return newError(ErrIO, fmt.Sprintf("Failed closing %s: %s", f.stagingPath, err), err)
	}
	err = os.Rename(f.stagingPath, f.path)
	if err != nil {
		_ = os.Remove(f.stagingPath)
		return newError(ErrIO, fmt.Sprintf("Failed renaming %s to %s: %s", f.stagingPath, f.path, err), err)
	}
	return nil
}

// Abort closes and removes the staging file.
func (f *atomicFile) Abort() {
	_ = f.Close()
	err := os.Remove(f.stagingPath)
	if err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed removing %s: %s", f.stagingPath, err)
	}
}
