package iolog

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Characters used for the unique session-directory suffix.
const suffixChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// sessionSuffixLen is the width of the opaque leaf directory name.
const sessionSuffixLen = 6

// createSessionDir builds <root>/<host>/<user>/XXXXXX, creating the
// intermediate directories 0755 (existing ones are reused) and the
// leaf 0700 with a fresh random suffix. It returns the leaf path and
// an opened handle that anchors all later file operations, so a rename
// of the directory cannot redirect them. If the leaf was created but
// the handle open fails, the leaf is removed again.
func createSessionDir(root, host, user string) (string, *os.Root, error) {
	for _, dir := range []string{
		root,
		filepath.Join(root, host),
		filepath.Join(root, host, user),
	} {
		if err := os.Mkdir(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return "", nil, fmt.Errorf("%w: mkdir %s: %v", ErrStorageUnavailable, dir, err)
		}
	}

	dir, err := mkdtemp(filepath.Join(root, host, user))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	handle, err := os.OpenRoot(dir)
	if err != nil {
		os.Remove(dir)
		return "", nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, dir, err)
	}
	return dir, handle, nil
}

// mkdtemp creates a directory <parent>/XXXXXX with a random
// fixed-width suffix, retrying on collision.
func mkdtemp(parent string) (string, error) {
	buf := make([]byte, sessionSuffixLen)
	for try := 0; try < 10000; try++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("random suffix: %w", err)
		}
		for i := range buf {
			buf[i] = suffixChars[int(buf[i])%len(suffixChars)]
		}
		dir := filepath.Join(parent, string(buf))
		err := os.Mkdir(dir, 0o700)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return "", fmt.Errorf("mkdtemp %s: suffix space exhausted", parent)
}

// reopenSessionDir opens an existing session directory for restart.
func reopenSessionDir(dir string) (*os.Root, error) {
	handle, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrRestartUnusable, dir, err)
	}
	return handle, nil
}
