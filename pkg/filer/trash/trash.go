// Package trash moves files to the desktop trash where one is available and
// deletes them permanently otherwise.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// commandTimeout bounds each external trash command.
const commandTimeout = 30 * time.Second

// Method names how a path was disposed of.
type Method string

// Disposal methods.
const (
	MethodFinder    Method = "finder"
	MethodGio       Method = "gio"
	MethodTrashPut  Method = "trash-put"
	MethodPermanent Method = "permanent"
)

// Bin disposes of paths. The zero value is not usable; use New.
type Bin struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// New returns a Bin for the running platform.
func New() *Bin {
	return &Bin{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Remove moves path to the trash, falling back to permanent deletion when no
// trash tool succeeds. It reports the method that removed the path.
func (b *Bin) Remove(ctx context.Context, path string) (Method, error) {
	if _, err := os.Lstat(path); err != nil {
		return "", fmt.Errorf("cannot trash %q: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	for _, c := range b.candidates(abs) {
		bin, err := b.lookPath(c.name)
		if err != nil {
			continue
		}
		if err := b.run(ctx, bin, c.args...); err != nil {
			continue
		}
		// Some tools exit zero without removing anything.
		if _, err := os.Lstat(abs); os.IsNotExist(err) {
			return c.method, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.RemoveAll(abs); err != nil {
		return "", fmt.Errorf("failed to delete %q: %w", abs, err)
	}
	return MethodPermanent, nil
}

type candidate struct {
	method Method
	name   string
	args   []string
}

func (b *Bin) candidates(path string) []candidate {
	switch b.goos {
	case "darwin":
		// Finder integration keeps "Put Back" working.
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		return []candidate{{method: MethodFinder, name: "osascript", args: []string{"-e", script}}}
	case "linux":
		return []candidate{
			{method: MethodGio, name: "gio", args: []string{"trash", path}},
			{method: MethodTrashPut, name: "trash-put", args: []string{path}},
		}
	default:
		return nil
	}
}

