package clipboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned when no clipboard tool is available.
var ErrUnsupported = errors.New("no clipboard tool available")

// emptyMessages are what the paste tools print when they exit non-zero
// because nothing is on the clipboard.
var emptyMessages = []string{
	"nothing is copied",
	"no selection",
	"no suitable type of content",
	"target string not available",
}

type tool struct {
	name string
	args []string
}

// System uses the desktop clipboard through pbcopy/pbpaste, wl-clipboard,
// xclip or xsel.
type System struct {
	goos     string
	lookPath func(string) (string, error)
	output   func(ctx context.Context, name string, args ...string) ([]byte, error)
	input    func(ctx context.Context, stdin, name string, args ...string) error
}

// NewSystem returns a System store for the running platform.
func NewSystem() *System {
	return &System{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		input: func(ctx context.Context, stdin, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			cmd.Stdin = strings.NewReader(stdin)
			if out, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
			}
			return nil
		},
	}
}

func (s *System) readers() []tool {
	switch s.goos {
	case "darwin":
		return []tool{{name: "pbpaste"}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []tool{
			{name: "wl-paste", args: []string{"--no-newline"}},
			{name: "xclip", args: []string{"-selection", "clipboard", "-o"}},
			{name: "xsel", args: []string{"--clipboard", "--output"}},
		}
	default:
		return nil
	}
}

func (s *System) writers() []tool {
	switch s.goos {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []tool{
			{name: "wl-copy"},
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	case "windows":
		return []tool{{name: "clip.exe"}}
	default:
		return nil
	}
}

// Read returns the first line of the desktop clipboard as a path. It returns
// "" when the clipboard is empty.
func (s *System) Read(ctx context.Context) (string, error) {
	var lastErr error
	for _, t := range s.readers() {
		bin, err := s.lookPath(t.name)
		if err != nil {
			continue
		}
		out, err := s.output(ctx, bin, t.args...)
		if err != nil {
			if reportsEmpty(err) {
				return "", nil
			}
			lastErr = fmt.Errorf("%s: %w", t.name, err)
			continue
		}
		return toPath(firstLine(string(out))), nil
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("%w on %s", ErrUnsupported, s.goos)
}

func reportsEmpty(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	stderr := strings.ToLower(string(exitErr.Stderr))
	for _, msg := range emptyMessages {
		if strings.Contains(stderr, msg) {
			return true
		}
	}
	return false
}

// toPath turns a file:// URI from a file manager into a local path. Anything
// else is returned as is.
func toPath(ref string) string {
	if !strings.HasPrefix(ref, "file://") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Path == "" {
		return strings.TrimPrefix(ref, "file://")
	}
	return u.Path
}

// Write places path on the desktop clipboard.
func (s *System) Write(ctx context.Context, path string) error {
	var lastErr error
	for _, t := range s.writers() {
		bin, err := s.lookPath(t.name)
		if err != nil {
			continue
		}
		if err := s.input(ctx, firstLine(path), bin, t.args...); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("%w on %s", ErrUnsupported, s.goos)
}

// Clear places an empty string on the desktop clipboard.
func (s *System) Clear(ctx context.Context) error {
	return s.Write(ctx, "")
}
