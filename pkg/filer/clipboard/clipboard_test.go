package clipboard

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	var m Memory

	ref, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, ref)

	require.NoError(t, m.Write(ctx, "/tmp/a.txt\n/tmp/b.txt"))
	ref, _ = m.Read(ctx)
	assert.Equal(t, "/tmp/a.txt", ref, "only one item is kept")

	require.NoError(t, m.Clear(ctx))
	ref, _ = m.Read(ctx)
	assert.Empty(t, ref)
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "clipboard")
	f := NewFile(path)

	ref, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, ref, "missing state file reads as empty")

	require.NoError(t, f.Write(ctx, "  /data/report.pdf  "))
	ref, err = NewFile(path).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/data/report.pdf", ref)
	assert.NoFileExists(t, path+".tmp")

	require.NoError(t, f.Clear(ctx))
	require.NoError(t, f.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"", KindFile, KindMemory, KindSystem, "MEMORY"} {
		s, err := New(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, s)
	}

	_, err := New("carrier-pigeon")
	assert.Error(t, err)
}

func fakeSystem(goos string, available map[string]bool) (*System, *[]string) {
	var written []string
	s := &System{
		goos: goos,
		lookPath: func(name string) (string, error) {
			if available[name] {
				return name, nil
			}
			return "", errors.New("not found")
		},
		output: func(_ context.Context, name string, _ ...string) ([]byte, error) {
			if name == "wl-paste" {
				return nil, errors.New("no wayland display")
			}
			return []byte("file:///home/me/photo.jpg\n"), nil
		},
		input: func(_ context.Context, stdin, name string, _ ...string) error {
			written = append(written, name+":"+stdin)
			return nil
		},
	}
	return s, &written
}

func TestSystem_ReadFallsThroughTools(t *testing.T) {
	s, _ := fakeSystem("linux", map[string]bool{"wl-paste": true, "xclip": true})

	ref, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/home/me/photo.jpg", ref)
}

func TestSystem_Write(t *testing.T) {
	s, written := fakeSystem("darwin", map[string]bool{"pbcopy": true})

	require.NoError(t, s.Write(context.Background(), "/Users/me/a.txt"))
	assert.Equal(t, []string{"pbcopy:/Users/me/a.txt"}, *written)
}

func TestSystem_NoTools(t *testing.T) {
	s, _ := fakeSystem("linux", nil)

	_, err := s.Read(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, s.Write(context.Background(), "/x"), ErrUnsupported)
}

func TestSystem_ReadEmpty(t *testing.T) {
	tests := []struct {
		name string
		out  []byte
		err  error
	}{
		{"tool exits with nothing copied", nil, &exec.ExitError{Stderr: []byte("Nothing is copied\n")}},
		{"xclip without a selection", nil, &exec.ExitError{Stderr: []byte("Error: target STRING not available\n")}},
		{"blank output", []byte("\n"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := fakeSystem("linux", map[string]bool{"xclip": true})
			s.output = func(context.Context, string, ...string) ([]byte, error) {
				return tt.out, tt.err
			}

			ref, err := s.Read(context.Background())
			require.NoError(t, err)
			assert.Empty(t, ref)
		})
	}
}

func TestSystem_ReadDecodesFileURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"file:///home/me/My%20Photos/a%23b.jpg\n", "/home/me/My Photos/a#b.jpg"},
		{"file://localhost/tmp/x.txt", "/tmp/x.txt"},
		{"/plain/path with space.txt", "/plain/path with space.txt"},
	}
	for _, tt := range tests {
		s, _ := fakeSystem("darwin", map[string]bool{"pbpaste": true})
		s.output = func(context.Context, string, ...string) ([]byte, error) {
			return []byte(tt.in), nil
		}

		ref, err := s.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, ref)
	}
}
