package filter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsForbidden(t *testing.T) {
	list := NewWordList("spam", "Scam", "free money", "  ")

	tests := []struct {
		text string
		want bool
	}{
		{text: "this is spam", want: true},
		{text: "SPAM!", want: true},
		{text: "a scam, clearly", want: true},
		{text: "get FREE   money now", want: true},
		{text: "spammer", want: false},
		{text: "free of money", want: false},
		{text: "", want: false},
		{text: "hello world", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, list.ContainsForbidden(tt.text))
		})
	}
	assert.Equal(t, 3, list.Len())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nfoo\n\nbar baz\n"), 0644))

	list, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())
	assert.True(t, list.ContainsForbidden("Foo"))
	assert.True(t, list.ContainsForbidden("bar baz"))
	assert.False(t, list.ContainsForbidden("# comment"))
}

func TestLoad_MissingFile(t *testing.T) {
	list, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.Zero(t, list.Len())
	assert.False(t, list.ContainsForbidden("anything"))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo\n"), 0644))

	list, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go list.Watch(ctx)

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("foo\nbar\n"), 0644))

	assert.Eventually(t, func() bool {
		return list.ContainsForbidden("bar")
	}, 2*time.Second, 20*time.Millisecond)
}
