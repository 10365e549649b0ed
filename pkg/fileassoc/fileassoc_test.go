package fileassoc

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFinder_Find(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"Kconfig":              "config FOO\n\tbool \"Foo\"\n",
		"Kconfig.x86":          "config X86_FOO\n\tbool \"Foo on x86\"\n",
		"drivers/Kconfig":      "config DRIVER_FOO\n\tbool \"Driver Foo\"\n",
		"drivers/net/foo.kconfig": "config NET_FOO\n\tbool \"Net Foo\"\n",
		"README.md":            "not a kconfig file",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}

	tests := []struct {
		name       string
		patterns   []string
		wantPaths  int
	}{
		{name: "default patterns", patterns: nil, wantPaths: 4},
		{name: "bare Kconfig only", patterns: []string{"Kconfig"}, wantPaths: 2},
		{name: "kconfig extension only", patterns: []string{"*.kconfig"}, wantPaths: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &DefaultFinder{FS: fs}
			got, err := f.Find(context.Background(), ".", tt.patterns)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantPaths)
			for _, fi := range got {
				assert.NotEmpty(t, fi.Content)
				assert.NotEmpty(t, fi.Path)
			}
		})
	}
}

func TestDefaultFinder_Find_ContextCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "Kconfig", []byte("config FOO\n\tbool \"Foo\"\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &DefaultFinder{FS: fs}
	_, err := f.Find(ctx, ".", nil)
	assert.Error(t, err)
}

func TestResolveSource(t *testing.T) {
	got := ResolveSource("/tree/drivers/Kconfig", "net/Kconfig")
	assert.Equal(t, "/tree/drivers/net/Kconfig", got)

	got = ResolveSource("/tree/drivers/Kconfig", "/abs/Kconfig")
	assert.Equal(t, "/abs/Kconfig", got)
}
