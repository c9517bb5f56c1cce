package filesystem

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFileSystem_ReadWrite(t *testing.T) {
	mfs := NewMockFileSystem()

	require.NoError(t, mfs.WriteFile("/workspace/build.yaml", []byte("a: 1"), 0644))
	data, err := mfs.ReadFile("/workspace/./build.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a: 1", string(data))

	err = mfs.WriteFile("/workspace/missing/dir/file", []byte("x"), 0644)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = mfs.ReadFile("/workspace/nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	mfs.WriteError = errors.New("read-only")
	assert.EqualError(t, mfs.WriteFile("/workspace/build.yaml", nil, 0644), "read-only")
}

func TestMockFileSystem_ReadDirSorted(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/workspace/src/web/index.html", nil)
	mfs.AddFile("/workspace/src/api/go.mod", []byte("module api"))
	mfs.AddDir("/workspace/src/.hidden")

	entries, err := mfs.ReadDir("/workspace/src")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		assert.True(t, e.IsDir())
	}
	assert.Equal(t, []string{".hidden", "api", "web"}, names)

	_, err = mfs.ReadDir("/workspace/src/api/go.mod")
	assert.Error(t, err)
}

func TestMockFileSystem_SetCurrentDir(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.SetCurrentDir("/repo/sub")

	wd, err := mfs.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "/repo/sub", wd)
	assert.True(t, mfs.Exists("/repo"))

	info, err := mfs.Stat("/repo/sub")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
