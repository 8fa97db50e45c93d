package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "/a/b", Normalize("/a/b"))
	require.Equal(t, "/a/b", Normalize("a/b"))
	require.Equal(t, "/a/b", Normalize("/a//b/"))
	require.Equal(t, "/b", Normalize("/a/../b"))
	require.Equal(t, "/", Normalize("/"))
	require.Equal(t, "/", Normalize(""))
	require.Equal(t, "/", Normalize("."))
	require.Equal(t, "/", Normalize("/.."))
}

func TestDirAndBase(t *testing.T) {
	require.Equal(t, "/a", Dir("/a/b.js"))
	require.Equal(t, "/", Dir("/a"))
	require.Equal(t, "/", Dir("/"))
	require.Equal(t, "b.js", Base("/a/b.js"))
}

func TestResolve(t *testing.T) {
	require.Equal(t, "/components/Counter", Resolve("/components", "./Counter"))
	require.Equal(t, "/Counter", Resolve("/components", "../Counter"))
	require.Equal(t, "/lib/utils", Resolve("/components", "/lib/utils"))
	require.Equal(t, "/components/a/b", Resolve("/components", "a/b"))
}

func TestExtHelpers(t *testing.T) {
	require.Equal(t, ".jsx", Ext("/App.jsx"))
	require.Equal(t, "", Ext("/App"))
	require.Equal(t, "/App", TrimExt("/App.jsx"))
	require.Equal(t, "/App", TrimExt("/App"))
}

func TestIsDescendant(t *testing.T) {
	require.True(t, IsDescendant("/a", "/a/b"))
	require.True(t, IsDescendant("/a", "/a"))
	require.True(t, IsDescendant("/", "/anything"))
	require.False(t, IsDescendant("/a", "/ab"))
	require.False(t, IsDescendant("/a/b", "/a"))
}
