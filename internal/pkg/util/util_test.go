package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type impl struct{}

func (impl) Do() {}

type doer interface{ Do() }

func TestIsNil(t *testing.T) {
	var p *impl
	var d doer = p
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(p))
	assert.True(t, IsNil(d))
	assert.True(t, IsNil(map[string]int(nil)))
	assert.False(t, IsNil(impl{}))
	assert.False(t, IsNil(&impl{}))
	assert.False(t, IsNil(3))
}

func TestRandomString(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Z]{6}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		s, err := RandomString(6)
		require.NoError(t, err)
		assert.Regexp(t, re, s)
		seen[s] = struct{}{}
	}
	// 36^6 的空間，200 次幾乎不會重複
	assert.Greater(t, len(seen), 190)

	s, err := RandomString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}
