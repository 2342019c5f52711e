package wordprovider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_CyclesThroughWords(t *testing.T) {
	p := NewStatic([]string{"a", "b"})

	got, err := p.FetchWords(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, got)
}

func TestStaticProvider_EmptyReturnsError(t *testing.T) {
	p := NewStatic(nil)
	_, err := p.FetchWords(context.Background(), 1)
	assert.Error(t, err)
}

func TestHTTPProvider_InvalidBaseURLReturnsError(t *testing.T) {
	p := New("://not-a-url")
	_, err := p.FetchWords(context.Background(), 1)
	assert.Error(t, err)
}
