package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := &Registry{origins: map[uint64]*OriginChain{
		421614: {SourceChain: SourceChain{Name: "Arbitrum Sepolia", ChainID: 421614}},
		84532:  {SourceChain: SourceChain{Name: "Base Sepolia", ChainID: 84532}},
	}, order: []uint64{421614, 84532}}

	origin, err := r.Origin(421614)
	require.NoError(t, err)
	assert.Equal(t, "Arbitrum Sepolia", origin.Name)

	_, err = r.Origin(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no origin chain registered")

	origins := r.Origins()
	require.Len(t, origins, 2)
	assert.Equal(t, uint64(421614), origins[0].ChainID)
	assert.Equal(t, uint64(84532), origins[1].ChainID)
}
