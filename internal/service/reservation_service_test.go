package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsu-hwang/event-ticket-reservation/internal/model"
)

func TestDedupeSortedDropsZeroAndDuplicates(t *testing.T) {
	assert.Equal(t, []uint64{2, 5, 9}, dedupeSorted([]uint64{9, 2, 5, 2, 0, 9}))
	assert.Empty(t, dedupeSorted([]uint64{0, 0}))
	assert.Empty(t, dedupeSorted(nil))
}

func TestTotalPriceCentsSums(t *testing.T) {
	total, err := totalPriceCents([]*model.Ticket{
		{PriceCents: 12000},
		{PriceCents: 8000},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(20000), total)
}

func TestTotalPriceCentsGuardsOverflow(t *testing.T) {
	_, err := totalPriceCents([]*model.Ticket{
		{PriceCents: math.MaxUint32},
		{PriceCents: 1},
	})
	require.ErrorIs(t, err, ErrTotalOverflow)
}
