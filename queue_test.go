package zopfli

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartPosQueueSingle(t *testing.T) {
	var q startPosQueue
	q.push(&posData{pos: 7, cost: 3, costdiff: -1})
	require.Equal(t, 1, q.size())
	require.Equal(t, posData{pos: 7, cost: 3, costdiff: -1}, *q.at(0))
}

func TestStartPosQueue(t *testing.T) {
	var q startPosQueue
	// want mirrors the queue: sorted by costdiff, and when it is full the
	// last entry makes room for the new one.
	var want []posData
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		p := posData{pos: i, costdiff: r.Float32()}
		q.push(&p)

		if len(want) == startPosQueueSize {
			want = want[:startPosQueueSize-1]
		}
		want = append(want, p)
		sort.SliceStable(want, func(a, b int) bool { return want[a].costdiff < want[b].costdiff })

		require.Equal(t, len(want), q.size(), "after %d pushes", i+1)
		for k := range want {
			require.Equal(t, want[k].pos, q.at(k).pos, "after %d pushes, entry %d", i+1, k)
		}
	}
}
