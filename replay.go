package zopfli

import "github.com/nuclio/errors"

// decodeDistance returns the distance that distanceCode stands for, given
// the last four distances.
func decodeDistance(distanceCode uint32, cache *[4]int) int {
	if distanceCode < numDistanceShortCodes {
		return cache[kDistanceCacheIndex[distanceCode]] + kDistanceCacheOffset[distanceCode]
	}
	return int(distanceCode) - numDistanceShortCodes + 1
}

func pushDistance(cache *[4]int, distance int) {
	cache[3] = cache[2]
	cache[2] = cache[1]
	cache[1] = cache[0]
	cache[0] = distance
}

// ResolveMatches converts commands to Matches with plain distances,
// appends them to dst, and returns dst. cache is the distance cache before
// the first command; the cache after the last command is returned.
func ResolveMatches(dst []Match, commands []Command, cache [4]int) ([]Match, [4]int, error) {
	for i, c := range commands {
		if c.CopyLen == 0 {
			dst = append(dst, Match{Unmatched: int(c.InsertLen)})
			continue
		}
		distance := decodeDistance(c.DistanceCode, &cache)
		if distance <= 0 {
			return dst, cache, errors.Errorf("Command %d has invalid distance code %d", i, c.DistanceCode)
		}
		if c.DistanceCode > 0 {
			pushDistance(&cache, distance)
		}
		dst = append(dst, Match{
			Unmatched: int(c.InsertLen),
			Length:    int(c.CopyLen),
			Distance:  distance,
		})
	}
	return dst, cache, nil
}

// Replay executes commands the way a decoder would. dst holds the bytes
// before the first command; literals are taken from src in order. The
// decoded bytes are appended to dst, and the number of literals used and
// the final distance cache are returned along with it.
func Replay(dst, src []byte, commands []Command, cache [4]int) ([]byte, int, [4]int, error) {
	matches, cache, err := ResolveMatches(nil, commands, cache)
	if err != nil {
		return dst, 0, cache, err
	}
	used := 0
	for i, m := range matches {
		if used+m.Unmatched > len(src) {
			return dst, used, cache, errors.Errorf("Command %d needs %d literals, only %d left", i, m.Unmatched, len(src)-used)
		}
		dst = append(dst, src[used:used+m.Unmatched]...)
		used += m.Unmatched
		if m.Distance > len(dst) {
			return dst, used, cache, errors.Errorf("Command %d copies from %d bytes back, only %d available", i, m.Distance, len(dst))
		}
		// The copy may overlap its own output.
		start := len(dst) - m.Distance
		for j := 0; j < m.Length; j++ {
			dst = append(dst, dst[start+j])
		}
	}
	return dst, used, cache, nil
}
