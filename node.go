package zopfli

import "math"

// A zopfliNode is the state of the shortest path search at one byte
// position of the block. A node with cost costInfinity has not been
// reached; it keeps length 1 and insertLength 0.
type zopfliNode struct {
	// length is the copy length of the command ending here.
	length uint32

	// lenCodeModifier is length + 9 - the length used for the copy code.
	lenCodeModifier uint8

	distance uint32

	// shortCode is 0 if distance is coded explicitly, otherwise the short
	// distance code + 1.
	shortCode uint8

	insertLength uint32

	// cost is the smallest cost found to reach this position.
	cost float32

	// shortcut is the position of the closest ancestor whose command
	// changed the distance cache, or 0.
	shortcut uint32

	// next is the length of the following command on the chosen path,
	// or math.MaxUint32 at the end of the path.
	next uint32
}

// zopfliNodeSize is the in-memory size of a zopfliNode, for the Allocator.
const zopfliNodeSize = 28

func newZopfliNodes(n int) []zopfliNode {
	nodes := make([]zopfliNode, n)
	initZopfliNodes(nodes)
	return nodes
}

func initZopfliNodes(nodes []zopfliNode) {
	for i := range nodes {
		nodes[i] = zopfliNode{length: 1, cost: costInfinity}
	}
}

func (n *zopfliNode) copyLength() int {
	return int(n.length)
}

func (n *zopfliNode) lengthCode() int {
	return int(n.length) + 9 - int(n.lenCodeModifier)
}

func (n *zopfliNode) copyDistance() int {
	return int(n.distance)
}

// distanceCode is the distance code the command ending at n uses: a short
// code, or the distance + 15.
func (n *zopfliNode) distanceCode() int {
	if n.shortCode == 0 {
		return int(n.distance) + numDistanceShortCodes - 1
	}
	return int(n.shortCode) - 1
}

func (n *zopfliNode) commandLength() int {
	return n.copyLength() + int(n.insertLength)
}

// reached reports whether a command ends at n.
func (n *zopfliNode) reached() bool {
	return n.insertLength != 0 || n.length != 1
}

// updateZopfliNode records a command from startPos to pos+length as the
// best way to reach pos+length.
func updateZopfliNode(nodes []zopfliNode, pos, startPos, length, lenCode, dist, shortCode int, cost float32) {
	next := &nodes[pos+length]
	next.length = uint32(length)
	next.lenCodeModifier = uint8(length + 9 - lenCode)
	next.distance = uint32(dist)
	next.shortCode = uint8(shortCode)
	next.insertLength = uint32(pos - startPos)
	next.cost = cost
}

// computeShortestPathFromNodes walks back from the last reached node,
// links the chosen path through the next fields, and returns the number of
// commands on it.
func computeShortestPathFromNodes(numBytes int, nodes []zopfliNode) int {
	index := numBytes
	numCommands := 0
	for !nodes[index].reached() && index > 0 {
		index--
	}
	nodes[index].next = math.MaxUint32
	for index != 0 {
		length := nodes[index].commandLength()
		index -= length
		nodes[index].next = uint32(length)
		numCommands++
	}
	return numCommands
}
