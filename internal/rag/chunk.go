// Package rag implements the chunk-and-embed retrieval store: split
// text into overlapping windows, embed each chunk, and answer
// nearest-neighbor queries by brute-force inner product over
// unit-normalized vectors.
package rag

import "strings"

// ChunkOptions controls window sizing. Target and Overlap are both
// in characters. Zero values fall back to spec defaults (~1000/~100).
type ChunkOptions struct {
	Target  int
	Overlap int
}

// DefaultChunkOptions matches the spec's default window.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{Target: 1000, Overlap: 100}
}

// Chunk splits text into overlapping character windows. Each
// boundary snaps to the nearest newline within ±20% of the target
// size, if one exists in that range, so chunks tend to break at
// paragraph edges rather than mid-sentence.
func Chunk(text string, opts ChunkOptions) []string {
	if opts.Target <= 0 {
		opts = DefaultChunkOptions()
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Target {
		opts.Overlap = 0
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	if n <= opts.Target {
		return []string{text}
	}

	slack := opts.Target / 5 // ±20%
	var chunks []string
	start := 0
	for start < n {
		end := start + opts.Target
		if end >= n {
			end = n
		} else {
			end = snapToNewline(runes, end, slack)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		next := end - opts.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// snapToNewline looks for the newline nearest to target within
// [target-slack, target+slack], preferring the nearest. Falls back
// to target itself if none is found in range.
func snapToNewline(runes []rune, target, slack int) int {
	n := len(runes)
	lo := target - slack
	if lo < 0 {
		lo = 0
	}
	hi := target + slack
	if hi > n {
		hi = n
	}

	best := -1
	bestDist := slack + 1
	for i := lo; i < hi; i++ {
		if runes[i] == '\n' {
			dist := i - target
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				bestDist = dist
				best = i + 1 // snap past the newline itself
			}
		}
	}
	if best == -1 {
		return target
	}
	if best > n {
		return n
	}
	return best
}
