/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: coverage.go
Description: Bitmap analysis for showmap. Collapses raw hit counts into
power-of-two buckets so small jitter between runs does not change the coverage
signature, and counts how many edges were hit at all.
*/

package coverage

import (
	"encoding/binary"
)

// countClass maps a raw hit count to its bucket
var countClass [256]byte

func init() {
	for v := 0; v < 256; v++ {
		switch {
		case v <= 2:
			countClass[v] = byte(v)
		case v == 3:
			countClass[v] = 1 << 2
		case v <= 7:
			countClass[v] = 1 << 3
		case v <= 15:
			countClass[v] = 1 << 4
		case v <= 31:
			countClass[v] = 1 << 5
		case v <= 127:
			countClass[v] = 1 << 6
		default:
			countClass[v] = 1 << 7
		}
	}
}

// Bucket returns the bucket a raw hit count falls into
func Bucket(raw byte) byte {
	return countClass[raw]
}

// ClassifyCounts rewrites every byte of bitmap with its bucket, in place.
// Non-zero bytes always stay non-zero.
func ClassifyCounts(bitmap []byte) {
	for i, v := range bitmap {
		bitmap[i] = countClass[v]
	}
}

// CountBits returns the number of non-zero bytes in bitmap without modifying it.
// Whole zero words are skipped eight bytes at a time.
func CountBits(bitmap []byte) int {
	n := 0
	i := 0
	for ; i+8 <= len(bitmap); i += 8 {
		if binary.NativeEndian.Uint64(bitmap[i:]) == 0 {
			continue
		}
		for _, b := range bitmap[i : i+8] {
			if b != 0 {
				n++
			}
		}
	}
	for _, b := range bitmap[i:] {
		if b != 0 {
			n++
		}
	}
	return n
}

// Summary describes a classified bitmap
type Summary struct {
	Tuples  int          `json:"tuples"`
	Buckets map[byte]int `json:"buckets"`
}

// Summarize counts tuples per bucket. The bitmap should already be classified;
// raw values are reported under their own value.
func Summarize(bitmap []byte) Summary {
	s := Summary{Buckets: make(map[byte]int)}
	for _, v := range bitmap {
		if v == 0 {
			continue
		}
		s.Tuples++
		s.Buckets[v]++
	}
	return s
}
