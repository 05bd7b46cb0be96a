package sequence

import "math"

// NotFound is returned by every search when the target is absent.
const NotFound = -1

// CompareFunc returns a negative number when a orders before b, zero when
// they are equal and a positive number otherwise.
type CompareFunc[T any] func(a, b T) int

// Number is the constraint for InterpolationSearch, which does arithmetic on
// the values themselves.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// BinarySearch returns the index of target in sorted s.
func BinarySearch[T any](s []T, target T, cmp CompareFunc[T]) int {
	return binarySearch(s, 0, len(s)-1, target, cmp)
}

func binarySearch[T any](s []T, lo, hi int, target T, cmp CompareFunc[T]) int {
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch c := cmp(s[mid], target); {
		case c == 0:
			return mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return NotFound
}

// BinarySearchRecursive is BinarySearch written recursively.
func BinarySearchRecursive[T any](s []T, target T, cmp CompareFunc[T]) int {
	return binarySearchRec(s, 0, len(s)-1, target, cmp)
}

func binarySearchRec[T any](s []T, lo, hi int, target T, cmp CompareFunc[T]) int {
	if lo > hi {
		return NotFound
	}
	mid := lo + (hi-lo)/2
	c := cmp(s[mid], target)
	if c == 0 {
		return mid
	}
	if c < 0 {
		return binarySearchRec(s, mid+1, hi, target, cmp)
	}
	return binarySearchRec(s, lo, mid-1, target, cmp)
}

// LinearSearch returns the first index whose element equals target. The
// input need not be sorted.
func LinearSearch[T any](s []T, target T, eq func(a, b T) bool) int {
	for i := range s {
		if eq(s[i], target) {
			return i
		}
	}
	return NotFound
}

// JumpSearch probes sorted s in blocks of √n and scans the block that may
// hold target.
func JumpSearch[T any](s []T, target T, cmp CompareFunc[T]) int {
	n := len(s)
	if n == 0 {
		return NotFound
	}
	step := int(math.Sqrt(float64(n)))
	if step < 1 {
		step = 1
	}

	prev, next := 0, step
	for cmp(s[min(next, n)-1], target) < 0 {
		prev = next
		next += step
		if prev >= n {
			return NotFound
		}
	}
	for i := prev; i < min(next, n); i++ {
		c := cmp(s[i], target)
		if c == 0 {
			return i
		}
		if c > 0 {
			break
		}
	}
	return NotFound
}

// InterpolationSearch estimates the probe position from the values at the
// range ends. Works best on roughly uniform data and degrades to O(n) on
// skewed input.
func InterpolationSearch[T Number](s []T, target T) int {
	lo, hi := 0, len(s)-1
	for lo <= hi && target >= s[lo] && target <= s[hi] {
		if s[hi] == s[lo] {
			if s[lo] == target {
				return lo
			}
			return NotFound
		}
		frac := (float64(target) - float64(s[lo])) / (float64(s[hi]) - float64(s[lo]))
		pos := lo + int(frac*float64(hi-lo))
		switch {
		case s[pos] == target:
			return pos
		case s[pos] < target:
			lo = pos + 1
		default:
			hi = pos - 1
		}
	}
	return NotFound
}

// ExponentialSearch doubles a probe index until it passes target, then
// binary searches the last interval.
func ExponentialSearch[T any](s []T, target T, cmp CompareFunc[T]) int {
	n := len(s)
	if n == 0 {
		return NotFound
	}
	if cmp(s[0], target) == 0 {
		return 0
	}
	bound := 1
	for bound < n && cmp(s[bound], target) <= 0 {
		bound *= 2
	}
	return binarySearch(s, bound/2, min(bound, n-1), target, cmp)
}
