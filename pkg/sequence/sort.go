package sequence

// LessFunc reports whether a orders before b.
type LessFunc[T any] func(a, b T) bool

// QuickSort sorts s in place. The pivot is the last element of each range
// and partitioning follows the Lomuto scheme, so already sorted input costs
// O(n²). Not stable.
func QuickSort[T any](s []T, less LessFunc[T]) {
	if len(s) < 2 {
		return
	}
	quickSort(s, 0, len(s)-1, less)
}

func quickSort[T any](s []T, lo, hi int, less LessFunc[T]) {
	for lo < hi {
		p := partition(s, lo, hi, less)
		// recurse into the smaller side to bound stack depth
		if p-lo < hi-p {
			quickSort(s, lo, p-1, less)
			lo = p + 1
		} else {
			quickSort(s, p+1, hi, less)
			hi = p - 1
		}
	}
}

func partition[T any](s []T, lo, hi int, less LessFunc[T]) int {
	pivot := s[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if less(s[j], pivot) {
			s[i], s[j] = s[j], s[i]
			i++
		}
	}
	s[i], s[hi] = s[hi], s[i]
	return i
}

// MergeSort sorts s in place using an O(n) scratch buffer. Stable.
func MergeSort[T any](s []T, less LessFunc[T]) {
	if len(s) < 2 {
		return
	}
	buf := make([]T, len(s))
	mergeSort(s, buf, less)
}

func mergeSort[T any](s, buf []T, less LessFunc[T]) {
	if len(s) < 2 {
		return
	}
	mid := len(s) / 2
	mergeSort(s[:mid], buf[:mid], less)
	mergeSort(s[mid:], buf[mid:], less)

	copy(buf, s)
	i, j, k := 0, mid, 0
	for i < mid && j < len(s) {
		// take from the right only when strictly smaller
		if less(buf[j], buf[i]) {
			s[k] = buf[j]
			j++
		} else {
			s[k] = buf[i]
			i++
		}
		k++
	}
	k += copy(s[k:], buf[i:mid])
	copy(s[k:], buf[j:len(s)])
}

// IsSorted reports whether s is ordered under less.
func IsSorted[T any](s []T, less LessFunc[T]) bool {
	for i := 1; i < len(s); i++ {
		if less(s[i], s[i-1]) {
			return false
		}
	}
	return true
}
