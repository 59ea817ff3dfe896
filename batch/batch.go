package batch

// Range is a contiguous half-open index range [Start, End) into a
// dataset. End may exceed the dataset length on the trailing batch;
// consumers clip with Clip before slicing.
type Range struct {
	Start int
	End   int
}

// Clip bounds the range's end to total.
func (r Range) Clip(total int) Range {
	if r.End > total {
		r.End = total
	}
	return r
}

// Len is the number of indices covered after clipping to total.
func (r Range) Len(total int) int {
	c := r.Clip(total)
	return c.End - c.Start
}

// Iterator partitions [0, total) into contiguous batches of size size.
// All batches except possibly the last span exactly size indices; the
// last batch covers whatever remains, so no index is dropped when
// total is not a multiple of size. For total <= size exactly one batch
// covering the whole dataset is produced, and for total == 0 no batch
// is produced at all.
//
// Batch boundaries depend only on (total, size), so iteration is
// deterministic and reproducible.
type Iterator struct {
	total   int
	size    int
	i, j    int
	started bool
	done    bool
}

// New returns an iterator over [0, total) in batches of size. size
// must be positive.
func New(total, size int) *Iterator {
	if size <= 0 {
		panic("batch: size must be positive")
	}
	if total < 0 {
		total = 0
	}
	return &Iterator{total: total, size: size, i: 0, j: size, done: total == 0}
}

// Next advances to the next batch, returning false once all batches
// have been yielded.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		return true
	}
	if it.j >= it.total {
		// the previous batch was the trailing one
		it.done = true
		return false
	}
	it.i = it.j
	it.j = it.i + it.size
	return true
}

// Range returns the current batch's index range. The end is unclipped;
// callers slice with Range.Clip.
func (it *Iterator) Range() Range {
	return Range{Start: it.i, End: it.j}
}

// Ranges returns all batch ranges for (total, size), clipped to total.
func Ranges(total, size int) []Range {
	var out []Range
	for it := New(total, size); it.Next(); {
		out = append(out, it.Range().Clip(total))
	}
	return out
}
