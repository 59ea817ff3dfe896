package slicesx

func Map[I any, O any](ins []I, fn func(in I, idx int) O) []O {
	outs := make([]O, len(ins))
	for idx, in := range ins {
		outs[idx] = fn(in, idx)
	}
	return outs
}

// MapErr is like Map but short-circuits on the first error, returning
// nil and that error.
func MapErr[I any, O any](ins []I, fn func(in I, idx int) (O, error)) ([]O, error) {
	outs := make([]O, len(ins))
	for idx, in := range ins {
		out, err := fn(in, idx)
		if err != nil {
			return nil, err
		}
		outs[idx] = out
	}
	return outs, nil
}

func Filter[E any](in []E, fn func(e E) bool) []E {
	out := make([]E, 0, len(in))
	for _, e := range in {
		if fn(e) {
			out = append(out, e)
		}
	}
	return out
}

func Every[I any](ins []I, fn func(in I, idx int) bool) bool {
	for idx, in := range ins {
		if !fn(in, idx) {
			return false
		}
	}
	return true
}

func ToSet[E comparable](in []E) map[E]struct{} {
	out := make(map[E]struct{}, len(in))
	for _, e := range in {
		out[e] = struct{}{}
	}
	return out
}
