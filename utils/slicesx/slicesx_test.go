package slicesx

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	els := []int{1, 2, 3}
	assert.Equal(t, []string{"1", "2", "3"}, Map(els, func(in int, _ int) string {
		return strconv.Itoa(in)
	}))
}

func TestMapErr(t *testing.T) {
	els := []int{1, 2, 3}

	values, err := MapErr(els, func(in int, _ int) (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Nil(t, values)

	values, err = MapErr(els, func(in int, _ int) (int, error) {
		return in * 2, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, values)
}

func TestFilter(t *testing.T) {
	els := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{2, 4}, Filter(els, func(e int) bool { return e%2 == 0 }))
}

func TestEvery(t *testing.T) {
	isPositive := func(in int, _ int) bool { return in > 0 }
	assert.True(t, Every([]int{1, 2, 3}, isPositive))
	assert.False(t, Every([]int{1, -2, 3}, isPositive))
	assert.True(t, Every([]int{}, isPositive))
}

func TestToSet(t *testing.T) {
	set := ToSet([]string{"a", "b", "a"})
	assert.Len(t, set, 2)
	_, ok := set["a"]
	assert.True(t, ok)
}
