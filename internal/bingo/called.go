package bingo

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var ErrNilCalledSet = errors.New("called set is nil")

// CalledSet holds the numbers called so far in a session. It only grows.
// The zero value is an empty set ready to use.
type CalledSet struct {
	order []int
	bits  uint32
}

func NewCalledSet(numbers ...int) (*CalledSet, error) {
	called := &CalledSet{}
	for _, n := range numbers {
		if err := ValidateNumber(n); err != nil {
			return nil, err
		}

		if !called.add(n) {
			return nil, fmt.Errorf("number %d called twice", n)
		}
	}

	return called, nil
}

func (that *CalledSet) Contains(number int) bool {
	if that == nil || number < MinNumber || number > MaxNumber {
		return false
	}

	return that.bits&(1<<(number-MinNumber)) != 0
}

func (that *CalledSet) Len() int {
	if that == nil {
		return 0
	}

	return len(that.order)
}

// Numbers returns a copy of the called numbers in call order.
func (that *CalledSet) Numbers() []int {
	if that.Len() == 0 {
		return []int{}
	}

	return slices.Clone(that.order)
}

// Last returns the most recently called number, or 0 if nothing was called.
func (that *CalledSet) Last() int {
	if that.Len() == 0 {
		return 0
	}

	return that.order[len(that.order)-1]
}

// add requires a non-nil set; readers above treat nil as empty.
func (that *CalledSet) add(number int) bool {
	if that.Contains(number) {
		return false
	}

	that.bits |= 1 << (number - MinNumber)
	that.order = append(that.order, number)

	return true
}

func (that CalledSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Numbers())
}

func (that *CalledSet) UnmarshalJSON(data []byte) error {
	var numbers []int
	if err := json.Unmarshal(data, &numbers); err != nil {
		return fmt.Errorf("failed to unmarshal called numbers: %w", err)
	}

	called, err := NewCalledSet(numbers...)
	if err != nil {
		return err
	}

	*that = *called

	return nil
}

func (that *CalledSet) Clone() *CalledSet {
	if that == nil {
		return &CalledSet{}
	}

	return &CalledSet{order: slices.Clone(that.order), bits: that.bits}
}
