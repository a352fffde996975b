package model

import (
	"fmt"
	"math"
)

// QuestionKey identifies a question part within an assignment.
type QuestionKey struct {
	Num  int
	Part int
}

// Question is one gradable part of a numbered question.
type Question struct {
	Num   int     `json:"num"`
	Part  int     `json:"part"`
	OutOf float64 `json:"out_of"`
}

// Key returns the identity of the question. OutOf is not part of it.
func (q Question) Key() QuestionKey {
	return QuestionKey{Num: q.Num, Part: q.Part}
}

// Same reports whether q and other name the same question part.
func (q Question) Same(other Question) bool {
	return q.Key() == other.Key()
}

// Label formats the question as "num.part".
func (q Question) Label() string {
	return fmt.Sprintf("%d.%d", q.Num, q.Part)
}

func (q Question) validate() error {
	if q.Num < 1 || q.Part < 1 {
		return fmt.Errorf("%w: %s: number and part must be at least 1", ErrInvalidQuestion, q.Label())
	}
	if q.OutOf < 0 || math.IsNaN(q.OutOf) || math.IsInf(q.OutOf, 0) {
		return fmt.Errorf("%w: %s: out of %v", ErrInvalidQuestion, q.Label(), q.OutOf)
	}
	return nil
}
