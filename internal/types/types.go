// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, the client and validation can all import types
// without depending on each other.
package types

import (
	"math"
	"strings"
)

// Student represents a student record as it is stored.
//
// Phone is optional. An absent phone is stored as NULL and rendered as "".
type Student struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Mark is a single score row owned by a student.
type Mark struct {
	ID        int64   `json:"id"`
	StudentID int64   `json:"student_id"`
	Mark      float64 `json:"mark"`
}

// StudentWithMarks is one row of the paginated list: the student plus every
// mark row it owns, ordered by mark id. Marks is never nil so it encodes to
// [] rather than null.
type StudentWithMarks struct {
	Student
	Marks []Mark `json:"marks"`
}

// StudentWithMark is the single-student view: the student plus the value of
// its most recent mark (highest mark id), or nil when it has none.
type StudentWithMark struct {
	Student
	Mark *float64 `json:"mark"`
}

// StudentInput is the write payload for create and update.
//
// The validate tags are checked by the validation package, which registers
// the custom tags (basic_email, phone10) and a custom type func that lets
// min/max see through MarkValue.
type StudentInput struct {
	Name  string    `json:"name"  validate:"required"`
	Email string    `json:"email" validate:"required,basic_email"`
	Phone string    `json:"phone" validate:"omitempty,phone10"`
	Mark  MarkValue `json:"mark"  validate:"omitempty,min=0,max=100"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in *StudentInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
}

// PageRequest is a 1-based page window over the students list.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip for this page. It saturates at
// math.MaxInt instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}
