package parsons

import "strings"

// Editor operations work on copies so the caller's slice is left intact.

func clone(fragments []Fragment) []Fragment {
	out := make([]Fragment, len(fragments))
	copy(out, fragments)
	return out
}

func inRange(fragments []Fragment, i int) bool {
	return i >= 0 && i < len(fragments)
}

// Move relocates the fragment at from so it ends up at index to.
func Move(fragments []Fragment, from, to int) []Fragment {
	if !inRange(fragments, from) || !inRange(fragments, to) || from == to {
		return clone(fragments)
	}
	out := clone(fragments)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]Fragment{moved}, out[to:]...)...)
	return out
}

// Shift changes the indentation of fragment i by delta, never below zero.
func Shift(fragments []Fragment, i, delta int) []Fragment {
	out := clone(fragments)
	if !inRange(out, i) {
		return out
	}
	out[i].Indent = max(out[i].Indent+delta, 0)
	return out
}

// ToggleDistractor flips the distractor flag of fragment i.
func ToggleDistractor(fragments []Fragment, i int) []Fragment {
	out := clone(fragments)
	if inRange(out, i) {
		out[i].Distractor = !out[i].Distractor
	}
	return out
}

// Remove drops fragment i.
func Remove(fragments []Fragment, i int) []Fragment {
	if !inRange(fragments, i) {
		return clone(fragments)
	}
	out := make([]Fragment, 0, len(fragments)-1)
	out = append(out, fragments[:i]...)
	return append(out, fragments[i+1:]...)
}

// Insert places fragment at index i, appending when i is out of range.
func Insert(fragments []Fragment, i int, fragment Fragment) []Fragment {
	out := clone(fragments)
	if i < 0 || i >= len(out) {
		return append(out, fragment)
	}
	return append(out[:i], append([]Fragment{fragment}, out[i:]...)...)
}

// MergeWithNext joins fragment i and i+1 into a single multi-line fragment.
func MergeWithNext(fragments []Fragment, i int) []Fragment {
	if !inRange(fragments, i) || !inRange(fragments, i+1) {
		return clone(fragments)
	}
	out := clone(fragments)
	head, next := out[i], out[i+1]
	head.Code += "\n" + next.Code
	switch {
	case head.Comment == "":
		head.Comment = next.Comment
	case next.Comment != "":
		head.Comment += " " + next.Comment
	}
	head.Distractor = head.Distractor || next.Distractor
	out[i] = head
	return append(out[:i+1], out[i+2:]...)
}

// Split breaks fragment i before the given line. The comment stays with the
// first half; the tail inherits indentation and the distractor flag.
func Split(fragments []Fragment, i, line int) []Fragment {
	if !inRange(fragments, i) {
		return clone(fragments)
	}
	lines := strings.Split(fragments[i].Code, "\n")
	if line <= 0 || line >= len(lines) {
		return clone(fragments)
	}
	out := clone(fragments)
	head := out[i]
	tail := Fragment{
		Code:       strings.Join(lines[line:], "\n"),
		Distractor: head.Distractor,
		Indent:     head.Indent,
	}
	head.Code = strings.Join(lines[:line], "\n")
	out[i] = head
	return append(out[:i+1], append([]Fragment{tail}, out[i+1:]...)...)
}
