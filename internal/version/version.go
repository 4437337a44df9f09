// Package version implements the document version numbering rules: an
// integer major part ("commit") plus at most one significant fractional
// digit ("save"). Version numbers travel as computed floats, so equality
// checks use a small tolerance instead of ==.
package version

import (
	"math"
	"sort"
	"strconv"
)

// Epsilon is the equality tolerance for version comparison. Versions may
// arrive as results of floating-point arithmetic rather than exact input.
const Epsilon = 0.001

// Format renders a version number for display: integer versions as
// "v{n}", sub-versions with exactly one decimal place.
func Format(v float64) string {
	if IsMajor(v) {
		return "v" + strconv.Itoa(Major(v))
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// IsActive reports whether a and b identify the same version, within
// tolerance.
func IsActive(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Major returns the integer major part of a version number.
func Major(v float64) int {
	return int(math.Floor(v + Epsilon))
}

// IsMajor reports whether v is an integer major version.
func IsMajor(v float64) bool {
	return math.Abs(v-math.Round(v)) < Epsilon
}

// NextMajor returns the major number a commit from v would create. A
// commit always produces the next integer major, regardless of which
// sub-version was active.
func NextMajor(v float64) int {
	return Major(v) + 1
}

// CanDelete reports whether a version may be offered for deletion. Major
// version 1 always exists and is undeletable.
func CanDelete(v float64) bool {
	return !IsActive(v, 1)
}

// Group is one major version together with its sub-versions.
type Group struct {
	Major    int
	Versions []float64 // descending
}

// GroupByMajor partitions versions by their major part. Sub-versions in
// each group are sorted descending. Major 1 is always present in the
// result even when no stored version belongs to it. Groups come back in
// descending major order.
func GroupByMajor(versions []float64) []Group {
	byMajor := map[int][]float64{1: nil}
	for _, v := range versions {
		m := Major(v)
		byMajor[m] = append(byMajor[m], v)
	}

	majors := make([]int, 0, len(byMajor))
	for m := range byMajor {
		majors = append(majors, m)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(majors)))

	groups := make([]Group, 0, len(majors))
	for _, m := range majors {
		vs := byMajor[m]
		sort.Sort(sort.Reverse(sort.Float64Slice(vs)))
		groups = append(groups, Group{Major: m, Versions: vs})
	}
	return groups
}
