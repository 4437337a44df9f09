package version

import (
	"reflect"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "v1"},
		{3, "v3"},
		{1.1, "1.1"},
		{2.5, "2.5"},
		{2.9999999, "v3"}, // float noise collapses to the major
		{10, "v10"},
	}
	for _, tc := range tests {
		if got := Format(tc.in); got != tc.want {
			t.Errorf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsActive_Tolerance(t *testing.T) {
	if !IsActive(1.1, 1.1000001) {
		t.Error("IsActive(1.1, 1.1000001) = false, want true")
	}
	if IsActive(1.1, 1.2) {
		t.Error("IsActive(1.1, 1.2) = true, want false")
	}
	if !IsActive(2, 2) {
		t.Error("IsActive(2, 2) = false, want true")
	}
}

func TestMajorAndNextMajor(t *testing.T) {
	if got := Major(2.5); got != 2 {
		t.Errorf("Major(2.5) = %d, want 2", got)
	}
	if got := Major(2.9999999); got != 3 {
		t.Errorf("Major(2.9999999) = %d, want 3 (within tolerance of 3.0)", got)
	}
	// a commit from any sub-version produces the next integer major
	if got := NextMajor(2.5); got != 3 {
		t.Errorf("NextMajor(2.5) = %d, want 3", got)
	}
	if got := NextMajor(2); got != 3 {
		t.Errorf("NextMajor(2) = %d, want 3", got)
	}
}

func TestCanDelete_MajorOneNeverOffered(t *testing.T) {
	if CanDelete(1) {
		t.Error("CanDelete(1) = true, want false")
	}
	if CanDelete(1.0000004) {
		t.Error("CanDelete(1.0000004) = true, want false")
	}
	if !CanDelete(1.1) {
		t.Error("CanDelete(1.1) = false, want true")
	}
	if !CanDelete(2) {
		t.Error("CanDelete(2) = false, want true")
	}
}

func TestGroupByMajor(t *testing.T) {
	groups := GroupByMajor([]float64{2.1, 1.2, 2.3, 1.1, 3})

	want := []Group{
		{Major: 3, Versions: []float64{3}},
		{Major: 2, Versions: []float64{2.3, 2.1}},
		{Major: 1, Versions: []float64{1.2, 1.1}},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("GroupByMajor = %+v, want %+v", groups, want)
	}
}

func TestGroupByMajor_MajorOneAlwaysPresent(t *testing.T) {
	groups := GroupByMajor([]float64{2.1, 3.2})
	found := false
	for _, g := range groups {
		if g.Major == 1 {
			found = true
			if len(g.Versions) != 0 {
				t.Errorf("major 1 versions = %v, want empty", g.Versions)
			}
		}
	}
	if !found {
		t.Error("major 1 group missing")
	}

	groups = GroupByMajor(nil)
	if len(groups) != 1 || groups[0].Major != 1 {
		t.Errorf("GroupByMajor(nil) = %+v, want just major 1", groups)
	}
}
