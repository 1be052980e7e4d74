package rigidity

import (
	"fmt"
	"strings"
)

// FormatTable renders statistics as an aligned text table with one row per
// bone: name, median, stdev and CV in percent. Diagnostic output only.
func FormatTable(s *Statistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %10s %10s %8s\n", "bone", "median", "stdev", "cv%")
	for _, bone := range s.Bones() {
		fmt.Fprintf(&b, "%-18s %10.4f %10.4f %8.2f\n", bone.Name, bone.Median, bone.Stdev, bone.CV()*100)
	}
	return b.String()
}

// FormatComparison renders before/after statistics side by side. Bones
// present only in before are shown with empty after columns.
func FormatComparison(before, after *Statistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %10s %10s %8s | %10s %10s %8s\n",
		"bone", "median", "stdev", "cv%", "median'", "stdev'", "cv%'")
	for _, bone := range before.Bones() {
		fmt.Fprintf(&b, "%-18s %10.4f %10.4f %8.2f |", bone.Name, bone.Median, bone.Stdev, bone.CV()*100)
		if a, ok := after.Get(bone.Name); ok {
			fmt.Fprintf(&b, " %10.4f %10.4f %8.2f\n", a.Median, a.Stdev, a.CV()*100)
		} else {
			fmt.Fprintf(&b, " %10s %10s %8s\n", "-", "-", "-")
		}
	}
	return b.String()
}
