package exporter

import "strconv"

// formatDensity formats a probability density for CSV output. Six decimal
// places keep small conditional-vs-unconditional differences visible
// without drowning the file in float noise.
func formatDensity(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// formatInterval formats a bin left edge. Bin widths are short decimals,
// so two places are enough to identify every interval unambiguously.
func formatInterval(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
