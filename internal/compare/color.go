/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package compare

import (
	"strings"

	"github.com/fatih/color"
)

var (
	insertColor = color.New(color.FgGreen)
	deleteColor = color.New(color.FgRed)
	hunkColor   = color.New(color.FgCyan)
)

// Colorize highlights the output of Unified for a terminal. color.NoColor (set when
// stdout is not a terminal or NO_COLOR is present) turns it into a no-op.
func Colorize(unified string) string {
	if color.NoColor || unified == "" {
		return unified
	}
	var b strings.Builder
	for _, line := range strings.SplitAfter(unified, "\n") {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "@@"):
			b.WriteString(hunkColor.Sprint(body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(insertColor.Sprint(body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(deleteColor.Sprint(body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}
