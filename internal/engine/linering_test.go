// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRingKeepsLastLines(t *testing.T) {
	r := NewLineRing(3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(r, "line %d\n", i)
	}
	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, r.LastN(10))
	assert.Equal(t, []string{"line 5"}, r.LastN(1))
}

func TestLineRingJoinsPartialWrites(t *testing.T) {
	r := NewLineRing(4)
	_, _ = r.Write([]byte("frame=1 fps"))
	_, _ = r.Write([]byte("=25\rError opening"))
	_, _ = r.Write([]byte(" input\n"))
	assert.Equal(t, []string{"frame=1 fps=25", "Error opening input"}, r.LastN(4))

	_, _ = r.Write([]byte("trailing"))
	assert.Equal(t, []string{"Error opening input", "trailing"}, r.LastN(2))
}
