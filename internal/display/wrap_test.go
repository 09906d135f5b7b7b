package display

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestWrapWidth(t *testing.T) {
	tests := map[string]struct {
		text  string
		width int
		exp   string
	}{
		"short line untouched": {
			text:  "Not enough resources",
			width: 80,
			exp:   "Not enough resources",
		},
		"breaks on spaces": {
			text:  "Crit Machine upgraded to level 2",
			width: 12,
			exp:   "Crit Machine\nupgraded to\nlevel 2",
		},
		"zero width": {
			text:  "Score Assembler",
			width: 0,
			exp:   "Score Assembler",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "wrapped", WrapWidth(tt.text, tt.width), tt.exp)
		})
	}
}

func TestWrap_DefaultWidth(t *testing.T) {
	for _, line := range strings.Split(Wrap(strings.Repeat("factory ", 40)), "\n") {
		if len(line) > DefaultWidth {
			t.Errorf("line longer than %d: %q", DefaultWidth, line)
		}
	}
}
