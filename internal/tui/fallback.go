package tui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RunLines drives the simulator without a terminal. Each input line is
// either a button number, a command, or free text.
func RunLines(r io.Reader, w io.Writer, sim *Simulator) error {
	printed := 0
	flush := func() {
		for _, l := range sim.Transcript()[printed:] {
			if l.Kind != LineUser {
				fmt.Fprintln(w, plainPrefix(l.Kind)+l.Text)
			}
		}
		printed = len(sim.Transcript())
		for i, b := range sim.Buttons() {
			fmt.Fprintf(w, "  %d) %s\n", i+1, b.Label)
		}
	}

	fmt.Fprintln(w, "Type /start to begin, a number to press a button, or text to comment.")
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && len(sim.Buttons()) > 0 {
			if err := sim.Press(n - 1); err != nil {
				fmt.Fprintln(w, "! "+err.Error())
				continue
			}
		} else {
			sim.Input(line)
		}
		flush()
	}
	return sc.Err()
}

func plainPrefix(k LineKind) string {
	switch k {
	case LineNotice:
		return "* "
	case LineError:
		return "! "
	default:
		return "> "
	}
}
