package shell

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// errQuit ends the session; it is returned when input runs out.
var errQuit = errors.New("quit")

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// line reads one trimmed line. End of input becomes errQuit.
func (p *prompter) line(prompt string) (string, error) {
	if _, err := io.WriteString(p.out, prompt); err != nil {
		return "", err
	}
	s, err := p.in.ReadString('\n')
	if err != nil && (s == "" || err != io.EOF) {
		if err == io.EOF {
			_, _ = io.WriteString(p.out, "\n")
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func parseWhole(s string) (int, bool) {
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func parseDecimal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
