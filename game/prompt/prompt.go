// Package prompt asks a human at a terminal for purchase decisions.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/campus-monopoly/game/engine"
)

// Reader reads answers line by line
type Reader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewReader wraps an input and the writer questions are printed to
func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{scanner: bufio.NewScanner(in), out: out}
}

// AskYesNo repeats the question until the answer is y or n. End of input counts as no.
func (r *Reader) AskYesNo(question string) bool {
	for {
		fmt.Fprintf(r.out, "%s (y/n): ", question)
		if !r.scanner.Scan() {
			fmt.Fprintln(r.out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(r.scanner.Text())) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		fmt.Fprintln(r.out, "Please answer y or n.")
	}
}

// Decider adapts the reader to engine.Decider. The heuristic's advice is
// shown before the question.
type Decider struct {
	Reader *Reader
}

// DecidePurchase implements engine.Decider
func (d Decider) DecidePurchase(req engine.PurchaseRequest) bool {
	fmt.Fprintf(d.Reader.out, "%s landed on %s (%s) costing $%d. Cash: $%d\n",
		req.Player.Name, req.Property.Name, req.Property.Code, req.Property.Cost, req.Player.Cash)
	fmt.Fprintf(d.Reader.out, "Advisor says %s (%d%% confident): %s\n",
		req.Advice.Decision, req.Advice.Confidence, req.Advice.Reason)
	return d.Reader.AskYesNo(fmt.Sprintf("Buy %s?", req.Property.Name))
}
