package checker

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// banner renders the end-of-pass verdict, colors are dropped automatically
// when w is not a terminal
type banner struct {
	w io.Writer

	passed lipgloss.Style
	failed lipgloss.Style
	abort  lipgloss.Style
}

func newBanner(w io.Writer) *banner {
	r := lipgloss.NewRenderer(w)

	return &banner{
		w:      w,
		passed: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		failed: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		abort:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (b *banner) Passed() {
	fmt.Fprintf(b.w, "\n%s\n", b.passed.Render("TEST PASSED!"))
}

func (b *banner) Failed() {
	fmt.Fprintf(b.w, "\n%s\n", b.failed.Render("TEST FAILED!"))
}

func (b *banner) Abort() {
	fmt.Fprintf(b.w, "%s\n", b.abort.Render("ABORTING. Reference server check failed, therefore network considered unreliable."))
}

func (b *banner) Interrupted() {
	fmt.Fprintf(b.w, "\n%s\n", b.abort.Render("INTERRUPTED. Check was cancelled before it could finish."))
}
