package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"teralink/internal/media"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve a single share link and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func resolveRun(cmd *cobra.Command, args []string) error {
	resolver, err := newResolver()
	if err != nil {
		return err
	}

	result, err := resolver.Resolve(cmd.Context(), args[0], cfg.Resolver.Quality)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON || !isTerminal(out) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, renderResult(result))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Faint(true)
	linkStyle  = lipgloss.NewStyle().Underline(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderResult formats a result for a human reading a terminal.
func renderResult(r *media.Result) string {
	size := "unknown"
	if r.TotalSize > 0 {
		size = humanize.Bytes(uint64(r.TotalSize))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("size: ") + size)

	for i, c := range r.Contents {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("[%d] ", i+1)) + c.Filename)
		b.WriteString("\n")
		b.WriteString(linkStyle.Render(c.URL))
	}

	return boxStyle.Render(b.String())
}
