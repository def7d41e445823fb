package runner

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/pkoukk/tiktoken-go"
)

// progressPrinter renders live streaming progress on one console line. Token
// counts during streaming are estimated at the standard four characters per
// token; the line is overwritten in place with carriage returns.
type progressPrinter struct {
	out       io.Writer
	maxTokens int
	suffix    string
	width     int
	lastChars int
	styled    *color.Color
}

func newProgressPrinter(out io.Writer, maxTokens int, suffix string) *progressPrinter {
	width := 0
	if maxTokens > 0 {
		width = len(fmt.Sprintf("%d", maxTokens))
	}
	return &progressPrinter{
		out:       out,
		maxTokens: maxTokens,
		suffix:    suffix,
		width:     width,
		styled:    color.New(color.FgCyan),
	}
}

// OnTextDelta implements [ai.StreamObserver]; the printer only reacts to the
// cumulative progress callback.
func (p *progressPrinter) OnTextDelta(string) {}

// OnReasoningDelta implements [ai.StreamObserver].
func (p *progressPrinter) OnReasoningDelta(string) {}

// OnProgress implements [ai.StreamObserver].
func (p *progressPrinter) OnProgress(cumulativeChars int) {
	if p.width <= 0 || cumulativeChars == p.lastChars {
		return
	}
	p.lastChars = cumulativeChars
	estimated := fmt.Sprintf("%0*d", p.width, cumulativeChars/4)
	total := fmt.Sprintf("%0*d", p.width, p.maxTokens)
	p.styled.Fprintf(p.out, "\rReceiving output text, ≈ %s / %s %s", estimated, total, p.suffix)
}

// EstimateTokens returns a cl100k_base token count for text, zero when the
// encoding is unavailable. It is an estimate for console display only and
// never enters stored records.
func EstimateTokens(text string) int {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("token estimate unavailable", "error", err)
		return 0
	}
	return len(encoding.Encode(text, nil, nil))
}
