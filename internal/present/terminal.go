package present

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"jumbotron/internal/clock"
)

const clearScreen = "\x1b[H\x1b[2J"

var palette = map[string]color.Attribute{
	"black":  color.FgHiBlack,
	"orange": color.FgHiRed,
	"silver": color.FgWhite,
	"pink":   color.FgHiMagenta,
	"blue":   color.FgBlue,
	"gold":   color.FgYellow,
	"purple": color.FgMagenta,
	"yellow": color.FgHiYellow,
	"red":    color.FgRed,
	"green":  color.FgGreen,
	"white":  color.FgHiWhite,
	"cyan":   color.FgCyan,
}

// TerminalConfig configures Terminal.
type TerminalConfig struct {
	// Location is used for the local clock line and the NEXT column (default time.Local).
	Location      *time.Location
	ClearScreen   bool
	ShowLocalTime bool
	BarWidth      int
	NoColor       bool
}

// Terminal renders frames as a colored table.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	clk    clock.Clock
	cfg    TerminalConfig
	status func() string
}

// NewTerminal writes frames to out, usually color.Output. A nil out makes every
// Render fail with ErrTargetMissing.
func NewTerminal(out io.Writer, clk clock.Clock, cfg TerminalConfig) *Terminal {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = 30
	}
	return &Terminal{out: out, clk: clk, cfg: cfg}
}

// SetStatus installs a callback whose text is printed under the table.
func (t *Terminal) SetStatus(fn func() string) {
	t.mu.Lock()
	t.status = fn
	t.mu.Unlock()
}

func (t *Terminal) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.cfg.NoColor {
		c.DisableColor()
	}
	return c
}

func (t *Terminal) slotColor(name string) *color.Color {
	if a, ok := palette[strings.ToLower(name)]; ok {
		return t.paint(a, color.Bold)
	}
	return t.paint(color.Bold)
}

func (t *Terminal) Render(rows []Row, previousColor string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out == nil {
		return ErrTargetMissing
	}

	var buf bytes.Buffer
	if t.cfg.ClearScreen {
		buf.WriteString(clearScreen)
	}
	bold := t.paint(color.Bold)
	faint := t.paint(color.Faint)

	if t.cfg.ShowLocalTime {
		fmt.Fprintln(&buf, bold.Sprint(t.clk.Now().In(t.cfg.Location).Format("3:04 PM")))
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("#"), bold.Sprint("COLOR"), bold.Sprint("TIMER"), bold.Sprint("PROGRESS"), bold.Sprint("NEXT"))
	for _, r := range rows {
		c := t.slotColor(r.Color)
		tbl.AddRow(
			r.Rank,
			c.Sprint(strings.ToUpper(r.Color)),
			r.Timer,
			c.Sprint(Bar(r.Percent, t.cfg.BarWidth))+fmt.Sprintf(" %3.0f%%", r.Percent),
			r.Next.In(t.cfg.Location).Format("3:04 PM"),
		)
	}
	fmt.Fprintln(&buf, tbl)

	if previousColor != "" {
		fmt.Fprintln(&buf, faint.Sprint("previous: ")+t.slotColor(previousColor).Sprint(strings.ToUpper(previousColor)))
	}
	if t.status != nil {
		if s := t.status(); s != "" {
			fmt.Fprintln(&buf, faint.Sprint(s))
		}
	}

	if _, err := t.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("present: write frame: %w", err)
	}
	return nil
}
