package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

type LineType int8

const (
	FULL LineType = iota
	ELIDE
)

// LinePrinter overprints a single status line in place on a real
// terminal, or falls back to one line per call when stdout is piped
// (§4.4 build progress reporting via Status).
type LinePrinter struct {
	smart_terminal_  bool
	supports_color_  bool
	have_blank_line_ bool
	console_locked_  bool

	line_buffer_   string
	line_type_     LineType
	output_buffer_ string
}

func NewLinePrinter() *LinePrinter {
	this := &LinePrinter{have_blank_line_: true}
	if fi, err := os.Stdout.Stat(); err == nil {
		this.smart_terminal_ = fi.Mode()&os.ModeCharDevice != 0 && os.Getenv("TERM") != "dumb"
	}
	clicolorForce := os.Getenv("CLICOLOR_FORCE")
	this.supports_color_ = this.smart_terminal_ || (clicolorForce != "" && clicolorForce != "0")
	color.NoColor = !this.supports_color_
	return this
}

func (this *LinePrinter) is_smart_terminal() bool       { return this.smart_terminal_ }
func (this *LinePrinter) set_smart_terminal(smart bool) { this.smart_terminal_ = smart }
func (this *LinePrinter) supports_color() bool          { return this.supports_color_ }

// Print overprints the current line. With ELIDE, toPrint is trimmed to
// fit a fixed assumed width, keeping its head and tail.
func (this *LinePrinter) Print(toPrint string, lt LineType) {
	if this.console_locked_ {
		this.line_buffer_ = toPrint
		this.line_type_ = lt
		return
	}

	if this.smart_terminal_ {
		fmt.Fprint(os.Stdout, "\r")
		if lt == ELIDE {
			toPrint = elideMiddle(toPrint, 80)
			fmt.Fprintf(os.Stdout, "%s\x1b[K", toPrint)
		} else {
			fmt.Fprint(os.Stdout, toPrint)
		}
		this.have_blank_line_ = false
	} else {
		fmt.Fprintf(os.Stdout, "%s\n", toPrint)
	}
}

func elideMiddle(s string, width int) string {
	if width < 1 || len(s) <= width {
		return s
	}
	if width < 4 {
		return s[:width]
	}
	half := (width - 3) / 2
	return s[:half] + "..." + s[len(s)-(width-3-half):]
}

// PrintOnNewLine prints toPrint on its own line, never overwriting
// output already on screen.
func (this *LinePrinter) PrintOnNewLine(toPrint string) {
	if this.console_locked_ && this.line_buffer_ != "" {
		this.output_buffer_ += this.line_buffer_ + "\n"
		this.line_buffer_ = ""
	}
	if !this.have_blank_line_ {
		this.printOrBuffer("\n")
	}
	if toPrint != "" {
		this.printOrBuffer(toPrint)
	}
	this.have_blank_line_ = toPrint == "" || toPrint[len(toPrint)-1] == '\n'
}

// SetConsoleLocked buffers output sent to the printer until unlocked,
// used while a subprocess on the console pool owns the terminal.
func (this *LinePrinter) SetConsoleLocked(locked bool) {
	if locked == this.console_locked_ {
		return
	}
	if locked {
		this.PrintOnNewLine("")
	}
	this.console_locked_ = locked
	if !locked {
		this.PrintOnNewLine(this.output_buffer_)
		if this.line_buffer_ != "" {
			this.Print(this.line_buffer_, this.line_type_)
		}
		this.output_buffer_ = ""
		this.line_buffer_ = ""
	}
}

func (this *LinePrinter) printOrBuffer(data string) {
	if this.console_locked_ {
		this.output_buffer_ += data
	} else {
		fmt.Fprint(os.Stdout, data)
	}
}
