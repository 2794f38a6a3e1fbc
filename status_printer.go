package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// SlidingRateInfo tracks the rate of the last N edge-start events, used
// to estimate started-edges-per-second for the progress line.
type SlidingRateInfo struct {
	rate_        float64
	n_           int
	times_       []int64
	last_update_ int
}

func NewSlidingRateInfo(n int) *SlidingRateInfo {
	return &SlidingRateInfo{rate_: -1, n_: n, last_update_: -1}
}

func (this *SlidingRateInfo) rate() float64 { return this.rate_ }

func (this *SlidingRateInfo) UpdateRate(updateHint int, timeMillis int64) {
	if updateHint == this.last_update_ {
		return
	}
	this.last_update_ = updateHint

	if len(this.times_) == this.n_ {
		this.times_ = this.times_[1:]
	}
	this.times_ = append(this.times_, timeMillis)

	if this.times_[len(this.times_)-1] != this.times_[0] {
		elapsedSeconds := float64(this.times_[len(this.times_)-1]-this.times_[0]) / 1e3
		this.rate_ = float64(len(this.times_)) / elapsedSeconds
	}
}

// StatusPrinter renders build progress as a single overprinted status
// line (`[N/M] command`), coloring failures and warnings, grounded on
// the teacher's line_printer/status_printer split (§4.4, §6 Status).
type StatusPrinter struct {
	config_ *BuildConfig

	startedEdges_  int
	finishedEdges_ int
	totalEdges_    int

	runningEdges_ map[*Edge]int64

	timeMillis_   int64
	rate_         *SlidingRateInfo
	printer_      *LinePrinter
	explanations_ *Explanations

	errorColor *color.Color
	warnColor  *color.Color
}

func NewStatusPrinter(config *BuildConfig) *StatusPrinter {
	return &StatusPrinter{
		config_:       config,
		runningEdges_: map[*Edge]int64{},
		rate_:         NewSlidingRateInfo(15),
		printer_:      NewLinePrinter(),
		errorColor:    color.New(color.FgRed, color.Bold),
		warnColor:     color.New(color.FgYellow),
	}
}

func StatusFactory(config *BuildConfig) Status { return NewStatusPrinter(config) }

func (this *StatusPrinter) EdgeAddedToPlan(edge *Edge) {
	if !edge.is_phony() {
		this.totalEdges_++
	}
}

func (this *StatusPrinter) EdgeRemovedFromPlan(edge *Edge) {
	if !edge.is_phony() {
		this.totalEdges_--
	}
}

func (this *StatusPrinter) PlanHasTotalEdges(total int) {
	this.totalEdges_ = total
}

func (this *StatusPrinter) BuildEdgeStarted(edge *Edge, startTimeMillis int64) {
	this.startedEdges_++
	this.runningEdges_[edge] = startTimeMillis
	this.rate_.UpdateRate(this.startedEdges_, startTimeMillis)

	if this.config_.verbosity == QUIET {
		return
	}
	this.printer_.Print(this.formatProgress(edge), ELIDE)
}

func (this *StatusPrinter) BuildEdgeFinished(edge *Edge, startTimeMillis, endTimeMillis int64, success bool, output string) {
	this.finishedEdges_++
	delete(this.runningEdges_, edge)

	if !success {
		this.printer_.PrintOnNewLine(this.errorColor.Sprintf("FAILED: %s", edge.EvaluateCommand(true)))
	}
	if output != "" {
		this.printer_.PrintOnNewLine(output)
	}

	if this.config_.verbosity >= VERBOSE || (!success && this.config_.verbosity != QUIET) {
		this.printer_.Print(this.formatProgress(edge), ELIDE)
	}
}

func (this *StatusPrinter) BuildLoadDyndeps(node *Node) {
	if this.config_.verbosity == QUIET {
		return
	}
	this.printer_.PrintOnNewLine(fmt.Sprintf("loading dyndep file for %s", node.path()))
}

func (this *StatusPrinter) BuildStarted() {
	this.startedEdges_ = 0
	this.finishedEdges_ = 0
}

func (this *StatusPrinter) BuildFinished() {
	this.printer_.SetConsoleLocked(false)
	this.printer_.PrintOnNewLine("")
}

func (this *StatusPrinter) SetExplanations(explanations *Explanations) {
	this.explanations_ = explanations
}

func (this *StatusPrinter) Info(msg string, args ...interface{}) {
	this.printer_.PrintOnNewLine(fmt.Sprintf(msg, args...))
}

func (this *StatusPrinter) Warning(msg string, args ...interface{}) {
	this.printer_.PrintOnNewLine(this.warnColor.Sprintf("warning: %s", fmt.Sprintf(msg, args...)))
}

func (this *StatusPrinter) Error(msg string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, this.errorColor.Sprintf("ninja: error: %s", fmt.Sprintf(msg, args...)))
}

func (this *StatusPrinter) ReleaseStatus() {}

func (this *StatusPrinter) formatProgress(edge *Edge) string {
	rate := this.rate_.rate()
	if rate < 0 {
		return fmt.Sprintf("[%d/%d] %s", this.finishedEdges_, this.totalEdges_, edge.GetBinding("description"))
	}
	return fmt.Sprintf("[%d/%d @ %.1f/s] %s", this.finishedEdges_, this.totalEdges_, rate, edge.GetBinding("description"))
}
