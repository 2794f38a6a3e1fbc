package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/edwingeng/deque"
)

// Subprocess wraps a single running command. Output is captured unless
// the edge uses the console pool, in which case stdout/stderr are wired
// straight to this process's own so an interactive tool (e.g. a
// progress bar) behaves normally. When a per-rule log file path is
// given, everything the command prints is additionally teed into that
// file behind a "Command: ..." header (§4.3).
type Subprocess struct {
	cmd             *exec.Cmd
	buf             bytes.Buffer
	useConsole      bool
	bufferizeOutput bool
	logFile         *os.File
	startTime       int64
	endTime         int64
	exitStatus      ExitStatus
	done            bool
}

func newSubprocess(useConsole, bufferizeOutput bool) *Subprocess {
	return &Subprocess{useConsole: useConsole, bufferizeOutput: bufferizeOutput}
}

func (this *Subprocess) Start(set *SubprocessSet, command, logFilePath string) error {
	this.cmd = exec.Command("/bin/sh", "-c", command)
	if this.useConsole {
		this.cmd.Stdin = os.Stdin
		this.cmd.Stdout = os.Stdout
		this.cmd.Stderr = os.Stderr
	} else {
		var writers []io.Writer
		if this.bufferizeOutput {
			writers = append(writers, &this.buf)
		}
		if logFilePath != "" {
			f, err := os.Create(logFilePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(f, "Command: %s\n\n", command)
			this.logFile = f
			writers = append(writers, f)
		}
		if len(writers) == 0 {
			writers = append(writers, io.Discard)
		}
		out := io.MultiWriter(writers...)
		this.cmd.Stdout = out
		this.cmd.Stderr = out
	}

	this.startTime = time.Now().UnixMilli()
	if err := this.cmd.Start(); err != nil {
		if this.logFile != nil {
			this.logFile.Close()
		}
		return err
	}

	go func() {
		err := this.cmd.Wait()
		this.endTime = time.Now().UnixMilli()
		switch {
		case err == nil:
			this.exitStatus = ExitSuccess
		default:
			this.exitStatus = ExitFailure
		}
		if this.logFile != nil {
			this.logFile.Close()
		}
		this.done = true

		set.mu.Lock()
		set.finished.PushBack(this)
		set.mu.Unlock()
		set.cond.Signal()
	}()
	return nil
}

func (this *Subprocess) Done() bool             { return this.done }
func (this *Subprocess) Finish() ExitStatus     { return this.exitStatus }
func (this *Subprocess) GetOutput() string      { return this.buf.String() }
func (this *Subprocess) StartTimeMillis() int64 { return this.startTime }
func (this *Subprocess) EndTimeMillis() int64   { return this.endTime }

// SubprocessSet is the concurrency-safe collection of in-flight
// subprocesses, mirroring the teacher's std::queue<Subprocess*>-based
// finished list with edwingeng/deque instead of a raw C++ queue.
type SubprocessSet struct {
	mu       sync.Mutex
	cond     *sync.Cond
	running  []*Subprocess
	finished deque.Deque
}

func NewSubprocessSet() *SubprocessSet {
	this := &SubprocessSet{finished: deque.NewDeque()}
	this.cond = sync.NewCond(&this.mu)
	return this
}

// Add starts a new subprocess. bufferizeOutput controls whether its
// stdout/stderr are captured for GetOutput; logFilePath, when non-empty,
// additionally tees the same stream into a per-rule log file (§4.3).
func (this *SubprocessSet) Add(command string, useConsole, bufferizeOutput bool, logFilePath string) (*Subprocess, error) {
	sp := newSubprocess(useConsole, bufferizeOutput)
	if err := sp.Start(this, command, logFilePath); err != nil {
		return nil, err
	}
	this.mu.Lock()
	this.running = append(this.running, sp)
	this.mu.Unlock()
	return sp, nil
}

// NextFinished blocks until a subprocess completes, returning nil once
// nothing is running or waiting to be collected.
func (this *SubprocessSet) NextFinished() *Subprocess {
	this.mu.Lock()
	defer this.mu.Unlock()
	for this.finished.Len() == 0 && len(this.running) > 0 {
		this.cond.Wait()
	}
	if this.finished.Len() == 0 {
		return nil
	}
	sp := this.finished.PopFront().(*Subprocess)
	for i, r := range this.running {
		if r == sp {
			this.running = append(this.running[:i], this.running[i+1:]...)
			break
		}
	}
	return sp
}

func (this *SubprocessSet) RunningCount() int {
	this.mu.Lock()
	defer this.mu.Unlock()
	return len(this.running)
}

// Clear kills every still-running subprocess, used on a build abort.
func (this *SubprocessSet) Clear() {
	this.mu.Lock()
	defer this.mu.Unlock()
	for _, r := range this.running {
		if r.cmd.Process != nil {
			r.cmd.Process.Kill()
		}
	}
}
