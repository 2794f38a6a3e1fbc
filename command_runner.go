package main

// DryRunCommandRunner never spawns anything: it reports every started
// edge as immediately finished, for `-n`.
type DryRunCommandRunner struct {
	finished []*Edge
}

func NewDryRunCommandRunner() *DryRunCommandRunner {
	return &DryRunCommandRunner{}
}

// CanRunMore is unbounded for a dry run: nothing is ever actually
// spawned, so there's no resource to admission-control (§4.3).
func (this *DryRunCommandRunner) CanRunMore() int { return 1 << 30 }

func (this *DryRunCommandRunner) StartCommand(edge *Edge) error {
	this.finished = append(this.finished, edge)
	return nil
}

func (this *DryRunCommandRunner) WaitForCommand() (*CommandRunnerResult, bool) {
	if len(this.finished) == 0 {
		return nil, false
	}
	edge := this.finished[0]
	this.finished = this.finished[1:]
	return &CommandRunnerResult{Edge: edge, Status: ExitSuccess}, true
}

func (this *DryRunCommandRunner) GetActiveEdges() []*Edge { return nil }
func (this *DryRunCommandRunner) Abort()                  {}
