package main

type Verbosity int8

const (
	QUIET Verbosity = iota
	NoStatusUpdate
	NORMAL
	VERBOSE
)

// BuildConfig holds every option that changes how a build runs without
// changing what is being built (§4.4, §6).
type BuildConfig struct {
	verbosity        Verbosity
	dry_run          bool
	parallelism      int
	failures_allowed int
	// max_load_average <= 0 means no limit.
	max_load_average       float64
	depfile_parser_options DepfileParserOptions

	// enable_bufferization captures each subprocess's stdout/stderr so it
	// can be replayed through Status once the command finishes, instead
	// of interleaving concurrent commands' output live.
	enable_bufferization bool
	// logfiles_enabled writes a per-rule log file under logs_dir for
	// every command that runs, and a failed_parts file enumerating any
	// failed edge labels when the build ends in failure (§4.3, §4.5).
	logfiles_enabled bool
	logs_dir         string
	// skip_check_timestamp bypasses the output-older-than-input mtime
	// check in dirty recomputation, treating an edge as clean purely on
	// the strength of its build log record.
	skip_check_timestamp bool
}

func NewBuildConfig() *BuildConfig {
	return &BuildConfig{verbosity: NORMAL, parallelism: 1, failures_allowed: 1, max_load_average: -1}
}

// RunningEdgeMap tracks the millisecond offset (from build start) each
// currently-running edge was started at.
type RunningEdgeMap map[*Edge]int64

// Builder drives the plan/command-runner/status loop described in §4.4:
// pull ready edges from the Plan, hand them to a CommandRunner, feed
// finished results back into the Plan, and keep BuildLog/DepsLog and the
// Status reporter in sync throughout.
type Builder struct {
	state_          *State
	config_         *BuildConfig
	plan_           *Plan
	command_runner_ CommandRunner
	status_         Status

	running_edges_ RunningEdgeMap

	start_time_millis_ int64

	lock_file_path_ string
	disk_interface_ DiskInterface

	explanations_ *Explanations

	scan_ *DependencyScan
}
