package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"git.sr.ht/~sircmpwn/getopt"
)

// Options holds everything parsed from the command line before a build
// actually starts (§4.4 CLI entry point).
type Options struct {
	InputFile   string
	WorkingDir  string
	Targets     []string
	Explain     bool
	Tool        string
}

func guessParallelism() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// readFlags parses argv into options/config the way the teacher's own
// getopt-based front end does, returning an exit code once the process
// should stop, or -1 to keep going.
func readFlags(args []string, options *Options, config *BuildConfig) int {
	config.parallelism = guessParallelism()

	opts, optind, err := getopt.Getopts(args, "d:f:j:k:l:nt:vC:L:sh")
	if err != nil {
		log.Fatalln(err)
	}
	options.Targets = args[optind:]

	for _, o := range opts {
		switch o.Option {
		case 'f':
			options.InputFile = o.Value
		case 'j':
			v, err := strconv.Atoi(o.Value)
			if err != nil || v < 0 {
				log.Fatalln("invalid -j parameter")
			}
			if v == 0 {
				v = guessParallelism()
			}
			config.parallelism = v
		case 'k':
			v, err := strconv.Atoi(o.Value)
			if err != nil {
				log.Fatalln("invalid -k parameter")
			}
			if v <= 0 {
				v = 1 << 30
			}
			config.failures_allowed = v
		case 'l':
			v, err := strconv.ParseFloat(o.Value, 64)
			if err != nil {
				log.Fatalln("invalid -l parameter")
			}
			config.max_load_average = v
		case 'n':
			config.dry_run = true
		case 'v':
			config.verbosity = VERBOSE
		case 'd':
			switch o.Value {
			case "explain":
				options.Explain = true
			case "bufferize":
				config.enable_bufferization = true
			default:
				Warning("unknown debug setting '%s'", o.Value)
			}
		case 'C':
			options.WorkingDir = o.Value
		case 'L':
			config.logfiles_enabled = true
			config.logs_dir = o.Value
		case 's':
			config.skip_check_timestamp = true
		case 't':
			options.Tool = o.Value
		case 'h':
			printUsage()
			return 0
		}
	}
	return -1
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: ninja [options] [targets...]

options:
  -f FILE    specify input build file [default=build.ninja]
  -j N       run N jobs in parallel
  -k N       keep going until N jobs fail [default=1]
  -l N       do not start new jobs if the load average is greater than N
  -n         dry run (don't run commands but act like they succeeded)
  -v         show all command lines while building
  -d MODE    enable debugging (use '-d explain' or '-d bufferize')
  -C DIR     change to DIR before doing anything else
  -L DIR     write a per-rule log and failed_parts under DIR
  -s         skip the output-vs-input timestamp check
  -t TOOL    run a subtool
  -h         print this message`)
}

func terminateHandler() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	os.Exit(2)
}

func realMain() int {
	config := NewBuildConfig()
	options := &Options{InputFile: "build.ninja"}

	if code := readFlags(os.Args[1:], options, config); code >= 0 {
		return code
	}

	if options.WorkingDir != "" {
		if config.verbosity != NoStatusUpdate {
			fmt.Printf("ninja: Entering directory `%s'\n", options.WorkingDir)
		}
		if err := os.Chdir(options.WorkingDir); err != nil {
			log.Fatalf("chdir to '%s': %v", options.WorkingDir, err)
		}
	}

	status := StatusFactory(config)

	state := NewState()
	disk := NewRealDiskInterface()

	parser := NewManifestParser(state)
	if err := parser.ParseFile(disk, options.InputFile); err != nil {
		status.Error("%s", err)
		return 1
	}

	buildLog, err := NewSqliteBuildLog(".ninja_log.db")
	if err != nil {
		status.Error("loading build log: %s", err)
		return 1
	}
	defer buildLog.Close()

	depsLog, err := NewGormDepsLog(".ninja_deps.db", state)
	if err != nil {
		status.Error("loading deps log: %s", err)
		return 1
	}
	defer depsLog.Close()

	builder := NewBuilder(state, config, buildLog, depsLog, disk, status, GetTimeMillis(), options.Explain)

	if options.Tool != "" {
		return runTool(options.Tool, state, builder)
	}

	targets, err := resolveTargets(state, options.Targets)
	if err != nil {
		status.Error("%s", err)
		return 1
	}

	for _, t := range targets {
		if err := builder.AddTarget(t); err != nil {
			status.Error("%s", err)
			return 1
		}
	}

	if builder.AlreadyUpToDate() {
		status.Info("no work to do.")
		return 0
	}

	if err := builder.Build(targets); err != nil {
		status.Error("%s", err)
		return 1
	}
	return 0
}

// resolveTargets returns the nodes named on the command line, or the
// graph's default targets when none were given.
func resolveTargets(state *State, names []string) ([]*Node, error) {
	if len(names) == 0 {
		nodes, err := state.DefaultNodes()
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, fmt.Errorf("could not determine root nodes of build graph")
		}
		return nodes, nil
	}
	nodes := make([]*Node, 0, len(names))
	for _, name := range names {
		n := state.LookupNode(name)
		if n == nil {
			return nil, fmt.Errorf("unknown target '%s'", name)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// runTool dispatches `-t <name>` subcommands that inspect or manipulate
// the graph without necessarily running a build.
func runTool(name string, state *State, builder *Builder) int {
	switch name {
	case "targets":
		for _, n := range state.paths_ {
			fmt.Println(n.path())
		}
		return 0
	case "compdb":
		collector := NewCommandCollector()
		roots, err := state.RootNodes()
		if err != nil {
			Error("%s", err)
			return 1
		}
		for _, n := range roots {
			collector.CollectFrom(n)
		}
		if err := WriteCompdb(os.Stdout, ".", collector.Edges(), nil); err != nil {
			Error("%s", err)
			return 1
		}
		return 0
	case "browse":
		if err := RunBrowse(state, "localhost:8080"); err != nil {
			Error("%s", err)
			return 1
		}
		return 0
	case "missingdeps":
		scanner := NewMissingDependencyScanner(NewMissingDependencyPrinter(), builder.scan_.deps_log(), state, builder.disk_interface_)
		roots, err := state.RootNodes()
		if err != nil {
			Error("%s", err)
			return 1
		}
		for _, n := range roots {
			scanner.ProcessNode(n)
		}
		scanner.PrintStats()
		if scanner.HadMissingDeps() {
			return 1
		}
		return 0
	default:
		Error("unknown tool '%s'", name)
		return 1
	}
}

func main() {
	go terminateHandler()
	os.Exit(realMain())
}
