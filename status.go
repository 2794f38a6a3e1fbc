package main

type Status interface {
	EdgeAddedToPlan(edge *Edge)
	EdgeRemovedFromPlan(edge *Edge)

	// PlanHasTotalEdges announces the plan's current command-edge count
	// directly, rather than incrementally, so a fresh total can be
	// re-broadcast whenever it changes out from under the running build
	// (after PrepareQueue, after restat cleaning drops edges, after a
	// dyndep file adds new ones).
	PlanHasTotalEdges(total int)

	BuildEdgeStarted(edge *Edge, start_time_millis int64)
	BuildEdgeFinished(edge *Edge, start_time_millis int64, end_time_millis int64, success bool, output string)

	// BuildLoadDyndeps announces that a dyndep file is about to be loaded
	// and folded into the plan for node, mid-build (§4.2, §6).
	BuildLoadDyndeps(node *Node)

	BuildStarted()
	BuildFinished()

	/// Set the Explanations instance to use to report explanations,
	/// argument can be nullptr if no explanations need to be printed
	/// (which is the default).
	SetExplanations(explanations *Explanations)

	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	ReleaseStatus()

	/// creates the actual implementation

}
