package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/valyala/fasthttp"
)

// nodeView and edgeView are the JSON-serializable projections of the
// graph the `-t browse` server exposes; browse.js in a real ninja
// checkout renders these client-side, this build core just needs to
// serve them.
type nodeView struct {
	Path  string `json:"path"`
	Dirty bool   `json:"dirty"`
}

type edgeView struct {
	Rule    string     `json:"rule"`
	Inputs  []nodeView `json:"inputs"`
	Outputs []nodeView `json:"outputs"`
}

func toNodeView(n *Node) nodeView { return nodeView{Path: n.path(), Dirty: n.dirty()} }

func graphSnapshot(state *State) []edgeView {
	views := make([]edgeView, 0, len(state.edges_))
	for _, e := range state.edges_ {
		ev := edgeView{Rule: e.rule().name()}
		for _, in := range e.inputs_ {
			ev.Inputs = append(ev.Inputs, toNodeView(in))
		}
		for _, out := range e.outputs_ {
			ev.Outputs = append(ev.Outputs, toNodeView(out))
		}
		views = append(views, ev)
	}
	return views
}

const browseIndexHTML = `<!DOCTYPE html>
<html><head><title>ninja build graph</title></head>
<body><h1>build graph</h1><p>see <a href="/graph">/graph</a> for the JSON edge list.</p></body></html>`

// RunBrowse serves the current build graph as JSON over HTTP so an
// external viewer can render it, replacing the teacher's python-CGI
// prototype with a self-contained fasthttp server (§6 status/UI is an
// external collaborator; this tool is a convenience layered on top of
// the graph the execution core already builds).
func RunBrowse(state *State, addr string) error {
	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/graph":
			body, err := json.Marshal(graphSnapshot(state))
			if err != nil {
				ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBody(body)
		default:
			ctx.SetContentType("text/html")
			ctx.SetBodyString(browseIndexHTML)
		}
	}

	server := &fasthttp.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("ninja browse server listening on %s", addr)
	return server.ListenAndServe(addr)
}
