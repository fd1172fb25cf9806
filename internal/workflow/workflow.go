package workflow

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Execute runs the extraction workflow for a single uploaded invoice blob.
// It creates a temp directory for page images (cleaned up via defer), builds
// the state graph (init → extract → rescan? → finalize), executes it, and
// extracts the Result from the final state.
func Execute(ctx context.Context, rt *Runtime, storageKey string) (*Result, error) {
	tempDir, err := os.MkdirTemp("", "reckon-extract-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyStorageKey, storageKey)
	initialState = initialState.Set(KeyTempDir, tempDir)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("reckon-extract")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("init", InitNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("extract", ExtractNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("rescan", RescanNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	// init → extract (unconditional)
	if err := graph.AddEdge("init", "extract", nil); err != nil {
		return nil, err
	}

	// extract → rescan (when any page failed its first pass)
	if err := graph.AddEdge("extract", "rescan", needsRescan); err != nil {
		return nil, err
	}

	// extract → finalize (when every page parsed)
	if err := graph.AddEdge("extract", "finalize", state.Not(needsRescan)); err != nil {
		return nil, err
	}

	// rescan → finalize (unconditional)
	if err := graph.AddEdge("rescan", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("init"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractResult(s state.State) (*Result, error) {
	val, ok := s.Get(KeyResult)
	if !ok {
		return nil, fmt.Errorf("missing %s in final state", KeyResult)
	}

	result, ok := val.(Result)
	if !ok {
		return nil, fmt.Errorf("%s is not Result", KeyResult)
	}

	result.CompletedAt = time.Now()
	return &result, nil
}

func needsRescan(s state.State) bool {
	val, ok := s.Get(KeyExtraction)
	if !ok {
		return false
	}

	es, ok := val.(ExtractionState)
	if !ok {
		return false
	}

	return es.NeedsRescan()
}

func workerCount(pageCount int) int {
	return max(min(runtime.NumCPU(), pageCount), 1)
}
