// Corvid heap tool - exercises the runtime heap and inspects the result
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/corvid-lang/corvid/tuning"
	"github.com/corvid-lang/corvid/vm"
	"github.com/corvid-lang/corvid/vm/snapshot"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	configPath := flag.String("config", "", "Path to a corvid.toml tuning profile")
	stress := flag.Int("stress", 0, "Allocate N linked objects before reporting")
	cycles := flag.Int("cycles", 0, "Build N unreachable reference cycles")
	snapshotPath := flag.String("snapshot", "", "Write a CBOR heap snapshot to FILE")
	runGC := flag.Bool("gc", false, "Run a collection pass before reporting")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: corvid-heap [options]\n\n")
		fmt.Fprintf(os.Stderr, "Builds a synthetic heap and reports its memory usage.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  corvid-heap -stress 10000 -gc          # Allocate, collect, report\n")
		fmt.Fprintf(os.Stderr, "  corvid-heap -cycles 100 -snapshot h.cbor  # Capture cyclic garbage\n")
		fmt.Fprintf(os.Stderr, "  corvid-heap -config corvid.toml -v     # Apply a tuning profile\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(2, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	profile := tuning.DefaultProfile()
	if *configPath != "" {
		p, err := tuning.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
			os.Exit(1)
		}
		profile = p
	}

	rt := vm.NewRuntime()
	defer rt.Close()
	if err := profile.Apply(rt); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying profile: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("runtime %s\n", rt.InstanceID())
	}

	ctx, err := rt.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Free()

	if *stress > 0 {
		if err := buildChain(rt, ctx, *stress); err != nil {
			fmt.Fprintf(os.Stderr, "Error building chain: %v\n", err)
			os.Exit(1)
		}
	}
	for i := 0; i < *cycles; i++ {
		if err := buildCycle(rt); err != nil {
			fmt.Fprintf(os.Stderr, "Error building cycle: %v\n", err)
			os.Exit(1)
		}
	}

	if *runGC {
		stats := rt.RunGC()
		fmt.Printf("gc: %d live, %d freed in %s\n", stats.Live, stats.Freed, stats.Duration)
	}

	fmt.Println(rt.ComputeMemoryUsage())

	if *snapshotPath != "" {
		data, err := snapshot.Marshal(snapshot.Capture(rt))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*snapshotPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Printf("snapshot: %d bytes to %s\n", len(data), *snapshotPath)
		}
	}
}

// buildChain hangs a linked list of n objects off the context global, so
// the whole chain stays reachable.
func buildChain(rt *vm.Runtime, ctx *vm.Context, n int) error {
	nextAtom, err := rt.NewAtom("next")
	if err != nil {
		return err
	}
	defer rt.FreeAtom(nextAtom)
	headAtom, err := rt.NewAtom("chain")
	if err != nil {
		return err
	}
	defer rt.FreeAtom(headAtom)

	head := vm.Null
	for i := 0; i < n; i++ {
		node, err := rt.NewObject()
		if err != nil {
			rt.Free(head)
			return err
		}
		if err := rt.SetProperty(node.Borrow(), nextAtom, head); err != nil {
			rt.Free(node)
			return err
		}
		head = node
	}
	return rt.SetProperty(ctx.Global(), headAtom, head)
}

// buildCycle creates two objects referencing each other and drops both
// handles, leaving garbage only the collector can reclaim.
func buildCycle(rt *vm.Runtime) error {
	peerAtom, err := rt.NewAtom("peer")
	if err != nil {
		return err
	}
	defer rt.FreeAtom(peerAtom)

	a, err := rt.NewObject()
	if err != nil {
		return err
	}
	b, err := rt.NewObject()
	if err != nil {
		rt.Free(a)
		return err
	}
	if err := rt.SetProperty(a.Borrow(), peerAtom, rt.Dup(b.Borrow())); err != nil {
		rt.Free(a)
		rt.Free(b)
		return err
	}
	if err := rt.SetProperty(b.Borrow(), peerAtom, rt.Dup(a.Borrow())); err != nil {
		rt.Free(a)
		rt.Free(b)
		return err
	}
	rt.Free(a)
	rt.Free(b)
	return nil
}
