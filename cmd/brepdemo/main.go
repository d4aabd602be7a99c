// Command brepdemo runs the boolean engine on simple solids and writes
// the result as a compressed topology record.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/gogpu/brep"
	"github.com/gogpu/brep/topo"
)

func main() {
	var (
		op      = flag.String("op", "or", "boolean operation: or, and, sub")
		shape   = flag.String("shape", "boxes", "operand pair: boxes, boxsphere")
		output  = flag.String("output", "result.json", "output file")
		snapdir = flag.String("snapdir", "", "write face division snapshots to this directory")
		workers = flag.Int("workers", 1, "intersection workers")
		verbose = flag.Bool("v", false, "debug logging to stderr")
	)
	flag.Parse()

	if *verbose {
		brep.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	ar := topo.NewArena(0)
	a, b, err := buildOperands(ar, *shape)
	if err != nil {
		log.Fatalf("Failed to build operands: %v", err)
	}

	opts := []brep.Option{brep.WithParallelism(*workers)}
	if *snapdir != "" {
		opts = append(opts, brep.WithSnapshotDir(*snapdir))
	}

	var (
		w   *topo.Arena
		out topo.Solid
	)
	switch *op {
	case "or":
		w, out, err = brep.Or(ar, a, ar, b, opts...)
	case "and":
		w, out, err = brep.And(ar, a, ar, b, opts...)
	case "sub":
		w, out, err = brep.Sub(ar, a, ar, b, opts...)
	default:
		log.Fatalf("Unknown operation %q", *op)
	}
	if err != nil {
		log.Fatalf("Boolean %s failed: %v", *op, err)
	}

	rec, err := topo.CompressSolid(w, out)
	if err != nil {
		log.Fatalf("Failed to compress result: %v", err)
	}
	if err := writeRecord(*output, rec); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Result saved to %s (%d shells, %d faces, %d edges, %d vertices)\n",
		*output, len(rec.Shells), len(rec.Faces), len(rec.Edges), len(rec.Vertices))
}

func buildOperands(ar *topo.Arena, shape string) (topo.Solid, topo.Solid, error) {
	a, err := brep.Box(ar, v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1})
	if err != nil {
		return topo.Solid{}, topo.Solid{}, err
	}
	var b topo.Solid
	switch shape {
	case "boxes":
		b, err = brep.Box(ar,
			v3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
			v3.Vec{X: 1.5, Y: 1.5, Z: 1.5})
	case "boxsphere":
		b, err = brep.SphereSolid(ar, v3.Vec{X: 1, Y: 1, Z: 1}, 0.75)
	default:
		log.Fatalf("Unknown shape %q", shape)
	}
	return a, b, err
}

func writeRecord(path string, rec topo.SolidRecord) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
