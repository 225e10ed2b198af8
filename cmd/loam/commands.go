package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chazu/loam/pkg/engine"
	"github.com/chazu/loam/pkg/geom"
	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/plan"
	"github.com/chazu/loam/pkg/snapshot"
	"github.com/chazu/loam/pkg/terrain"
	"github.com/chazu/loam/pkg/tessellate"
	"github.com/gocarina/gocsv"
)

func cmdRun(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := fs.String("out", "", "Write CSV snapshots to this directory")
	granularity := fs.Int("granularity", 0, "Lattice granularity when the script builds none (0 uses the config)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: run needs exactly one script", errUsage)
	}

	s, err := openSession(common)
	if err != nil {
		return err
	}
	defer s.Close()

	path := fs.Arg(0)
	mesh, err := replay(s, path, *granularity, w)
	if err != nil {
		return err
	}
	snap, err := s.tr.Snapshot()
	if err != nil {
		return err
	}
	st := snapshot.Compute(filepath.Base(path), snap.Values, mesh)
	printSummary(w, snap, mesh, st)

	return writeSnapshots(*out, snap, mesh, st, w)
}

func cmdCube(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("cube", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := fs.String("out", "", "Write CSV snapshots to this directory")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: cube needs exactly one pattern", errUsage)
	}
	pattern, err := strconv.ParseUint(fs.Arg(0), 0, 8)
	if err != nil {
		return fmt.Errorf("cube pattern %q: want 0..255 (decimal, 0b or 0x): %w", fs.Arg(0), err)
	}
	index := uint8(pattern)

	s, err := openSession(common)
	if err != nil {
		return err
	}
	defer s.Close()

	mesh, err := s.tr.CubeState(index)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Pattern:        0b%08b (%d)\n", index, index)
	fmt.Fprint(w, "Solid corners: ")
	for c := 0; c < 8; c++ {
		if index&(1<<c) != 0 {
			fmt.Fprintf(w, " %d%s", c, formatVec(terrain.CubeCorner(c)))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Case triangles: %d\n", terrain.CaseTriangles(index))
	fmt.Fprintf(w, "Mesh triangles: %d\n", mesh.TriangleCount())
	printTriangles(w, mesh, -1)

	snap, err := s.tr.Snapshot()
	if err != nil {
		return err
	}
	st := snapshot.Compute(fmt.Sprintf("cube-%d", index), snap.Values, mesh)
	return writeSnapshots(*out, snap, mesh, st, w)
}

func cmdDump(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	common := addCommonFlags(fs)
	step := fs.Float64("step", 0.5, "Sample spacing")
	scale := fs.Float64("scale", 2, "Field extent")
	layers := fs.Int("layers", 1, "Random layers (0 leaves the field empty)")
	granularity := fs.Int("granularity", 2, "Lattice granularity")
	limit := fs.Int("n", 12, "Print at most N triangles (negative prints all)")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := openSession(common)
	if err != nil {
		return err
	}
	defer s.Close()
	tr := s.tr

	factor := float32(terrain.EmptyValue)
	if *layers > 0 {
		factor = float32(*layers)
	}
	if err := tr.Generate(float32(*step), float32(*scale), terrain.DefaultMin, terrain.DefaultMax, factor, *layers > 0); err != nil {
		return err
	}
	n := tr.Size()
	values := make([]float32, n*n*n)
	if err := tr.Values(values); err != nil {
		return err
	}
	fmt.Fprintf(w, "Field: step %g, scale %g, %d³ samples, range [%g, %g]\n",
		tr.Step(), tr.Scale(), n, tr.Min(), tr.Max())
	for z := 0; z < n; z++ {
		fmt.Fprintf(w, "z=%d\n", z)
		for y := n - 1; y >= 0; y-- {
			for x := 0; x < n; x++ {
				fmt.Fprintf(w, " %6.2f", values[x+n*(y+n*z)])
			}
			fmt.Fprintln(w)
		}
	}

	if err := tr.Gridify(*granularity); err != nil {
		return err
	}
	if err := tr.Calculate(); err != nil {
		return err
	}
	g := tr.Granularity()
	points := make([]geom.Vec3, (g+1)*(g+1)*(g+1))
	if err := tr.LatticePoints(points); err != nil {
		return err
	}
	samples := make([]float32, len(points))
	if err := tr.SampledValues(samples); err != nil {
		return err
	}
	fmt.Fprintf(w, "Lattice: granularity %d, %d points, capacity %d\n", g, len(points), tr.Capacity())
	for i, p := range points {
		fmt.Fprintf(w, "  %4d %s = %g\n", i, formatVec(p), samples[i])
	}

	count, err := tr.Triangulate()
	if err != nil {
		return err
	}
	mesh, err := tr.GetMeshData()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Mesh: %d entries, %d triangles\n", count, mesh.TriangleCount())
	printTriangles(w, mesh, *limit)

	st := snapshot.FieldStats(values)
	fmt.Fprintf(w, "Stats: mean %.4g, stddev %.4g, median %.4g, solid %.1f%%\n",
		st.Mean, st.StdDev, st.Median, 100*st.SolidFraction)
	return nil
}

func cmdStats(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	common := addCommonFlags(fs)
	granularity := fs.Int("granularity", 0, "Lattice granularity when a script builds none (0 uses the config)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: stats needs at least one script", errUsage)
	}

	s, err := openSession(common)
	if err != nil {
		return err
	}
	defer s.Close()

	rows := make([]snapshot.Stats, 0, fs.NArg())
	for _, path := range fs.Args() {
		mesh, err := replay(s, path, *granularity, io.Discard)
		if err != nil {
			return err
		}
		snap, err := s.tr.Snapshot()
		if err != nil {
			return err
		}
		rows = append(rows, snapshot.Compute(filepath.Base(path), snap.Values, mesh))
	}
	return gocsv.Marshal(rows, w)
}

// replay evaluates the script at path and replays it onto the session
// terrain. Plan warnings are printed to w.
func replay(s *session, path string, granularity int, w io.Writer) (*kernel.Mesh, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(
		engine.WithTimeout(s.cfg.Engine.EvalTimeout),
		engine.WithLogger(s.log.Named("engine")),
	)
	res, err := eng.EvaluateAndValidate(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(res.Errors) > 0 {
		errs := make([]error, len(res.Errors))
		for i, e := range res.Errors {
			errs[i] = e
		}
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	for _, f := range res.Findings {
		if f.Severity == plan.SeverityWarning {
			fmt.Fprintf(w, "%s: %s\n", path, f.Error())
		}
	}

	if granularity <= 0 {
		granularity = s.cfg.Terrain.Granularity
	}
	mesh, err := tessellate.Run(res.Plan, s.tr, tessellate.Options{
		Granularity: granularity,
		Log:         s.log.Named("tessellate"),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mesh, nil
}

func writeSnapshots(dir string, snap *terrain.Snapshot, mesh *kernel.Mesh, st snapshot.Stats, w io.Writer) error {
	out, err := snapshot.NewWriter(dir)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := out.WriteTerrain(snap); err != nil {
		out.Close()
		return err
	}
	if err := out.WriteMesh(mesh); err != nil {
		out.Close()
		return err
	}
	if err := out.WriteStats(st); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Snapshots: %s\n", out.Dir())
	return nil
}

func printSummary(w io.Writer, snap *terrain.Snapshot, mesh *kernel.Mesh, st snapshot.Stats) {
	fmt.Fprintf(w, "Mesh:      %s\n", mesh.Name)
	fmt.Fprintf(w, "Triangles: %d\n", mesh.TriangleCount())
	if b, ok := mesh.Bounds(); ok {
		fmt.Fprintf(w, "Bounds:    %s .. %s\n", formatVec(b.Min), formatVec(b.Max))
	}
	fmt.Fprintf(w, "Area:      %.4g\n", st.Area)
	fmt.Fprintf(w, "Field:     %d³ samples, step %g, granularity %d\n", snap.Size, snap.Step, snap.Granularity)
	fmt.Fprintf(w, "Density:   min %.4g, max %.4g, mean %.4g, stddev %.4g, solid %.1f%%\n",
		st.Min, st.Max, st.Mean, st.StdDev, 100*st.SolidFraction)
}

// printTriangles lists up to limit triangles; a negative limit lists all.
func printTriangles(w io.Writer, m *kernel.Mesh, limit int) {
	n := m.TriangleCount()
	if limit >= 0 && n > limit {
		n = limit
	}
	for t := 0; t < n; t++ {
		fmt.Fprintf(w, "  tri %d:", t)
		for k := 0; k < 3; k++ {
			fmt.Fprintf(w, " %s", formatVec(m.Vertex(3*t+k)))
		}
		fmt.Fprintf(w, " n=%s\n", formatVec(m.Normal(3*t)))
	}
	if n < m.TriangleCount() {
		fmt.Fprintf(w, "  ... %d more\n", m.TriangleCount()-n)
	}
}

func formatVec(v geom.Vec3) string {
	return fmt.Sprintf("(%.3g,%.3g,%.3g)", v.X, v.Y, v.Z)
}
