package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mocap.rigidity/internal/monitoring"
	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/testutil"
	"github.com/banshee-data/mocap.rigidity/internal/trajectory"
)

func init() {
	monitoring.SetLogger(nil)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeBodyCSV writes a generated body-skeleton capture in meters.
func writeBodyCSV(t *testing.T, dir string, frames int) (string, *trajectory.Set) {
	t.Helper()
	set := testutil.NewGenerator(skeleton.BodySkeleton()).Set(frames)
	path := filepath.Join(dir, "capture.csv")
	require.NoError(t, trajectory.SaveCSV(path, set))
	return path, set
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	in, set := writeBodyCSV(t, dir, 20)
	out := filepath.Join(dir, "out", "normalized.csv")
	dbPath := filepath.Join(dir, "runs.db")
	plots := filepath.Join(dir, "plots")
	html := filepath.Join(dir, "report.html")

	stdout, _, err := execute(t, "normalize", in, "-o", out,
		"--skeleton", "body", "--units", "m",
		"--db", dbPath, "--plots", plots, "--html", html)
	require.NoError(t, err)

	assert.Contains(t, stdout, "total height:")
	runID := regexp.MustCompile(`run: (\S+)`).FindStringSubmatch(stdout)
	require.Len(t, runID, 2)

	got, err := trajectory.LoadCSV(out, "m")
	require.NoError(t, err)
	assert.Equal(t, set.Frames(), got.Frames())
	assert.Equal(t, set.Names(), got.Names())

	entries, err := os.ReadDir(plots)
	require.NoError(t, err)
	assert.Len(t, entries, len(skeleton.BodySkeleton().Definitions))

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Skeleton rigidity report")

	stdout, _, err = execute(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, runID[1])
	assert.Contains(t, stdout, in)

	stdout, _, err = execute(t, "runs", "show", runID[1], "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "spine")
	assert.Contains(t, stdout, "MEDIAN AFTER")
}

func TestNormalize_RequiresOutput(t *testing.T) {
	in, _ := writeBodyCSV(t, t.TempDir(), 5)
	_, _, err := execute(t, "normalize", in, "--skeleton", "body", "--units", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}

func TestNormalize_MissingMarker(t *testing.T) {
	dir := t.TempDir()
	in, _ := writeBodyCSV(t, dir, 5)
	_, _, err := execute(t, "normalize", in, "-o", filepath.Join(dir, "out.csv"),
		"--skeleton", "full", "--units", "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, skeleton.ErrMissingMarker)
}

func TestNormalize_NoGoodFrameWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in, set := writeBodyCSV(t, dir, 40)

	// Undefined tracking error everywhere: no frame can qualify.
	var b strings.Builder
	b.WriteString("frame," + strings.Join(set.Names(), ",") + "\n")
	for f := 0; f < set.Frames(); f++ {
		fmt.Fprintf(&b, "%d%s\n", f, strings.Repeat(",nan", set.Len()))
	}
	errPath := filepath.Join(dir, "errors.csv")
	require.NoError(t, os.WriteFile(errPath, []byte(b.String()), 0644))

	out := filepath.Join(dir, "normalized.csv")
	_, _, err := execute(t, "normalize", in, "-o", out, "--errors", errPath,
		"--skeleton", "body", "--units", "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, rigidity.ErrNoGoodFrame)
	assert.NoFileExists(t, out)
}

func TestStats(t *testing.T) {
	in, _ := writeBodyCSV(t, t.TempDir(), 10)
	stdout, _, err := execute(t, "stats", in, "--skeleton", "body", "--units", "m")
	require.NoError(t, err)
	for _, name := range skeleton.BodySkeleton().Definitions.Names() {
		assert.Contains(t, stdout, name)
	}
}

func TestDimensions(t *testing.T) {
	in, _ := writeBodyCSV(t, t.TempDir(), 10)
	stdout, _, err := execute(t, "dimensions", in, "--skeleton", "body", "--units", "m")
	require.NoError(t, err)
	assert.Contains(t, stdout, "total wingspan:")
	assert.Contains(t, stdout, "mean foot length:")
}

func TestGoodFrame(t *testing.T) {
	dir := t.TempDir()
	in, set := writeBodyCSV(t, dir, 60)

	marker := set.Names()[0]
	var b strings.Builder
	b.WriteString("frame," + marker + "\n")
	for f := 0; f < set.Frames(); f++ {
		fmt.Fprintf(&b, "%d,0.1\n", f)
	}
	errPath := filepath.Join(dir, "errors.csv")
	require.NoError(t, os.WriteFile(errPath, []byte(b.String()), 0644))

	stdout, _, err := execute(t, "goodframe", in, "--units", "m", "--errors", errPath, "--markers", marker)
	require.NoError(t, err)
	assert.Regexp(t, `good frame: \d+`, stdout)
}

func TestGoodFrame_RequiresErrors(t *testing.T) {
	in, _ := writeBodyCSV(t, t.TempDir(), 5)
	_, _, err := execute(t, "goodframe", in, "--units", "m")
	require.Error(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	in, _ := writeBodyCSV(t, t.TempDir(), 5)
	_, _, err := execute(t, "stats", in, "--units", "furlongs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version", "--config", "/does/not/exist.json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}
