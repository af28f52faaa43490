package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/config"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/gml"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/graph"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/pubsub"
	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/report"
)

// writeWindows writes count windows of two 5-cliques joined by a weak
// bridge. Every window moves one more stock across the bridge.
func writeWindows(t *testing.T, dir string, count int) {
	t.Helper()
	for w := 0; w < count; w++ {
		b := graph.NewBuilder()
		for i := 0; i < 10; i++ {
			_, err := b.AddNode(fmt.Sprintf("60000%d.SH", i))
			require.NoError(t, err)
		}
		group := func(i int) int {
			if i < 5-w {
				return 0
			}
			return 1
		}
		for i := 0; i < 10; i++ {
			for j := i + 1; j < 10; j++ {
				if group(i) == group(j) {
					require.NoError(t, b.AddEdge(i, j, 0.8))
				}
			}
		}
		require.NoError(t, b.AddEdge(0, 9, 0.05))

		name := fmt.Sprintf("csi300_corr_net_pmfg_w60_2019%02d31.gml", w+1)
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, gml.Write(f, b.Build()))
		require.NoError(t, f.Close())
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func baseArgs(input, output string) []string {
	return []string{
		"--input-dir", input,
		"--output-dir", output,
		"--producer", "kmeans",
		"--k", "2",
		"--workers", "2",
		"--log-format", "text",
	}
}

func TestTrack_WritesReportsAndStoresRun(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeWindows(t, input, 3)
	dsn := filepath.Join(t.TempDir(), "runs.db")

	args := append([]string{"track"}, baseArgs(input, output)...)
	args = append(args, "--store-driver", "sqlite", "--store-dsn", dsn)
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "kmeans")

	for _, name := range []string{
		report.QValuesFile,
		report.ChangesFile,
		report.SummaryFile,
		report.ArchiveFile,
		report.AssignmentsFile("20190131_01"),
		report.AssignmentsFile("20190331_03"),
	} {
		assert.FileExists(t, filepath.Join(output, name))
	}

	qValues, err := os.ReadFile(filepath.Join(output, report.QValuesFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(qValues)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Time Window,Q Value", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "20190131_01,"))

	f, err := os.Open(filepath.Join(output, report.ArchiveFile))
	require.NoError(t, err)
	defer f.Close()
	run, err := report.ReadArchive(f)
	require.NoError(t, err)
	assert.Len(t, run.Slices, 3)
	assert.Equal(t, 2, run.K)

	stdout, _, err = execute(t, "runs", "--store-driver", "sqlite", "--store-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, stdout, run.ID)
	assert.Contains(t, stdout, "3/3")
}

func TestSweep_WritesTable(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeWindows(t, input, 2)

	args := append([]string{"sweep", "--kmin", "2", "--kmax", "3"}, baseArgs(input, output)...)
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Mean Q")

	data, err := os.ReadFile(filepath.Join(output, report.SweepFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "k,mean_modularity,valid_slices,total_slices", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2,"))
	assert.True(t, strings.HasPrefix(lines[2], "3,"))
}

func TestBaseline_WritesTable(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeWindows(t, input, 2)

	args := append([]string{"baseline", "--methods", "kmeans,lpa"}, baseArgs(input, output)...)
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "mean")

	data, err := os.ReadFile(filepath.Join(output, report.BaselineFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time_window,kmeans,lpa", lines[0])
}

func TestTrack_WriteGraphs(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeWindows(t, input, 2)

	args := append([]string{"track", "--write-graphs"}, baseArgs(input, output)...)
	_, _, err := execute(t, args...)
	require.NoError(t, err)

	for _, window := range []string{"20190131_01", "20190231_02"} {
		g, err := gml.ReadFile(filepath.Join(output, report.GraphFile(window)), gml.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 10, g.NodeCount())
	}
}

func TestTrack_EmptyInput(t *testing.T) {
	_, _, err := execute(t, append([]string{"track"}, baseArgs(t.TempDir(), t.TempDir())...)...)
	assert.ErrorIs(t, err, errNoWindows)
}

func TestInvalidConfiguration(t *testing.T) {
	_, _, err := execute(t, "track", "--k", "0", "--input-dir", t.TempDir())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "Config.K")
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	input, output := t.TempDir(), t.TempDir()
	writeWindows(t, input, 2)

	file := filepath.Join(t.TempDir(), "dyncomm.yaml")
	yaml := fmt.Sprintf("input:\n  dir: %q\noutput:\n  dir: %q\nk: 9\nproducer:\n  name: lpa\n", input, output)
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o644))

	_, _, err := execute(t, "track", "--config", file, "--k", "2", "--log-format", "text")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(output, report.ArchiveFile))
	require.NoError(t, err)
	defer f.Close()
	run, err := report.ReadArchive(f)
	require.NoError(t, err)
	assert.Equal(t, 2, run.K, "flag overrides the file")
	assert.Equal(t, "lpa", run.Producer)
}

func TestRuns_RequiresStore(t *testing.T) {
	_, _, err := execute(t, "runs")
	assert.ErrorIs(t, err, errNoStore)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dyncomm dev\n", stdout)
}

func TestWatch_PrintsPublishedSlices(t *testing.T) {
	pub, err := pubsub.ListenPublisher("inproc://dyncomm-watch-test", nil, nil)
	require.NoError(t, err)
	defer pub.Close()

	type result struct {
		stdout string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stdout, _, err := execute(t, "watch", "--events-addr", pub.Addr(), "--count", "2", "--log-format", "text")
		done <- result{stdout, err}
	}()

	q := 0.5
	events := []pubsub.SliceEvent{
		{RunID: "run-1", Window: "20190131_01", Modularity: &q, Communities: 2, Unchanged: 10},
		{RunID: "run-1", Window: "20190228_02", Degraded: true, Failure: "kmeans: empty cluster"},
	}
	// Keep publishing until the subscription lands and two events are read
	var got result
	deadline := time.After(10 * time.Second)
	for i := 0; ; i++ {
		select {
		case got = <-done:
		case <-deadline:
			t.Fatal("watch did not finish")
		case <-time.After(20 * time.Millisecond):
			require.NoError(t, pub.Send(events[i%2]))
			continue
		}
		break
	}

	require.NoError(t, got.err)
	lines := strings.Split(strings.TrimSpace(got.stdout), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t,
			line == "run-1 20190131_01 Q=0.5000 communities=2 changed=0 unchanged=10 unavailable=0" ||
				line == "run-1 20190228_02 degraded: kmeans: empty cluster",
			"unexpected line %q", line)
	}
}

func TestWatch_RequiresEventsAddr(t *testing.T) {
	_, _, err := execute(t, "watch")
	assert.ErrorIs(t, err, errNoEvents)
}
