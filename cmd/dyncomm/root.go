package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/config"
)

// flagKeys maps persistent flags to configuration keys
var flagKeys = map[string]string{
	"input-dir":       "input.dir",
	"label-key":       "input.label_key",
	"weight-key":      "input.weight_key",
	"binary":          "input.binary",
	"producer":        "producer.name",
	"seed":            "producer.seed",
	"assignments-dir": "producer.assignments_dir",
	"k":               "k",
	"workers":         "workers",
	"output-dir":      "output.dir",
	"label-width":     "output.label_width",
	"write-graphs":    "output.graphs",
	"s3-bucket":       "output.s3.bucket",
	"s3-prefix":       "output.s3.prefix",
	"s3-region":       "output.s3.region",
	"s3-endpoint":     "output.s3.endpoint",
	"store-driver":    "store.driver",
	"store-dsn":       "store.dsn",
	"metrics-addr":    "metrics.addr",
	"events-addr":     "events.addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"progress":        "progress",
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := config.New()
	var cfgFile string
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "dyncomm",
		Short: "Track communities across time-sliced correlation networks",
		Long: `dyncomm partitions each time window of a directory of GML correlation
networks, scores the partition by modularity and aligns community ids
with the previous window so membership changes can be followed.

Settings come from --config, DYNCOMM_* environment variables and flags,
in rising precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			a.init(cfg)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "YAML configuration file")
	f.String("input-dir", "", "directory of per-window .gml files (default gml)")
	f.String("label-key", "", "node attribute holding the stock label (default label)")
	f.String("weight-key", "", "edge attribute holding the weight (default weight)")
	f.Bool("binary", false, "ignore edge weights")
	f.String("producer", "", "partition producer (default kmeans)")
	f.Int64("seed", 0, "random seed for the producers (default 42)")
	f.String("assignments-dir", "", "directory of <window>.csv files for the file producer")
	f.Int("k", 0, "number of communities (default 4)")
	f.Int("workers", 0, "concurrent producer calls, 0 for one per CPU")
	f.String("output-dir", "", "local report directory (default output)")
	f.Int("label-width", 0, "shorten node labels in tables to this many characters (default 6)")
	f.Bool("write-graphs", false, "also write community_graph_<window>.gml with a community attribute per node")
	f.String("s3-bucket", "", "write reports to this bucket instead of output-dir")
	f.String("s3-prefix", "", "key prefix inside the bucket")
	f.String("s3-region", "", "bucket region")
	f.String("s3-endpoint", "", "S3-compatible endpoint URL")
	f.String("store-driver", "", "results database: postgres or sqlite")
	f.String("store-dsn", "", "results database connection string or file")
	f.String("metrics-addr", "", "serve Prometheus metrics on host:port")
	f.String("events-addr", "", "publish slice events on a mangos PUB socket, e.g. tcp://127.0.0.1:40899")
	f.String("log-level", "", "debug, info, warn or error (default info)")
	f.String("log-format", "", "json or text (default json)")
	f.Bool("progress", false, "show a live progress view")
	bindFlags(v, root, flagKeys)

	root.AddCommand(
		newTrackCmd(a),
		newSweepCmd(a, v),
		newBaselineCmd(a, v),
		newRunsCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for name, key := range keys {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			flag = cmd.Flags().Lookup(name)
		}
		// Every name above is registered; a miss is a programming error
		if err := v.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("dyncomm %s\n", version)
		},
	}
}
