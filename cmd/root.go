package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/assaykit/layoutdump/internal/engine"
	"github.com/assaykit/layoutdump/internal/idlist"
	"github.com/assaykit/layoutdump/internal/source"
	"github.com/assaykit/layoutdump/internal/sqldesign"
	"github.com/assaykit/layoutdump/internal/tsv"
)

const version = "1.2.0"

var (
	layoutPath   string
	gridPath     string
	outPath      string
	groupTypes   []string
	groupIDFiles []string
	wellIDFiles  []string
	groupsOnly   bool
	unionTypes   bool
	verbose      bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "layoutdump",
	Short: "Dump information from a plate layout file",
	Long: `layoutdump - Dump information from a plate layout file.

Writes a flat, tab-delimited report of the layout's group/block/well
hierarchy. When a grid file is given, well positions are joined in as
x and y columns. Groups can be selected by type, by group id lists or
by well id lists; these selection modes cannot be mixed.`,
	Example: `  layoutdump -o out.txt -c plate.grid -p plate.layout --group-type=main
  layoutdump -o out.txt -c plate.grid -p plate.layout --group-ids=ids.txt
  layoutdump -o out.txt -c plate.grid -p plate.layout --well-ids=ids.txt`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDump,
}

func init() {
	rootCmd.Flags().StringVarP(&layoutPath, "layout-file", "p", "", "layout file to dump")
	rootCmd.Flags().StringVarP(&gridPath, "grid-file", "c", "", "optional grid file; adds well x/y positions to the output")
	rootCmd.Flags().StringVarP(&outPath, "out-file", "o", "", "output file for the dump")
	rootCmd.Flags().StringArrayVar(&groupTypes, "group-type", nil, "group type to extract; repeatable, the intersection of all types is taken")
	rootCmd.Flags().StringArrayVarP(&groupIDFiles, "group-ids", "s", nil, "file of group ids to extract; repeatable")
	rootCmd.Flags().StringArrayVar(&wellIDFiles, "well-ids", nil, "file of well ids to extract; repeatable")
	rootCmd.Flags().BoolVar(&groupsOnly, "groups-only", false, "dump group level information only")
	rootCmd.Flags().BoolVar(&unionTypes, "or", false, "take the union of the requested types instead of the intersection")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runDump(cmd *cobra.Command, args []string) error {
	if layoutPath == "" {
		return &engine.ConfigError{Msg: "must provide a layout file, --layout-file option"}
	}
	if outPath == "" {
		return &engine.ConfigError{Msg: "must provide an output file, --out-file option"}
	}

	modes := 0
	for _, chosen := range []bool{len(groupTypes) > 0, len(groupIDFiles) > 0, len(wellIDFiles) > 0} {
		if chosen {
			modes++
		}
	}
	if modes > 1 {
		return &engine.ConfigError{Msg: "cannot mix use of --group-ids, --well-ids, and --group-type"}
	}
	if groupsOnly && len(wellIDFiles) > 0 {
		return &engine.ConfigError{Msg: "cannot use --groups-only with --well-ids"}
	}

	sel, err := buildSelection()
	if err != nil {
		return err
	}

	layout, err := openLayout(layoutPath)
	if err != nil {
		return err
	}
	defer func() { _ = layout.Close() }()

	var grid source.Source
	if gridPath != "" {
		grid, err = tsv.Open(gridPath)
		if err != nil {
			return err
		}
		defer func() { _ = grid.Close() }()
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	runErr := engine.Run(engine.Options{
		Layout:      layout,
		Grid:        grid,
		Out:         out,
		Selection:   sel,
		GroupsOnly:  groupsOnly,
		Version:     version,
		CommandLine: strings.Join(os.Args, " "),
		Log:         logger,
	})
	if closeErr := out.Close(); runErr == nil {
		runErr = closeErr
	}
	return runErr
}

// buildSelection turns the validated flags into the engine's single-mode
// selection, reading id list files as needed.
func buildSelection() (engine.Selection, error) {
	switch {
	case len(groupTypes) > 0:
		return engine.TypeSelection{Types: groupTypes, Union: unionTypes}, nil
	case len(groupIDFiles) > 0:
		ids, err := idlist.ReadFiles(groupIDFiles, engine.GroupIDColumn)
		if err != nil {
			return nil, err
		}
		logger.Info("read group id list files", zap.Int("ids", len(ids)))
		return engine.IDSelection{Level: engine.LevelGroup, IDs: ids}, nil
	case len(wellIDFiles) > 0:
		ids, err := idlist.ReadFiles(wellIDFiles, engine.WellIDColumn)
		if err != nil {
			return nil, err
		}
		logger.Info("read well id list files", zap.Int("ids", len(ids)))
		return engine.IDSelection{Level: engine.LevelWell, IDs: ids}, nil
	}
	return engine.SelectAll{}, nil
}

// openLayout picks the backend by extension: SQLite databases by .db or
// .sqlite, the tab-delimited format otherwise.
func openLayout(path string) (source.Source, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		return sqldesign.Open(path)
	default:
		return tsv.Open(path)
	}
}

// Execute runs the root command, reporting any fatal condition on stderr and
// exiting non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}
