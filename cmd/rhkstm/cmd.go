package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zrbyte/rhkstm"
	"github.com/zrbyte/rhkstm/internal/catalog"
	"github.com/zrbyte/rhkstm/sm4"
)

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// newRoot links the commands together and binds every option to a fresh
// configuration.
func newRoot() (*cobra.Command, *viper.Viper) {
	cfg := viper.New()

	root := &cobra.Command{
		Use:   "rhkstm",
		Short: "Reshape RHK STM spectroscopy maps.",
		Long: `rhkstm reads spectroscopy maps recorded by RHK scanning tunneling
microscopes and rebuilds them as labeled arrays of shape
(bias, specpos_x, specpos_y, repetitions, biasscandir).

Configuration can be changed with a configuration file (given with --config,
or config.yaml in /etc/rhkstm, $HOME/.rhkstm or the working directory), with
command-line arguments, or with environment variables named RHKSTM_var.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := setupViper(cfg); err != nil {
				return err
			}
			return setupLogging(cfg)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			b := rhkstm.Build
			cmd.Printf("This is rhkstm version %s\n", b.Version)
			cmd.Printf("Git commit hash: %s\n", b.Githash)
			cmd.Printf("Build time: %s\n", b.Date)
			cmd.Printf("Built on go version %s\n", runtime.Version())
		},
	}

	convertCmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a spectroscopy map to netCDF and/or .npy files",
		Long: `convert opens a spectroscopy map, rebuilds it, rescales it to nm and pA,
and writes it to the netCDF file given by --out and/or the directory given by
--npy. Without either, it writes <file>.nc next to the input. When
--catalog.addr is set, each output is recorded in the ClickHouse catalog.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convert(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Classify a file and describe its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return info(cfg, args[0], cmd.OutOrStdout())
		},
	}

	options := []option{
		{
			name:       "config",
			usage:      "config specifies the configuration file location.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name:       "logdir",
			usage:      "logdir is the directory holding problems.log. Empty logs to standard error.",
			defaultVal: "$HOME/.rhkstm/logs",
			flagsets:   []*pflag.FlagSet{root.PersistentFlags()},
		},
		{
			name:       "repetitions",
			usage:      "repetitions is the number of spectra recorded at each tip position per sweep direction.",
			shorthand:  "r",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), infoCmd.Flags()},
		},
		{
			name:       "alternate",
			usage:      "alternate says whether forward and backward bias sweeps were both recorded.",
			shorthand:  "a",
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), infoCmd.Flags()},
		},
		{
			name:       "datatype",
			usage:      "datatype is the expected content: map, line, spec or image.",
			defaultVal: "map",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), infoCmd.Flags()},
		},
		{
			name:       "out",
			usage:      "out is the netCDF file to write.",
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name:       "npy",
			usage:      "npy is a directory to write one .npy file per variable and coordinate into.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name:       "catalog.addr",
			usage:      "catalog.addr lists ClickHouse servers (host:port) to record conversions in.",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name:       "catalog.database",
			usage:      "catalog.database is the ClickHouse database holding the catalog tables.",
			defaultVal: catalog.DefaultDatabase,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name:       "dump",
			usage:      "dump prints the whole reconstructed map structure.",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
	}
	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	root.AddCommand(versionCmd, convertCmd, infoCmd)
	return root, cfg
}

// setupLogging points rhkstm.ProblemLogger at logdir/problems.log.
func setupLogging(cfg *viper.Viper) error {
	logdir := cfg.GetString("logdir")
	if logdir == "" {
		return nil
	}
	problemname, err := logPath(logdir, "problems.log")
	if err != nil {
		return err
	}
	rhkstm.ProblemLogger = startLogger(problemname)
	return nil
}

// params collects the acquisition settings from cfg.
func params(cfg *viper.Viper) (rhkstm.Params, error) {
	datatype, err := rhkstm.ParseDataType(cfg.GetString("datatype"))
	if err != nil {
		return rhkstm.Params{}, err
	}
	return rhkstm.Params{
		Repetitions: cfg.GetInt("repetitions"),
		Alternate:   cfg.GetBool("alternate"),
		DataType:    datatype,
	}, nil
}

// defaultOutput is filename with its extension replaced by .nc. A bundle
// manifest is named after its directory.
func defaultOutput(filename string) string {
	filename = filepath.Clean(filename)
	if filepath.Base(filename) == sm4.ManifestName {
		filename = filepath.Dir(filename)
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".nc"
}

func convert(ctx context.Context, cfg *viper.Viper, filename string, w io.Writer) error {
	start := time.Now()
	p, err := params(cfg)
	if err != nil {
		return err
	}
	s, err := rhkstm.Open(filename, p)
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if err != nil {
		return err
	}
	if s.SpecMap == nil {
		return fmt.Errorf("'%s' holds a %s, only spectroscopy maps can be converted", filename, s.DataType)
	}

	var cat *catalog.Catalog
	if addrs := cfg.GetStringSlice("catalog.addr"); len(addrs) > 0 {
		cat, err = catalog.Connect(ctx, catalog.Options{
			Addr:     addrs,
			Database: cfg.GetString("catalog.database"),
			Version:  rhkstm.Build.Version,
		})
		if err != nil {
			rhkstm.ProblemLogger.Printf("catalog unavailable, conversions will not be recorded: %v", err)
		}
		defer cat.Close()
	}

	ncname, npydir := cfg.GetString("out"), cfg.GetString("npy")
	if ncname == "" && npydir == "" {
		ncname = defaultOutput(filename)
	}
	g := s.SpecMap.Geometry
	record := func(output, format string) {
		msg := &catalog.FileMessage{
			RunID:       fmt.Sprint(s.SpecMap.Attrs["run_id"]),
			Source:      filename,
			Output:      output,
			Format:      format,
			DataType:    s.DataType.String(),
			SpecType:    s.SpecType.String(),
			Samples:     g.Samples,
			MapSize:     g.MapSize,
			Repetitions: g.Repetitions,
			Alternate:   g.Alternate,
			Start:       start,
			End:         time.Now(),
		}
		if err := cat.Record(ctx, msg); err != nil {
			rhkstm.ProblemLogger.Printf("recording %s in the catalog: %v", output, err)
		}
	}

	if ncname != "" {
		if err := writeNetCDF(s.SpecMap, ncname); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", ncname)
		record(ncname, "netcdf")
	}
	if npydir != "" {
		if err := rhkstm.WriteNPY(s.SpecMap, npydir); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", npydir)
		record(npydir, "npy")
	}
	return nil
}

func writeNetCDF(sm *rhkstm.SpecMap, name string) error {
	fp, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := rhkstm.WriteNetCDF(sm, fp); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return fp.Close()
}

func info(cfg *viper.Viper, filename string, w io.Writer) error {
	p, err := params(cfg)
	if err != nil {
		return err
	}
	s, err := rhkstm.Open(filename, p)
	if s != nil {
		s.Describe(w)
	}
	if err != nil {
		return err
	}
	if cfg.GetBool("dump") && s.SpecMap != nil {
		dumper := spew.ConfigState{Indent: "  ", MaxDepth: 4, SortKeys: true}
		dumper.Fdump(w, s.SpecMap)
	}
	return nil
}
