/*
Copyright © 2024 the RESTORE authors.
This file is part of RESTORE.

RESTORE is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

RESTORE is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with RESTORE.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package restoreutil handles scenario files and the command-line
// interface of the RESTORE model.
package restoreutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/lnashier/viper"
	log "github.com/sirupsen/logrus"
	"github.com/spatialmodel/restore"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to RESTORE.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "scenario",
			usage: `
              scenario specifies the scenario file holding the flows,
              entities and parameters of the system to optimize.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "debug",
			usage: `
              debug enables debug-level logging, including one line per
              skipped constraint instance.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PinBaseYear",
			usage: `
              PinBaseYear fixes base-year capacities to the declared
              actuals instead of leaving them to the vintage recurrence,
              as a consistency check of the input data.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), checkCmd.Flags()},
		},
		{
			name: "PinBaseActivity",
			usage: `
              PinBaseActivity fixes base-year activity to the declared
              actuals for entities enabled at the base year.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), checkCmd.Flags()},
		},
		{
			name: "HourWeight",
			usage: `
              HourWeight overrides the number of real hours each time
              slice stands for.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), checkCmd.Flags()},
		},
		{
			name: "SolverTol",
			usage: `
              SolverTol is the simplex pivot tolerance. Zero selects the
              default.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies a CSV file to write the per-entity,
              per-year capacity and activity results to. When empty the
              results are only printed as a table.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("RESTORE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(checkCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and adjusts logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("restore: problem reading configuration file: %v", err)
		}
	}
	if Cfg.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "restore",
	Short: "A multi-sector energy-system optimization model.",
	Long: `RESTORE assembles and solves a multi-year, multi-sector energy-system
linear program from a declarative scenario description.
Use the subcommands specified below to access the model functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RESTORE_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of RESTORE.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("RESTORE v%s\n", restore.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Assemble and solve the scenario.",
	Long: `run assembles the optimization problem for the scenario given with
--scenario, solves it, and reports the per-entity capacity and activity
results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := buildModel(cmd.Flags())
		if err != nil {
			return err
		}
		solver := &restore.SimplexSolver{Tol: Cfg.GetFloat64("SolverTol")}
		if err := m.Solve(solver); err != nil {
			return err
		}
		obj, err := m.Objective()
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"objective": obj}).Info("scenario solved")
		if err := Report(cmd.OutOrStdout(), m); err != nil {
			return err
		}
		if out := os.ExpandEnv(Cfg.GetString("OutputFile")); out != "" {
			return writeResultsCSV(out, m)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// checkCmd assembles the problem without solving it, for fast scenario
// validation.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Assemble the scenario without solving it.",
	Long: `check assembles the optimization problem for the scenario given with
--scenario and reports its size without calling a solver. Use it to
validate scenario files quickly; run with --debug to see which
constraints are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := buildModel(cmd.Flags())
		if err != nil {
			return err
		}
		cmd.Println(m.Problem.Summary())
		return nil
	},
	DisableAutoGenTag: true,
}

func buildModel(flags *pflag.FlagSet) (*restore.Model, error) {
	sc, err := ScenarioFromViper(Cfg, flags)
	if err != nil {
		return nil, err
	}
	m, err := BuildModel(sc)
	if err != nil {
		return nil, err
	}
	if err := m.Build(); err != nil {
		return nil, err
	}
	return m, nil
}

// Report prints the per-entity, per-year capacity and annual activity
// of a solved model as an aligned table.
func Report(w io.Writer, m *restore.Model) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "entity\tyear\tcapacity\tnew\tretired\tactivity")
	for _, e := range m.Topology.Entities {
		for _, y := range m.Slices.Years {
			act, err := m.AnnualActivity(e.ID, y)
			if err != nil {
				return err
			}
			if !e.Caps.Has(restore.HasCapacity) {
				fmt.Fprintf(tw, "%s\t%d\t\t\t\t%g\n", e.ID, y, act)
				continue
			}
			tot, err := m.Capacity(e.ID, y)
			if err != nil {
				return err
			}
			cnew, err := m.NewCapacity(e.ID, y)
			if err != nil {
				return err
			}
			cret, err := m.RetiredCapacity(e.ID, y)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%d\t%g\t%g\t%g\t%g\n", e.ID, y, tot, cnew, cret, act)
		}
	}
	return tw.Flush()
}

// writeResultsCSV writes the same results as Report in CSV form.
func writeResultsCSV(path string, m *restore.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("restoreutil: creating output file: %w", err)
	}
	defer f.Close()
	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"entity", "year", "capacity", "new", "retired", "activity"}); err != nil {
		return err
	}
	g := func(v float64, err error) string {
		if err != nil {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	for _, e := range m.Topology.Entities {
		for _, y := range m.Slices.Years {
			rec := []string{e.ID, strconv.Itoa(y), "", "", "", ""}
			if e.Caps.Has(restore.HasCapacity) {
				rec[2] = g(m.Capacity(e.ID, y))
				rec[3] = g(m.NewCapacity(e.ID, y))
				rec[4] = g(m.RetiredCapacity(e.ID, y))
			}
			rec[5] = g(m.AnnualActivity(e.ID, y))
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
