package cmd

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/moccore/solver/report"
	"github.com/moccore/solver/runtime"
)

// SolveCmd drives one eigenvalue solve from a YAML runtime configuration.
// Geometry and track generation are an external collaborator (spec
// section 1 Non-goals: this module never reads mesh/Gambit/gmsh files
// itself, unlike cmd/2D.go's -gridFile flag) - SolveCmd only owns
// configuration, profiling and reporting, and hands the loaded
// parameters to whatever ProblemLoader the caller registers.
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run the outer source iteration to a converged k_eff",
	Long:  `Run the outer source iteration to a converged k_eff for a problem described by a YAML runtime configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfgPath, _ := cmd.Flags().GetString("config")
		cpuProfile, _ := cmd.Flags().GetBool("cpuprofile")
		memProfile, _ := cmd.Flags().GetBool("memprofile")

		params := loadParams(cfgPath)

		if cpuProfile {
			defer profile.Start(profile.CPUProfile).Stop()
		} else if memProfile {
			defer profile.Start(profile.MemProfile).Stop()
		}

		level := report.Normal
		if params.Debug {
			level = report.Debug
		}
		rep := report.New(os.Stdout, level)
		params.Print()

		if ProblemLoader == nil {
			rep.Errorf("no problem loader registered - geometry/track generation is an external collaborator this binary does not implement")
			os.Exit(1)
		}
		driver, err := ProblemLoader(params, rep)
		if err != nil {
			rep.Errorf("loading problem: %s", err)
			os.Exit(1)
		}
		res, err := driver.Run(context.Background())
		if err != nil {
			rep.Errorf("solve failed: %s", err)
			os.Exit(1)
		}
		fmt.Printf("k_eff = %.6f, converged = %v, iterations = %d, run id = %s\n",
			res.Keff, res.Converged, res.Iterations, res.RunID)
	},
}

func loadParams(path string) *runtime.Parameters {
	if path == "" {
		fmt.Println("error: must supply a runtime config file (--config)")
		os.Exit(1)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Printf("error reading config: %s\n", err)
		os.Exit(1)
	}
	params, err := runtime.Parse(data)
	if err != nil {
		fmt.Printf("error parsing config: %s\n", err)
		os.Exit(1)
	}
	return params
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("config", "c", "", "YAML runtime configuration file")
	SolveCmd.Flags().Bool("cpuprofile", false, "write a CPU profile for this run")
	SolveCmd.Flags().Bool("memprofile", false, "write a memory profile for this run")
}
