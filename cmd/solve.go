/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	perf "github.com/hodgesds/perf-utils"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gofea/InputParameters"
	"github.com/notargets/gofea/assembler"
	"github.com/notargets/gofea/model_problems/BVP"
)

type RunFlags struct {
	ICFile      string
	Profile     string // cpu or mem
	Perf        bool   // count CPU instructions with perf events
	Verbose     bool
	Parallel    int
	Partitioner string
}

const exampleFile = `
########################################
Title: "Manufactured Laplacian"
Formulation: Laplacian # Helmholtz, LinearElasticity, HookeLinearElasticity, SaintVenantElasticity
Problem: Manufactured  # DrivenCavity, Flow, TimeDependentFlow
Solver: SparseLU       # Dense, PCG
Mesh:
  Dim: 2
  N: 16
Time: 1.
Params:
  diffusivity: 1.
ProblemParams:
  solution: sine
########################################
`

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Assemble and solve a boundary value problem described by a YAML input file",
	Long: `Assemble and solve a boundary value problem described by a YAML input file.
Nonlinear formulations report the energy, gradient and Hessian at the
Dirichlet lift.`,
	Run: func(cmd *cobra.Command, args []string) {
		rf := readRunFlags(cmd)
		sim := processInput(rf)
		run(rf, func() (err error) {
			var (
				b   *BVP.BVP
				res *BVP.Result
			)
			if b, err = BVP.NewBVP(sim); err != nil {
				return
			}
			if res, err = b.Run(); err != nil {
				return
			}
			if !sim.Verbose {
				b.Print(res)
			}
			return
		})
	},
}

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the global system of a YAML input file without solving it",
	Long:  `Assemble the global system of a YAML input file without solving it, useful for timing the assembly`,
	Run: func(cmd *cobra.Command, args []string) {
		rf := readRunFlags(cmd)
		sim := processInput(rf)
		run(rf, func() (err error) {
			var (
				b *BVP.BVP
			)
			if b, err = BVP.NewBVP(sim); err != nil {
				return
			}
			if !b.Linear {
				return fmt.Errorf("%w: %s has no global matrix, use solve",
					assembler.ErrCategoryMismatch, sim.Formulation)
			}
			start := time.Now()
			K, f, err := b.AssembleSystem()
			if err != nil {
				return
			}
			nr, _ := K.Dims()
			fmt.Printf("Assembled %d x %d matrix, %d non-zeros, %d load entries in %v\n",
				nr, nr, K.NNZ(), len(f), time.Since(start))
			return
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{SolveCmd, AssembleCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Formulation\n\t- Problem\n\t- Mesh")
		c.Flags().String("profile", "", "write a cpu or mem profile to the current directory")
		c.Flags().Bool("perf", false, "count the CPU instructions of the run (linux perf events)")
		c.Flags().BoolP("verbose", "v", false, "print the run parameters and progress")
		c.Flags().IntP("parallel", "p", 0, "number of assembly buckets, overrides the input file")
		c.Flags().String("partitioner", "", "contiguous or metis, overrides the input file")
	}
}

func readRunFlags(cmd *cobra.Command) (rf *RunFlags) {
	var (
		err error
	)
	rf = &RunFlags{}
	if rf.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
		panic(err)
	}
	rf.Profile, _ = cmd.Flags().GetString("profile")
	rf.Perf, _ = cmd.Flags().GetBool("perf")
	// verbose may also come from the config file or GOFEA_VERBOSE
	rf.Verbose, _ = cmd.Flags().GetBool("verbose")
	rf.Verbose = rf.Verbose || viper.GetBool("verbose")
	rf.Parallel, _ = cmd.Flags().GetInt("parallel")
	rf.Partitioner, _ = cmd.Flags().GetString("partitioner")
	return
}

func processInput(rf *RunFlags) (sim *InputParameters.Simulation) {
	var (
		err  error
		data []byte
	)
	if len(rf.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = ioutil.ReadFile(rf.ICFile); err != nil {
		panic(err)
	}
	if sim, err = ReadSimulation(data, rf); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if sim.Verbose {
		sim.Print()
	}
	return
}

// ReadSimulation parses an input file and applies the command line overrides
func ReadSimulation(data []byte, rf *RunFlags) (sim *InputParameters.Simulation, err error) {
	sim = InputParameters.NewSimulation()
	if err = sim.Parse(data); err != nil {
		return nil, err
	}
	if rf.Verbose {
		sim.Verbose = true
	}
	if rf.Parallel > 0 {
		sim.ParallelDegree = rf.Parallel
	}
	if len(rf.Partitioner) != 0 {
		sim.Partitioner = rf.Partitioner
	}
	if err = sim.Validate(); err != nil {
		return nil, err
	}
	return
}

func run(rf *RunFlags, fn func() error) {
	var (
		err error
	)
	switch rf.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		fmt.Printf("error: unknown profile %q, use cpu or mem\n", rf.Profile)
		os.Exit(1)
	}
	if rf.Perf {
		var pv *perf.ProfileValue
		if pv, err = perf.CPUInstructions(fn); err == nil {
			fmt.Printf("CPU Instructions = %d\n", pv.Value)
		}
	} else {
		err = fn()
	}
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
}
