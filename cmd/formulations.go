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

	"github.com/spf13/cobra"

	"github.com/notargets/gofea/assembler"
	"github.com/notargets/gofea/problem"
	"github.com/notargets/gofea/solver"
)

// FormulationsCmd lists what an input file can name
var FormulationsCmd = &cobra.Command{
	Use:   "formulations",
	Short: "List the registered formulations, problems and linear solvers",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Scalar formulations: %v\n", assembler.ScalarAssemblers())
		fmt.Printf("Tensor formulations: %v\n", assembler.TensorAssemblers())
		fmt.Printf("Problems:            %v\n", problem.Names())
		fmt.Printf("Linear solvers:      %v\n", solver.Names())
	},
}

func init() {
	rootCmd.AddCommand(FormulationsCmd)
}
