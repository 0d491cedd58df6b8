// SPDX-License-Identifier: MIT

// Command glmnet draws from and scores the network priors described by a
// YAML model file.
//
//	glmnet sample --config model.yaml --seed 7 --draws 10 --workers 4
//	glmnet logp   --config model.yaml --seed 7 --scales 0,0.5,1
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
