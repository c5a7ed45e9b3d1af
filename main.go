// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/plugkit/plugkit/cmd/plugkit"

func main() {
	cmd.Execute()
}
