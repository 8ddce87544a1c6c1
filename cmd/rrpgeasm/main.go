// Completion: 100% - CLI interface complete
package main

import (
	"fmt"
	"os"

	"github.com/xyproto/rrpgeasm/internal/asm"
)

const banner = "rrpgeasm - RRPGE application assembler"

// rrpgeasm [input.asm]: input defaults to main.asm, output is always
// app.rpa, both in the working directory.
func main() {
	input := "main.asm"
	if len(os.Args) > 1 {
		input = os.Args[1]
	}
	const output = "app.rpa"

	fmt.Println(banner)

	c := asm.NewCompile(os.Stdout)
	if !c.Run(input, output) {
		os.Exit(1)
	}
}
