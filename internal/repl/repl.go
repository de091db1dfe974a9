// internal/repl/repl.go
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"patito/internal/compiler"
	"patito/internal/memory"
	"patito/internal/vm"
)

// Start reads a whole program from stdin line by line. Once the closing
// "end" line arrives the accumulated program is compiled and executed, the
// buffer is reset, and the loop continues. "exit" quits.
func Start() {
	Run(os.Stdin, os.Stdout)
}

func Run(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "Patito REPL | finish a program with 'end', type 'exit' to quit")
	scanner := bufio.NewScanner(in)

	var lines []string
	for {
		if len(lines) == 0 {
			fmt.Fprint(out, ">>> ")
		} else {
			fmt.Fprint(out, "... ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			break
		}

		lines = append(lines, line)
		if strings.TrimSpace(line) != "end" {
			continue
		}

		source := strings.Join(lines, "\n")
		lines = nil

		artifacts, err := compiler.Compile(source)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}

		execMemory := memory.NewExecutionMemory()
		if err := execMemory.LoadConstants(artifacts.Memory.Constants()); err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}

		machine := vm.New(artifacts.Program, execMemory, artifacts.Directory)
		machine.SetOutput(out)
		if err := machine.Run(); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}
