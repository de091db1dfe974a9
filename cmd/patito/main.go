// cmd/patito/main.go
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"patito/internal/compiler"
	"patito/internal/lexer"
	"patito/internal/memory"
	"patito/internal/repl"
	"patito/internal/vm"
)

const VERSION = "1.0.0"

// Command aliases mapping
var commandAliases = map[string]string{
	"r": "run",
	"c": "check",
	"q": "quads",
	"t": "tokens",
	"i": "repl",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "help", "--help", "-h":
		showUsage()
	case "version", "--version", "-v":
		fmt.Printf("patito %s\n", VERSION)
	case "run":
		runCommand(args[1:])
	case "check":
		checkCommand(args[1:])
	case "quads":
		quadsCommand(args[1:])
	case "tokens":
		tokensCommand(args[1:])
	case "repl":
		repl.Start()
	default:
		fail(fmt.Errorf("unknown command %q", cmd))
	}
}

func showUsage() {
	fmt.Println("Patito compiler and virtual machine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  patito run <file.pat>     compile and execute")
	fmt.Println("  patito check <file.pat>   compile only")
	fmt.Println("  patito quads <file.pat>   print the quadruple listing")
	fmt.Println("  patito tokens <file.pat>  print the token stream")
	fmt.Println("  patito repl               interactive loop")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --verbose   log compiler phases")
	fmt.Println("  --trace     log every executed quadruple")
	fmt.Println("  --quads     also print the quadruple listing (run)")
	fmt.Println("  --stats     report execution statistics (run)")
}

// hasFlag scans the argument list for a flag, in either position.
func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

func sourcePath(args []string) string {
	for _, arg := range args {
		if len(arg) > 0 && arg[0] != '-' {
			return arg
		}
	}
	fail(fmt.Errorf("missing source file argument"))
	return ""
}

func loadSource(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		fail(errors.Wrap(err, "reading source"))
	}
	return string(data)
}

func newLogger(args []string) hclog.Logger {
	level := hclog.Off
	if hasFlag(args, "--verbose") {
		level = hclog.Debug
	}
	if hasFlag(args, "--trace") {
		level = hclog.Trace
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "patito",
		Level:  level,
		Output: os.Stderr,
	})
}

// fail reports an error on stderr (colored when it is a terminal) and exits.
func fail(err error) {
	prefix := "error:"
	if isatty.IsTerminal(os.Stderr.Fd()) {
		prefix = "\x1b[31merror:\x1b[0m"
	}
	fmt.Fprintln(os.Stderr, prefix, err)
	os.Exit(1)
}

func compileFile(args []string) (*compiler.Artifacts, hclog.Logger) {
	log := newLogger(args)
	source := loadSource(sourcePath(args))
	artifacts, err := compiler.NewPipeline(log).Compile(source)
	if err != nil {
		fail(err)
	}
	return artifacts, log
}

func runCommand(args []string) {
	artifacts, log := compileFile(args)

	if hasFlag(args, "--quads") {
		fmt.Print(artifacts.Program.Listing())
	}

	execMemory := memory.NewExecutionMemory()
	if err := execMemory.LoadConstants(artifacts.Memory.Constants()); err != nil {
		fail(errors.Wrap(err, "loading constants"))
	}

	machine := vm.New(artifacts.Program, execMemory, artifacts.Directory)
	machine.SetLogger(log)
	if err := machine.Run(); err != nil {
		fail(errors.Wrap(err, "execution"))
	}

	if hasFlag(args, "--stats") {
		fmt.Fprintf(os.Stderr, "executed %s instructions, %s output lines\n",
			humanize.Comma(int64(machine.Executed())),
			humanize.Comma(int64(len(machine.Output()))))
	}
}

func checkCommand(args []string) {
	artifacts, _ := compileFile(args)
	fmt.Printf("ok: %d quadruples, %d constants\n",
		artifacts.Program.Len(), artifacts.Memory.Constants().Len())
}

func quadsCommand(args []string) {
	artifacts, _ := compileFile(args)
	fmt.Print(artifacts.Program.Listing())

	entries := artifacts.Memory.Constants().Entries()
	if len(entries) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("constants:")
	for _, entry := range entries {
		fmt.Printf("  %5d  %-6s %q\n", entry.Address, entry.Kind, entry.Lexeme)
	}
}

func tokensCommand(args []string) {
	source := loadSource(sourcePath(args))
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		fail(err)
	}
	for _, token := range tokens {
		fmt.Println(token)
	}
}
