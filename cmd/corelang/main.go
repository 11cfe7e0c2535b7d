// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Command corelang is the CLI driver spec §6 treats as an external
// collaborator: it wires tokenize -> parse -> register_module ->
// (execute | inspect) over the core packages, and is the only place that
// touches a filesystem, stdin, or a CI environment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sethvargo/go-githubactions"

	"github.com/corelang/corelang/internal/bytecode"
	"github.com/corelang/corelang/internal/compiler"
	"github.com/corelang/corelang/internal/compileropts"
	"github.com/corelang/corelang/internal/diagnostics"
	"github.com/corelang/corelang/internal/effects"
	"github.com/corelang/corelang/internal/lexer"
	"github.com/corelang/corelang/internal/natives"
	"github.com/corelang/corelang/internal/parser"
	"github.com/corelang/corelang/internal/principal"
	"github.com/corelang/corelang/internal/report"
	"github.com/corelang/corelang/internal/value"
	"github.com/corelang/corelang/internal/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("corelang", flag.ContinueOnError)
	sourcePath := fs.String("file", "-", "source file to compile (- for stdin)")
	execTarget := fs.String("exec", "", "execute name[:version] after registration")
	execArgsJSON := fs.String("args", "[]", "JSON array of arguments for -exec")
	inspectFlags := fs.String("inspect", "", "comma-separated inspect flags: versions,security,diagnostics")
	configPath := fs.String("config", "corelang.toml", "compiler options TOML file")
	outputFormat := fs.String("output", "text", "result rendering: text or json")
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	action := githubactions.New()
	isCI := os.Getenv("GITHUB_ACTIONS") == "true" || os.Getenv("CI") == "true"

	source, err := readSource(*sourcePath)
	if err != nil {
		return fail(action, isCI, "failed to read source: %v", err)
	}

	opts, err := compileropts.Load(context.Background(), *configPath)
	if err != nil {
		return fail(action, isCI, "failed to load compiler options: %v", err)
	}

	toks := lexer.Tokenize(source)

	mod, err := parser.Parse(toks)
	if err != nil {
		return fail(action, isCI, "parse error: %v", err)
	}

	ctx := compiler.New(opts)
	diags := ctx.RegisterModule(mod)
	printDiagnostics(action, isCI, diags, source)

	mr, compileErrs := ctx.CompileModule(mod)
	for _, e := range compileErrs {
		logWarning(action, isCI, "compile error: %v", e)
	}

	exitCode := 0
	if diags.HasErrors() || len(compileErrs) > 0 {
		exitCode = 1
	}

	if *inspectFlags != "" {
		flags := splitFlags(*inspectFlags)
		rep, err := report.Build(mod.Name, ctx, diags, flags)
		if err != nil {
			return fail(action, isCI, "inspect failed: %v", err)
		}
		if err := emitReport(action, isCI, rep, *outputFormat); err != nil {
			return fail(action, isCI, "failed to render report: %v", err)
		}
	}

	if *execTarget != "" {
		code, err := execute(action, isCI, mr, *execTarget, *execArgsJSON, *outputFormat)
		if err != nil {
			return fail(action, isCI, "execution failed: %v", err)
		}
		if code != 0 {
			exitCode = code
		}
	}

	if exitCode == 0 {
		if isCI {
			action.Infof("corelang: registration and compilation succeeded")
		}
		setOutput(action, isCI, "success", "true")
	}
	return exitCode
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func splitFlags(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func printDiagnostics(action *githubactions.Action, isCI bool, diags *diagnostics.Builder, source string) {
	for _, d := range diags.Diagnostics() {
		rendered := diagnostics.Format(d, source)
		switch d.Severity {
		case diagnostics.Error:
			logError(action, isCI, "%s", rendered)
		default:
			logWarning(action, isCI, "%s", rendered)
		}
	}
}

func emitReport(action *githubactions.Action, isCI bool, rep *report.Report, format string) error {
	switch format {
	case "json":
		_, pretty, err := rep.ToJSON(true)
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		if isCI {
			action.AddStepSummary("```json\n" + string(pretty) + "\n```")
		}
	default:
		yamlBytes, err := rep.ToYAML(true)
		if err != nil {
			return err
		}
		fmt.Println(string(yamlBytes))
	}
	return nil
}

// execute runs target ("name" or "name:version") with the JSON-decoded
// arguments in argsJSON, under the principal read from the environment
// (spec §3.1; CORELANG_PRINCIPAL_ID/CORELANG_PRINCIPAL_ROLES). Effect
// handlers are the in-memory stubs spec §6 scopes "real" backends out of.
func execute(action *githubactions.Action, isCI bool, mr *bytecode.ModuleRecord, target, argsJSON, format string) (int, error) {
	var raw []interface{}
	if err := json.Unmarshal([]byte(argsJSON), &raw); err != nil {
		return 0, fmt.Errorf("invalid -args JSON: %w", err)
	}
	args := make([]value.Value, 0, len(raw))
	for _, r := range raw {
		args = append(args, fromJSON(r))
	}

	effectReg := effects.NewRegistry()
	effectReg.Register(effects.NewDBHandler())
	effectReg.Register(effects.NewHTTPHandler())
	effectReg.Register(effects.NewFSHandler())
	effectReg.Register(effects.NewLogHandler())
	effectReg.Register(effects.NewEventHandler())

	machine := vm.New(mr, natives.NewRegistry(), effectReg)
	p := principal.FromEnvironment()

	result, err := machine.Execute(target, args, p)
	if err != nil {
		if verr, ok := err.(*vm.Error); ok {
			logError(action, isCI, "%s", verr.Error())
			return 1, nil
		}
		return 0, err
	}

	rendered := value.Render(result)
	if format == "json" {
		fmt.Printf("%q\n", rendered)
	} else {
		fmt.Println(rendered)
	}
	setOutput(action, isCI, "result", rendered)
	return 0, nil
}

// fromJSON converts one encoding/json-decoded value into a corelang runtime
// value, the inverse of value.Render for the JSON-representable subset of
// the value model (spec §3.6's JSON variant covers anything wider).
func fromJSON(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Unit{}
	case bool:
		return value.Bool{V: v}
	case float64:
		if v == float64(int(v)) {
			return value.Int{V: int(v)}
		}
		return value.Float{V: v}
	case string:
		return value.String{V: v}
	case []interface{}:
		items := make([]value.Value, 0, len(v))
		for _, item := range v {
			items = append(items, fromJSON(item))
		}
		return value.List{Items: items}
	case map[string]interface{}:
		entries := make(map[string]value.Value, len(v))
		for k, item := range v {
			entries[k] = fromJSON(item)
		}
		return value.Map{Entries: entries}
	default:
		return value.JSON{Raw: raw}
	}
}

func fail(action *githubactions.Action, isCI bool, format string, args ...interface{}) int {
	logError(action, isCI, format, args...)
	return 1
}

// logError surfaces a failure as a GitHub Actions warning annotation rather
// than a fatal one: the driver has already decided the process exit code
// separately, and a Fatalf here would exit before the remaining
// diagnostics or report output are emitted.
func logError(action *githubactions.Action, isCI bool, format string, args ...interface{}) {
	if isCI {
		action.Warningf("error: "+format, args...)
	} else {
		fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	}
}

func logWarning(action *githubactions.Action, isCI bool, format string, args ...interface{}) {
	if isCI {
		action.Warningf(format, args...)
	} else {
		fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
	}
}

func setOutput(action *githubactions.Action, isCI bool, name, val string) {
	if isCI {
		action.SetOutput(name, val)
	}
}
