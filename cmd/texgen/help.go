package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texgen <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Generate one document per topic row")
	fmt.Fprintln(w, "  compile    Validate and compile generated documents to PDF")
	fmt.Fprintln(w, "  validate   Validate generated documents without compiling")
	fmt.Fprintln(w, "  history    Show recorded runs (requires ledger in config)")
	fmt.Fprintln(w, "  doctor     Check compilers, credentials and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'texgen help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file (default texgen.yaml, created if missing)")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug diagnostics")
}

func printLogFlags(w io.Writer) {
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log                 Write the run log under logs_dir (default true)")
	fmt.Fprintln(w, "      --log-format <s>      jsonl or text (default jsonl)")
}

// printGenerateUsage prints usage for the generate command.
func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texgen generate [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read topics from the CSV data file, render the prompt for each row,")
	fmt.Fprintln(w, "call the model and write one document per row to output_dir.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -d, --data <path>         Topics CSV (overrides data_file)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (overrides output_dir)")
	fmt.Fprintln(w, "  -f, --format <s>          latex, html or markdown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Selection:")
	fmt.Fprintln(w, "      --start <n>           Index of the first record")
	fmt.Fprintln(w, "      --limit <n>           Maximum records to process (0 = none)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Existing outputs:")
	fmt.Fprintln(w, "      --skip-existing       Skip the record")
	fmt.Fprintln(w, "      --overwrite           Replace the file")
	fmt.Fprintln(w, "      --dedupe              Write name-2, name-3, ...")
	fmt.Fprintln(w, "                            Without any of these, an existing output stops the run.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Model:")
	fmt.Fprintln(w, "      --retries <n>         Attempts per record, backoff 2s, 4s, 8s, ...")
	fmt.Fprintln(w, "      --mock                Offline placeholder content, no API key needed")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline:")
	fmt.Fprintln(w, "      --compile             Run the compile stage after generation")
	fmt.Fprintln(w)
	printLogFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  OPENAI_API_KEY, OPENAI_BASE_URL, TEXGEN_CONFIG, TEXGEN_DATA_FILE,")
	fmt.Fprintln(w, "  TEXGEN_OUTPUT_DIR, TEXGEN_LOGS_DIR, TEXGEN_FORMAT, TEXGEN_PROVIDER,")
	fmt.Fprintln(w, "  TEXGEN_MODEL, TEXGEN_LEDGER, TEXGEN_RETRIES")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  texgen generate --mock --limit 3")
	fmt.Fprintln(w, "  texgen generate --start 20 --limit 10 --skip-existing --compile")
}

// printCompileUsage prints usage for the compile command.
func printCompileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texgen compile [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Validate generated documents in output_dir and compile them into")
	fmt.Fprintln(w, "compile.pdf_dir. Existing PDFs are skipped unless --force.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --file <name>         Process a single file")
	fmt.Fprintln(w, "  -e, --engine <s>          pdflatex, pandoc or chrome (default from config)")
	fmt.Fprintln(w, "      --force, --all        Recompile files whose PDF exists")
	fmt.Fprintln(w, "      --dry-run             Validate and report, do not compile")
	fmt.Fprintln(w, "      --validate-only       Same as 'texgen validate'")
	fmt.Fprintln(w, "      --json                Print the JSON summary to stdout")
	fmt.Fprintln(w)
	printLogFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printValidateUsage prints usage for the validate command.
func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texgen validate [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check generated documents for structure and the sections their")
	fmt.Fprintln(w, "prompt type requires. Nothing is compiled.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --file <name>         Process a single file")
	fmt.Fprintln(w, "      --json                Print the JSON summary to stdout")
	fmt.Fprintln(w)
	printLogFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printHistoryUsage prints usage for the history command.
func printHistoryUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texgen history [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List runs recorded in the ledger database.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -n, --limit <n>           Number of runs to list (default 10)")
	fmt.Fprintln(w, "      --run <id>            Show the entries of one run")
	fmt.Fprintln(w, "      --file <name>         Show the last status of an output file")
	fmt.Fprintln(w, "      --json                Print JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: texgen doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Report which compilers are installed, whether credentials are set")
	fmt.Fprintln(w, "and whether the temp directory is writable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit status is 1 only when errors are found.")
}
