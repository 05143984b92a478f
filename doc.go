// Package texgen generates typeset encyclopedia entries from a table of
// topics using a language model.
//
// # Quick Start
//
// Load the configuration and topics, build a generator and run it:
//
//	cfg, _, err := config.LoadOrCreate("texgen.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	records, err := topics.Load(cfg.DataFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gen, err := texgen.NewGenerator(cfg, texgen.WithClient(llm.Mock{}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := gen.Run(ctx, records)
//
// # Pipeline
//
// For every record of the configured slice the generator:
//
//  1. derives "{domain}-{topic}-{subtopic}.{ext}" and applies the collision policy
//  2. resolves the prompt template for the record's prompt type
//  3. asks the model for Markdown, retrying with exponential backoff
//  4. renders the Markdown to LaTeX, HTML or Markdown with front matter
//  5. writes the file and appends one structured log line
//
// A summary line closes every run. Compilation to PDF is a separate stage,
// see internal/compile.
//
// # Collision Policies
//
// An existing output file is handled by the run's policy:
//
//	error      stop the run, leave the file untouched (default)
//	skip       record the topic as skipped without calling the model
//	overwrite  replace the file
//	dedupe     write to name-2.ext, name-3.ext, ...
//
// Re-running with skip resumes an interrupted batch.
package texgen
