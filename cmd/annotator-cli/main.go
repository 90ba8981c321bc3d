// Command annotator-cli inspects annotation files without the desktop UI:
// summary statistics, data-quality validation and CSV export.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"yashubustudio/annotator/internal/annotation"
)

type cliOptions struct {
	inputPath  string
	stats      bool
	validate   bool
	exportPath string
	outputDir  string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("annotator-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("annotator-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	var doExport bool
	flag.StringVar(&opts.inputPath, "input", "", "Annotation JSON file to inspect")
	flag.BoolVar(&opts.stats, "stats", false, "Print caption/vote/annotation statistics")
	flag.BoolVar(&opts.validate, "validate", false, "Report data-quality issues (exit 1 when any are found)")
	flag.BoolVar(&doExport, "export", false, "Export all records as CSV")
	flag.StringVar(&opts.exportPath, "output", "", "CSV file to write (default uses --output-dir/annotations_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory for the export CSV when --output is omitted")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input FILE [--stats] [--validate] [--export]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.exportPath = strings.TrimSpace(opts.exportPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)
	if !doExport {
		opts.exportPath = ""
		opts.outputDir = ""
	}

	if opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --input file")
	}
	if !opts.stats && !opts.validate && !doExport {
		opts.stats = true
	}
	return opts, nil
}

func run(opts cliOptions) error {
	doc, err := annotation.LoadDocument(opts.inputPath)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if opts.stats {
		printStats(doc)
	}

	if opts.validate {
		issues := annotation.Validate(doc)
		if len(issues) > 0 {
			for _, issue := range issues {
				fmt.Fprintln(os.Stderr, issue)
			}
			return fmt.Errorf("%d data-quality issue(s) found", len(issues))
		}
		fmt.Println("no data-quality issues found")
	}

	if opts.exportPath != "" || opts.outputDir != "" {
		outputPath, err := resolveOutputPath(opts.exportPath, opts.outputDir)
		if err != nil {
			return err
		}
		if err := writeExportCSV(outputPath, doc); err != nil {
			return err
		}
		fmt.Printf("export written to %s\n", outputPath)
	}
	return nil
}

func printStats(doc annotation.Document) {
	captions := doc.Captions()
	totalRecords := 0
	annotated := 0
	byLabel := make(map[annotation.Label]int)
	voteHist := make(map[int]int)
	for _, caption := range captions {
		for _, rec := range doc[caption] {
			totalRecords++
			voteHist[rec.VoteCount()]++
			if rec.Annotation != nil {
				annotated++
				byLabel[*rec.Annotation]++
			}
		}
	}

	fmt.Printf("captions:  %d\n", len(captions))
	fmt.Printf("records:   %d\n", totalRecords)
	fmt.Printf("voters:    %s\n", strings.Join(annotation.Voters(doc), ", "))
	fmt.Printf("annotated: %d (%d remaining)\n", annotated, totalRecords-annotated)
	for _, label := range annotation.LabelOptions() {
		if n := byLabel[annotation.Label(label)]; n > 0 {
			fmt.Printf("  %-10s %d\n", label, n)
		}
	}

	counts := make([]int, 0, len(voteHist))
	for n := range voteHist {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	fmt.Println("vote counts:")
	for _, n := range counts {
		fmt.Printf("  %d vote(s): %d record(s)\n", n, voteHist[n])
	}
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("annotations_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeExportCSV(path string, doc annotation.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"caption", "img_path", "votes", "vote_count", "score", "human_annotation"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, caption := range doc.Captions() {
		for _, rec := range doc[caption] {
			if err := writer.Write(exportRow(caption, rec)); err != nil {
				return fmt.Errorf("write row for %s: %w", rec.ImgPath, err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

func exportRow(caption string, rec *annotation.ImageRecord) []string {
	// an absent or null score stays an empty cell; "0" would be
	// indistinguishable from a recorded zero
	score := ""
	if raw := strings.TrimSpace(string(rec.Score)); raw != "" && raw != "null" {
		if v, err := rec.ScoreValue(); err == nil {
			score = strconv.FormatFloat(v, 'f', -1, 64)
		} else {
			score = raw
		}
	}
	label := ""
	if rec.Annotation != nil {
		label = string(*rec.Annotation)
	}
	return []string{
		caption,
		rec.ImgPath,
		strings.Join(rec.Votes, ";"),
		strconv.Itoa(rec.VoteCount()),
		score,
		label,
	}
}
