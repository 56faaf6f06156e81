package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anime-shed/claim-evidence-inspector/internal/config"
	"github.com/anime-shed/claim-evidence-inspector/internal/container"
	"github.com/anime-shed/claim-evidence-inspector/internal/logger"
	"github.com/anime-shed/claim-evidence-inspector/internal/service"
	"github.com/anime-shed/claim-evidence-inspector/pkg/models"
	"github.com/fatih/color"
)

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func main() {
	var (
		claimType    = flag.String("claim", "", "Claim type (AUTO, HEALTH, HOME, LIFE, TRAVEL); analyzes the files as one bundle")
		jsonOutput   = flag.Bool("json", false, "Print results as JSON")
		inference    = flag.String("inference", "", "Address of the neural inference server (heuristic scoring when empty)")
		documentType = flag.String("type", "", "Declared document type used as the extraction hint")
		expectedText = flag.String("expect", "", "Text the document is expected to contain")
		evidenceURL  = flag.String("url", "", "Fetch and analyze a remote file instead of local files")
		timeout      = flag.Duration("timeout", 2*time.Minute, "Overall analysis timeout")
		verbose      = flag.Bool("verbose", false, "Enable pipeline logging on stderr")
	)
	flag.Parse()
	files := flag.Args()

	if len(files) == 0 && *evidenceURL == "" {
		fmt.Println("Usage:")
		fmt.Println("  evidencectl [-json] [-type TYPE] [-expect TEXT] file...")
		fmt.Println("  evidencectl -claim TYPE [-json] file...")
		fmt.Println("  evidencectl -url URL [-json]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		printError("Failed to load config: %v", err)
		os.Exit(1)
	}
	if *inference != "" {
		cfg.InferenceAddr = *inference
	}
	cfg.LogLevel = "warn"
	if *verbose {
		cfg.LogLevel = "debug"
	}
	logger.Logger.SetOutput(os.Stderr)

	c, err := container.NewContainer(cfg)
	if err != nil {
		printError("Failed to initialize: %v", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var hint models.DocumentType
	if *documentType != "" {
		t, ok := models.ParseDocumentType(*documentType)
		if !ok {
			printError("Unknown document type %q", *documentType)
			os.Exit(1)
		}
		hint = t
	}

	svc := c.Service()
	switch {
	case *evidenceURL != "":
		a, err := svc.AnalyzeEvidenceURL(ctx, models.AnalyzeURLRequest{
			URL:          *evidenceURL,
			DocumentType: string(hint),
			ExpectedText: *expectedText,
		})
		if err != nil {
			printError("%s: %v", *evidenceURL, err)
			os.Exit(1)
		}
		emit(*jsonOutput, a, func() { printAssessment(a) })

	case *claimType != "":
		evidence, err := readFiles(files)
		if err != nil {
			printError("%v", err)
			os.Exit(1)
		}
		result, err := svc.AnalyzeClaim(ctx, *claimType, evidence)
		if err != nil {
			printError("Claim analysis failed: %v", err)
			os.Exit(1)
		}
		emit(*jsonOutput, result, func() { printClaim(result) })

	default:
		failed := false
		var assessments []*models.EvidenceAssessment
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				printError("%s: %v", path, err)
				failed = true
				continue
			}
			a, err := svc.AnalyzeEvidence(ctx, data, service.AnalysisOptions{
				Source:       filepath.Base(path),
				DocumentType: hint,
				ExpectedText: *expectedText,
			})
			if err != nil {
				printError("%s: %v", path, err)
				failed = true
				continue
			}
			assessments = append(assessments, a)
		}
		emit(*jsonOutput, assessments, func() {
			for _, a := range assessments {
				printAssessment(a)
			}
		})
		if failed {
			os.Exit(1)
		}
	}
}

func readFiles(paths []string) ([]service.EvidenceFile, error) {
	files := make([]service.EvidenceFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		files = append(files, service.EvidenceFile{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}

func emit(asJSON bool, v interface{}, pretty func()) {
	if !asJSON {
		pretty()
		return
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError("Failed to encode result: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func statusLabel(s models.RiskStatus) string {
	label := fmt.Sprintf("%-10s", s)
	switch s {
	case models.StatusGenuine:
		return successColor(label)
	case models.StatusSuspicious:
		return warningColor(label)
	default:
		return alertColor(label)
	}
}

func printAssessment(a *models.EvidenceAssessment) {
	docType := "not classified"
	if a.Classification != nil {
		docType = fmt.Sprintf("%s (%d%%)", a.Classification.DisplayName, a.Classification.Confidence)
	}
	fmt.Printf("%s %6.2f  %-9s %s  %s\n", statusLabel(a.Status), a.FraudRisk.Score, a.FraudRisk.Method, a.Source, docType)

	if !a.Quality.Valid {
		printWarning("quality gate: %s", a.Quality.ErrorReason)
	}
	for _, w := range a.FraudRisk.Warnings {
		printWarning("%s", w)
	}
	if a.Extraction != nil {
		if !a.Extraction.Success {
			printWarning("%s", a.Extraction.Error)
		} else if len(a.Extraction.MissingFields) > 0 {
			printInfo("missing fields: %s", strings.Join(a.Extraction.MissingFields, ", "))
		}
		if v := a.Extraction.Verification; v != nil {
			printInfo("declared text match %.2f (WER %.2f, CER %.2f)", v.MatchScore, v.WER, v.CER)
		}
	}
}

func printClaim(result *models.ClaimAnalysis) {
	for i := range result.Documents {
		printAssessment(&result.Documents[i])
	}

	r := result.Relevance
	fmt.Println("---------------------------------")
	printInfo("claim %s: %d documents, relevance %d, consistency %d", r.ClaimType, r.DocumentCount, r.RelevanceScore, r.ConsistencyScore)
	if r.CriticalMismatch {
		fmt.Printf("%s %s\n", alertColor("[!!!]"), "critical document mismatch")
	}
	for _, w := range r.Warnings {
		printWarning("%s", w)
	}
	for _, rec := range r.Recommendations {
		printInfo("%s", rec)
	}
}
