package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"depthrefine/internal/models"
	"depthrefine/pkg/config"
	"depthrefine/pkg/progress"
	"depthrefine/pkg/refine"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "depthrefine.yaml", "YAML configuration file (optional)")
	envPath := flag.String("env", ".env", "dotenv file with DEPTHREFINE_* overrides (optional)")
	depthPath := flag.String("depth", "", "Input depth map (PFM, 16-bit PNG or TIFF)")
	guidePath := flag.String("guide", "", "Guide image (PNG, JPEG, TIFF, BMP, WebP or PFM)")
	outputPath := flag.String("output", "", "Output depth map (default: <depth>_refined.pfm)")
	manifestPath := flag.String("manifest", "", "YAML manifest listing views for batch mode")
	mode := flag.String("mode", "", "Filter mode: bilateral, median or gaussian")
	sigma := flag.Float64("sigma", 0, "Spatial sigma in guide pixels")
	kernel := flag.Int("kernel", -1, "Half width of the filter window")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: all CPUs)")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save preview images of each stage")
	intermediaryDir := flag.String("intermediary-dir", "", "Directory for stage previews")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if *manifestPath == "" && *depthPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.LoadEnv(cfg, *envPath); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}

	// Command line flags override file and environment settings
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Filter.Mode = strings.ToLower(*mode)
		case "sigma":
			cfg.Filter.Sigma = *sigma
		case "kernel":
			cfg.Filter.KernelSize = *kernel
		case "workers":
			cfg.Filter.Workers = *workers
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		case "intermediary-dir":
			cfg.Output.IntermediaryDir = *intermediaryDir
		}
	})

	fmt.Println("================================")
	fmt.Println("DEPTH MAP REFINEMENT WITH JOINT BILATERAL FILTERING")
	fmt.Println("================================")
	fmt.Printf("Mode: %s | sigma %.2f | kernel %d | workers %d\n",
		cfg.Filter.Mode, cfg.Filter.Sigma, cfg.Filter.KernelSize, cfg.Filter.Workers)

	refiner, err := refine.NewRefiner(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *manifestPath != "" {
		runBatch(refiner, cfg, *manifestPath)
		return
	}

	view := models.View{
		ID:     strings.TrimSuffix(filepath.Base(*depthPath), filepath.Ext(*depthPath)),
		Depth:  *depthPath,
		Guide:  *guidePath,
		Output: *outputPath,
	}
	if view.Output == "" {
		view.Output = strings.TrimSuffix(*depthPath, filepath.Ext(*depthPath)) + "_refined.pfm"
	}

	startTime := time.Now()
	res, err := refiner.Process(view)
	if err != nil {
		log.Fatalf("Refinement failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nRefinement completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("Refined depth map saved to: %s\n\n", view.Output)
	printMetrics(res.Metrics)

	if cfg.Output.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", filepath.Join(cfg.Output.IntermediaryDir, view.ID))
	}
}

// runBatch refines every view of the manifest, printing progress while it runs.
func runBatch(refiner *refine.Refiner, cfg *config.Config, manifestPath string) {
	manifest, err := models.LoadManifest(manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}
	fmt.Printf("Refining %d views from %s\n", len(manifest.Views), manifestPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printer := progress.NewPrinter(os.Stdout, len(manifest.Views))
	if cfg.Progress.Enabled {
		printer.Start(ctx, cfg.Progress.Interval)
	}

	startTime := time.Now()
	_, err = refiner.RunBatch(ctx, manifest.Views, printer)
	printer.Stop()

	fmt.Printf("\nBatch finished in %.2f seconds, %d failed\n",
		time.Since(startTime).Seconds(), printer.Failures())
	if err != nil {
		log.Fatalf("Batch refinement failed: %v", err)
	}
}

func printMetrics(m refine.Metrics) {
	fmt.Printf("Refinement Metrics:\n")
	fmt.Printf("===================\n")
	fmt.Printf("Valid cells (input):  %d of %d (%.2f%%)\n", m.Input.ValidCells, m.Input.Cells, 100*m.Input.ValidRatio)
	fmt.Printf("Valid cells (output): %d of %d (%.2f%%)\n", m.Output.ValidCells, m.Output.Cells, 100*m.Output.ValidRatio)
	fmt.Printf("Depth range (output): %.4f .. %.4f (mean %.4f, std %.4f)\n",
		m.Output.Min, m.Output.Max, m.Output.Mean, m.Output.StdDev)
	fmt.Printf("RMSE vs input: %.6f over %d cells\n", m.RMSE, m.Compared)
	fmt.Printf("Filter time: %.3f seconds\n", m.Duration.Seconds())
}
