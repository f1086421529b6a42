package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"shortform-pipeline/config"
	"shortform-pipeline/pipeline"
)

func main() {
	// Load .env (local dev only — CI injects real env vars)
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		articleID  = flag.Int("article", 0, "article ID for output naming")
		title      = flag.String("title", "", "article title")
		scriptFile = flag.String("script", "", "path to the script text file")
	)
	flag.Parse()

	if *title == "" || *scriptFile == "" {
		log.Fatal("usage: shortform -article <id> -title <title> -script <file> [-config config.yaml]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = config.Default()
		log.Printf("No %s found — using defaults", *configPath)
	}

	if err := os.MkdirAll(cfg.Paths.Output, 0755); err != nil {
		log.Fatalf("Failed to create output dir %s: %v", cfg.Paths.Output, err)
	}

	scriptBytes, err := os.ReadFile(*scriptFile)
	if err != nil {
		log.Fatalf("Failed to read script: %v", err)
	}

	result := pipeline.New(cfg).GenerateVideo(context.Background(), *articleID, *title, string(scriptBytes))

	// Persist the run result next to the video, teacher-state style.
	if data, err := json.MarshalIndent(result, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(cfg.Paths.Output, "last_run.json"), data, 0644)
	}

	if !result.OK() {
		log.Fatalf("❌ Pipeline failed: %s", result.FailureReason)
	}
	log.Printf("✅ Video ready: %s", filepath.Join(cfg.Paths.Output, result.OutputPath))
}
