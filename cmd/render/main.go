package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"renderbot/internal/infra"
	"renderbot/internal/pipeline"
	"renderbot/internal/render"
	"renderbot/internal/storage"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	var (
		promptFlag string
		styleFlag  string
		outFlag    string
		statusOnly bool
	)
	flag.StringVar(&promptFlag, "prompt", "", "Image description, in English")
	flag.StringVar(&styleFlag, "style", "", fmt.Sprintf("Style qualifier, e.g. %s", strings.Join(render.StylePresets(), ", ")))
	flag.StringVar(&outFlag, "out", "", "Directory for the image (defaults to STORAGE_PATH)")
	flag.BoolVar(&statusOnly, "status", false, "Only check the render service and exit")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "render").Logger()

	client, err := render.NewClient(render.OptionsFromConfig(cfg, &logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure render client: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if statusOnly {
		health := client.CheckHealth(ctx)
		fmt.Println(health.Summary())
		if !health.Available {
			os.Exit(1)
		}
		return
	}

	prompt := strings.TrimSpace(promptFlag)
	if prompt == "" {
		prompt = strings.TrimSpace(strings.Join(flag.Args(), " "))
	}
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "a prompt is required via -prompt or arguments")
		os.Exit(2)
	}

	outDir := strings.TrimSpace(outFlag)
	if outDir == "" {
		outDir = cfg.StoragePath
	}
	store, err := storage.NewFileStore(outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure storage: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %q (style: %s)\n", prompt, styleOrDefault(styleFlag))
	res := pipeline.NewRunner(client, &logger).Run(ctx, prompt, styleFlag, func(percent int) {
		fmt.Printf("\rprogress: %3d%%", percent)
	})
	fmt.Println()
	if res.Status != pipeline.StatusReady {
		fmt.Fprintf(os.Stderr, "render %s: %s\n", res.Status, res.Message)
		os.Exit(1)
	}

	key, err := store.Write(ctx, storage.ImageKey(res.JobID, res.Image), res.Image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to save image: %v\n", err)
		os.Exit(1)
	}
	path, _ := store.Path(key)
	fmt.Printf("Done in %s: %s\n", res.Duration.Round(time.Second), path)
}

func styleOrDefault(style string) string {
	if q := render.StyleQualifier(style); q != "" {
		return q
	}
	return "none"
}
