// Command pagecompose replays a scene script headlessly and exports the page.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"memento/internal/app"
	"memento/internal/config"
	"memento/internal/logging"
	"memento/internal/upload"
	"memento/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Configuration file")
	out := flag.String("o", "", "Write the exported PNG to this path")
	scale := flag.Float64("scale", 0, "Override the export scale")
	doUpload := flag.Bool("upload", false, "Upload the export to the configured directory")
	dataURL := flag.Bool("dataurl", false, "Print the export as a data URL")
	decode := flag.String("decode", "", "Decode a data URL file into a PNG at -o instead of replaying a scene")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *decode != "" {
		if err := decodeDataURL(*decode, *out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if flag.NArg() != 1 || (*out == "" && !*doUpload && !*dataURL) {
		fmt.Println("Usage: pagecompose [-config <file>] [-scale <n>] [-o <out.png>] [-upload] [-dataurl] <scene.yaml>")
		fmt.Println("       pagecompose -decode <dataurl.txt> -o <out.png>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *scale > 0 {
		cfg.Export.Scale = *scale
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scene := flag.Arg(0)
	// LoadScene installs the scene's own image directory.
	state, err := app.NewState(cfg, nil, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Replaying %s ===\n", scene)
	if err := state.LoadScene(ctx, scene); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scene: %v\n", err)
		os.Exit(1)
	}
	model := state.Model()
	fmt.Printf("Page %.0fx%.0f, %d elements, %d strokes\n",
		model.Bounds().Width, model.Bounds().Height, model.Len(), len(state.Controller().Ink().Strokes()))

	res, err := state.Export(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %dx%d, %d bytes\n", res.Width, res.Height, len(res.PNG))

	if *out != "" {
		if err := os.WriteFile(*out, res.PNG, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *out)
	}
	if *doUpload {
		url, err := state.Upload(ctx, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Upload failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Uploaded %s\n", url)
	}
	if *dataURL {
		fmt.Println(upload.EncodeDataURL(res.PNG))
	}
}

func decodeDataURL(in, out string) error {
	if out == "" {
		return fmt.Errorf("-decode needs -o")
	}
	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	data, err := upload.DecodeDataURL(strings.TrimSpace(string(raw)))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
	return nil
}
