// Package main provides the entry point for the Memento page editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"

	"memento/internal/app"
	"memento/internal/config"
	"memento/internal/image"
	"memento/internal/logging"
	"memento/internal/version"
	"memento/ui/mainwindow"
	"memento/ui/prefs"
)

func main() {
	configPath := flag.String("config", "", "Configuration file (default: memento.yaml in the working directory)")
	imagesDir := flag.String("images", "stickers", "Directory holding images and stickers")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting", "version", version.Version, "commit", version.GitCommit)

	fyneApp := fyneapp.NewWithID("com.memento.editor")
	fyneApp.Settings().SetTheme(&app.MementoTheme{})

	src := image.DirSource{Root: *imagesDir}
	appState, err := app.NewState(cfg, src, nil, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	appPrefs := prefs.Load()

	tray := app.NewTrayWatcher(src, src.Root, 2*time.Second, logger)
	tray.Start()
	defer tray.Stop()

	win := mainwindow.New(fyneApp, appState, appPrefs, tray)

	// Handle command line arguments
	if flag.NArg() > 0 {
		scenePath := flag.Arg(0)
		if err := appState.LoadScene(context.Background(), scenePath); err != nil {
			logger.Error("failed to load scene", "path", scenePath, "error", err)
		}
	}

	win.ShowAndRun()
	win.SavePreferences()
}
