package main

import (
	"context"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nieveai/content-crew/internal/app"
	"github.com/nieveai/content-crew/internal/config"
	"github.com/nieveai/content-crew/internal/logging"
	"github.com/nieveai/content-crew/internal/tui"
)

func main() {
	cfg, err := config.LoadFromArgs(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	// the screen belongs to the UI, logs go to a file
	logFile, err := tea.LogToFile("content-crew-tui.log", "")
	if err != nil {
		log.Fatalf("Error opening log file: %s", err)
	}
	defer logFile.Close()
	logging.SetOutput(logFile)

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Error initializing content crew: %s", err)
	}
	defer a.Close()

	p := tea.NewProgram(tui.New(a.Pool.Generate, "."), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("Error running UI: %s", err)
	}
}
