package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nieveai/content-crew/internal/app"
	"github.com/nieveai/content-crew/internal/config"
	"github.com/nieveai/content-crew/internal/database"
	"github.com/nieveai/content-crew/internal/render"
	"github.com/nieveai/content-crew/internal/worker"
)

type Command func(args []string)

var (
	commands    map[string]Command
	temperature float64
	outputDir   = "."
	pending     sync.WaitGroup
)

func main() {
	cfg, err := config.LoadFromArgs(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	log.Printf("Starting controller with %d workers", cfg.Workers)
	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Error initializing content crew: %s", err)
	}
	defer a.Close()
	temperature = cfg.Temperature

	commands = map[string]Command{
		"/help": func(args []string) {
			fmt.Println("Available commands:")
			fmt.Println("  <topic> - Research and write a blog post about the topic")
			fmt.Println("  /temp [value] - Show or set the temperature (0 to 1)")
			fmt.Println("  /out <dir> - Write generated posts to dir")
			fmt.Println("  /list [n] - List recent runs")
			fmt.Println("  /show <run-id> - Print the post of a run")
			fmt.Println("  /help - Show this help message")
			fmt.Println("  /quit - Wait for running generations and exit")
		},
		"/temp": func(args []string) {
			if len(args) > 0 {
				temperature = config.ParseTemperature(args[0])
			}
			fmt.Printf("Temperature: %.2f\n", temperature)
		},
		"/out": func(args []string) {
			if len(args) == 0 {
				fmt.Printf("Output directory: %s\n", outputDir)
				return
			}
			if err := os.MkdirAll(args[0], 0o755); err != nil {
				fmt.Printf("Error creating directory: %s\n", err)
				return
			}
			outputDir = args[0]
		},
		"/list": func(args []string) {
			limit := 10
			if len(args) > 0 {
				fmt.Sscanf(args[0], "%d", &limit)
			}
			runs, err := a.Store.ListRuns(limit)
			if err != nil {
				fmt.Printf("Error listing runs: %s\n", err)
				return
			}
			if len(runs) == 0 {
				fmt.Println("No runs yet.")
				return
			}
			for _, run := range runs {
				fmt.Printf("  - %s [%s] %s (temperature %.2f, %d tokens)\n",
					run.ID, run.Status, run.Topic, run.Temperature, run.Usage.TotalTokens)
			}
		},
		"/show": func(args []string) {
			if len(args) == 0 {
				fmt.Println("Usage: /show <run-id>")
				return
			}
			run, err := a.Store.GetRun(args[0])
			if errors.Is(err, database.ErrRunNotFound) {
				fmt.Printf("Run with ID '%s' not found.\n", args[0])
				return
			}
			if err != nil {
				fmt.Printf("Error loading run: %s\n", err)
				return
			}
			if run.Error != "" {
				fmt.Printf("An error occurred: %s\n", run.Error)
				return
			}
			fmt.Println(render.Terminal(run.Content, 100))
		},
	}

	repl(os.Stdin, a.Pool)
	pending.Wait()
}

func repl(in io.Reader, pool *worker.Pool) {
	reader := bufio.NewReader(in)
	fmt.Println("Enter a topic to generate a blog post, or /help for commands:")

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch {
		case input == "":
		case input == "/quit":
			return
		case strings.HasPrefix(input, "/"):
			parts := strings.Fields(input)
			if cmd, ok := commands[parts[0]]; ok {
				cmd(parts[1:])
			} else {
				fmt.Println("Unknown command. Type /help for a list of commands.")
			}
		default:
			submit(pool, input)
		}

		if err != nil {
			// EOF: piped topics are processed in batch
			return
		}
	}
}

func submit(pool *worker.Pool, topic string) {
	done, err := pool.Submit(context.Background(), topic, temperature)
	if err != nil {
		fmt.Printf("Error submitting topic: %s\n", err)
		return
	}
	dir := outputDir
	fmt.Printf("Researching %q at temperature %.2f...\n", topic, temperature)

	pending.Add(1)
	go func() {
		defer pending.Done()
		res := <-done
		if res.Err != nil {
			fmt.Printf("\nAn error occurred for %q: %s\n", topic, res.Err)
			return
		}
		path := filepath.Join(dir, render.DeriveFilename(topic))
		if err := os.WriteFile(path, []byte(res.Run.Content), 0o644); err != nil {
			fmt.Printf("\nError writing %s: %s\n", path, err)
			return
		}
		fmt.Printf("\nRun %s finished: wrote %s\n", res.Run.ID, path)
	}()
}
