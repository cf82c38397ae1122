package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/nieveai/content-crew/internal/agents"
	"github.com/nieveai/content-crew/internal/app"
	"github.com/nieveai/content-crew/internal/config"
	"github.com/nieveai/content-crew/internal/database"
	amodels "github.com/nieveai/content-crew/internal/models"
	"github.com/nieveai/content-crew/internal/render"
)

const historyLimit = 50

func main() {
	cfg, err := config.LoadFromArgs(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	crew, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Error initializing content crew: %s", err)
	}
	defer crew.Close()

	refreshChan := make(chan bool, 1)

	a := fyneapp.New()
	w := a.NewWindow("Content Researcher & Writer")

	tabs := container.NewAppTabs()
	tabs.Append(container.NewTabItem("Generate", makeGenerateTab(crew, w, refreshChan)))
	tabs.Append(container.NewTabItem("History", makeHistoryTab(crew.Store, refreshChan)))

	w.SetContent(tabs)
	w.Resize(fyne.NewSize(1000, 800))
	w.ShowAndRun()
}

func makeGenerateTab(crew *app.App, window fyne.Window, refreshChan chan bool) fyne.CanvasObject {
	topicEntry := widget.NewMultiLineEntry()
	topicEntry.SetPlaceHolder("Enter the topic")
	topicEntry.SetMinRowsVisible(4)

	temperature := binding.NewFloat()
	temperature.Set(crew.Config.Temperature)
	slider := widget.NewSliderWithData(amodels.MinTemperature, amodels.MaxTemperature, temperature)
	slider.Step = 0.01
	tempLabel := widget.NewLabelWithData(binding.FloatToStringWithFormat(temperature, "Temperature: %.2f"))

	progress := widget.NewProgressBarInfinite()
	progress.Hide()
	statusLabel := widget.NewLabel("")
	statusLabel.Wrapping = fyne.TextWrapWord

	result := widget.NewRichTextFromMarkdown("")
	result.Wrapping = fyne.TextWrapWord
	resultScroll := container.NewScroll(result)

	var current *amodels.Run
	var generateButton, saveButton *widget.Button

	saveButton = widget.NewButton("Download Content", func() {
		if current == nil {
			return
		}
		run := current
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, window)
				return
			}
			if writer == nil {
				return
			}
			defer writer.Close()
			if _, err := writer.Write([]byte(run.Content)); err != nil {
				dialog.ShowError(err, window)
			}
		}, window)
		d.SetFileName(render.DeriveFilename(run.Topic))
		d.Show()
	})
	saveButton.Disable()

	generateButton = widget.NewButton("Generate Content", func() {
		topic := topicEntry.Text
		t, _ := temperature.Get()

		generateButton.Disable()
		saveButton.Disable()
		progress.Show()
		progress.Start()
		statusLabel.SetText("Generating content... This may take a moment.")

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), crew.Config.GenerationTimeout())
			defer cancel()
			ctx = agents.WithStepCallback(ctx, func(out *amodels.TaskOutput) {
				fyne.Do(func() { statusLabel.SetText(agents.StepMessage(out.Name)) })
			})
			run, err := crew.Pool.Generate(ctx, topic, t)

			fyne.Do(func() {
				progress.Stop()
				progress.Hide()
				generateButton.Enable()
				if err != nil {
					statusLabel.SetText(fmt.Sprintf("An error occurred: %s", err))
					return
				}
				current = run
				statusLabel.SetText("Generated Content")
				result.ParseMarkdown(run.Content)
				saveButton.Enable()
			})
			select {
			case refreshChan <- true:
			default:
			}
		}()
	})

	help := widget.NewAccordion(widget.NewAccordionItem("How to use", widget.NewLabel(
		"1. Enter your desired content topic\n"+
			"2. Play with the temperature\n"+
			"3. Click 'Generate Content' to start\n"+
			"4. Wait for the AI to generate your article\n"+
			"5. Download the content")))

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Content Setting", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Enter your topic"),
		topicEntry,
		widget.NewLabelWithStyle("LLM Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		tempLabel,
		slider,
		widget.NewSeparator(),
		help,
		generateButton,
	)

	header := container.NewVBox(
		widget.NewLabelWithStyle("Content Researcher & Writer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Generate blog posts about any topic using AI agents."),
		progress,
		statusLabel,
	)
	footer := widget.NewLabel("built with Go, Fyne and " + crew.Model.ModelID)

	body := container.NewBorder(header, container.NewVBox(saveButton, footer), nil, nil, resultScroll)
	split := container.NewHSplit(sidebar, body)
	split.Offset = 0.3
	return split
}

func makeHistoryTab(store database.Datastore, refreshChan chan bool) fyne.CanvasObject {
	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		log.Printf("Error loading runs from database: %s", err)
	}

	preview := widget.NewRichTextFromMarkdown("")
	preview.Wrapping = fyne.TextWrapWord

	columnWidths := []float32{220, 90, 60, 200}
	table := widget.NewTable(
		func() (int, int) {
			return len(runs) + 1, 4 // Add 1 for header row
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row == 0 {
				label.SetText([]string{"Topic", "Status", "Temp", "Created"}[id.Col])
				return
			}
			run := runs[id.Row-1]
			switch id.Col {
			case 0:
				label.SetText(run.Topic)
			case 1:
				label.SetText(string(run.Status))
			case 2:
				label.SetText(fmt.Sprintf("%.2f", run.Temperature))
			case 3:
				label.SetText(run.CreatedAt.Local().Format(time.RFC1123))
			}
		},
	)
	for i, width := range columnWidths {
		table.SetColumnWidth(i, width)
	}

	table.OnSelected = func(id widget.TableCellID) {
		if id.Row > 0 {
			run := runs[id.Row-1]
			if run.Error != "" {
				preview.ParseMarkdown("An error occurred: " + run.Error)
			} else {
				preview.ParseMarkdown(run.Content)
			}
		}
		table.Unselect(id)
	}

	go func() {
		for range refreshChan {
			newRuns, err := store.ListRuns(historyLimit)
			if err != nil {
				log.Printf("Error loading runs from database: %s", err)
				continue
			}
			fyne.Do(func() {
				runs = newRuns
				table.Refresh()
			})
		}
	}()

	refreshButton := widget.NewButton("Refresh", func() {
		select {
		case refreshChan <- true:
		default:
		}
	})

	split := container.NewVSplit(table, container.NewScroll(preview))
	split.Offset = 0.4
	return container.NewBorder(nil, refreshButton, nil, nil, split)
}
