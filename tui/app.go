// Package tui provides an interactive browser over count-mode results: a list
// of the five histograms and a key/count table for the selected one.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tracevis/tracevis/counter"
)

// App is the TUI application wrapping a finished count run.
type App struct {
	app    *tview.Application
	list   *tview.List
	table  *tview.Table
	status *tview.TextView

	hist *counter.Histograms
}

// NewApp builds the browser over the given histograms.
func NewApp(hist *counter.Histograms) *App {
	a := &App{
		app:  tview.NewApplication(),
		hist: hist,
	}

	a.list = tview.NewList().ShowSecondaryText(true)
	a.list.SetBorder(true).SetTitle(" Histograms ")
	for _, name := range counter.Names {
		name := name
		a.list.AddItem(name, fmt.Sprintf("%d keys", a.keyCount(name)), 0, func() {
			a.showHistogram(name)
		})
	}
	a.list.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		a.showHistogram(mainText)
	})

	a.table = tview.NewTable().SetBorders(false).SetSelectable(true, false)
	a.table.SetBorder(true).SetTitle(" Counts ")

	a.status = tview.NewTextView().SetDynamicColors(true)
	a.status.SetText(fmt.Sprintf(" %d records counted — arrows to browse, q to quit", hist.Total()))

	layout := tview.NewFlex().
		AddItem(a.list, 30, 0, true).
		AddItem(a.table, 0, 1, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(layout, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.app.SetRoot(root, true)
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			a.app.Stop()
			return nil
		case event.Key() == tcell.KeyTab:
			if a.app.GetFocus() == a.list {
				a.app.SetFocus(a.table)
			} else {
				a.app.SetFocus(a.list)
			}
			return nil
		}
		return event
	})

	a.showHistogram(counter.NameThreadId)
	return a
}

// Run blocks until the user quits.
func (a *App) Run() error {
	return a.app.Run()
}

func (a *App) keyCount(name string) int {
	switch name {
	case counter.NameThreadId:
		return len(a.hist.Tid)
	case counter.NameUnit:
		return len(a.hist.Unit)
	case counter.NameArea:
		return len(a.hist.Area)
	case counter.NameCluster:
		return len(a.hist.Cluster)
	case counter.NameQuad:
		return len(a.hist.Quad)
	}
	return 0
}

type row struct {
	key   string
	count int
}

func (a *App) rows(name string) []row {
	var rows []row
	switch name {
	case counter.NameThreadId:
		for k, v := range a.hist.Tid {
			rows = append(rows, row{fmt.Sprintf("%d", k), v})
		}
	case counter.NameUnit:
		for k, v := range a.hist.Unit {
			rows = append(rows, row{k, v})
		}
	case counter.NameArea:
		for k, v := range a.hist.Area {
			rows = append(rows, row{k, v})
		}
	case counter.NameCluster:
		for k, v := range a.hist.Cluster {
			rows = append(rows, row{k.String(), v})
		}
	case counter.NameQuad:
		for k, v := range a.hist.Quad {
			rows = append(rows, row{k.String(), v})
		}
	}

	// Highest counts first; ties by key for stability.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	return rows
}

func (a *App) showHistogram(name string) {
	a.table.Clear()
	a.table.SetTitle(fmt.Sprintf(" %s counts ", name))

	a.table.SetCell(0, 0, tview.NewTableCell("[::b]"+name).SetSelectable(false))
	a.table.SetCell(0, 1, tview.NewTableCell("[::b]count").
		SetAlign(tview.AlignRight).SetSelectable(false))

	for i, r := range a.rows(name) {
		a.table.SetCell(i+1, 0, tview.NewTableCell(strings.TrimSpace(r.key)))
		a.table.SetCell(i+1, 1, tview.NewTableCell(fmt.Sprintf("%d", r.count)).
			SetAlign(tview.AlignRight))
	}
	a.table.ScrollToBeginning()
}
