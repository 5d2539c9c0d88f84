package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// sessionDone reports one finished session to the monitor.
type sessionDone struct {
	Name  string
	Turns int64
	Err   error
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForSession(done chan sessionDone) tea.Cmd {
	return func() tea.Msg {
		return <-done
	}
}

// model shows replay throughput and spatial query totals. It never renders the board.
type model struct {
	stats     *counters
	snap      statsSnapshot
	startTime time.Time
	recent    []string
	done      chan sessionDone
	onQuit    func()
}

type statsSnapshot struct {
	games, skipped, failed, turns, rows, batches int64
	approaches, pathable, obstructed, drifting  int64
}

func initialModel(stats *counters, done chan sessionDone, onQuit func()) model {
	return model{
		stats:     stats,
		startTime: time.Now(),
		done:      done,
		onQuit:    onQuit,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForSession(m.done), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	case TickMsg:
		m.snap = statsSnapshot{
			games:      m.stats.Games.Load(),
			skipped:    m.stats.Skipped.Load(),
			failed:     m.stats.Failed.Load(),
			turns:      m.stats.Turns.Load(),
			rows:       m.stats.Rows.Load(),
			batches:    m.stats.Batches.Load(),
			approaches: m.stats.Approaches.Load(),
			pathable:   m.stats.Pathable.Load(),
			obstructed: m.stats.Obstructed.Load(),
			drifting:   m.stats.Drifting.Load(),
		}
		return m, tickCmd()
	case sessionDone:
		line := fmt.Sprintf("%s: %d turns", msg.Name, msg.Turns)
		if msg.Err != nil {
			line = fmt.Sprintf("%s: %v", msg.Name, msg.Err)
		}
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > 10 {
			m.recent = m.recent[:10]
		}
		return m, waitForSession(m.done)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	turnsPerSec := float64(m.snap.turns) / duration.Seconds()
	if duration.Seconds() < 1 {
		turnsPerSec = 0
	}
	pathablePct := 0.0
	if m.snap.approaches > 0 {
		pathablePct = 100 * float64(m.snap.pathable) / float64(m.snap.approaches)
	}

	s := fmt.Sprintf("Games Archived: %d (skipped %d, failed %d)\n", m.snap.games, m.snap.skipped, m.snap.failed)
	s += fmt.Sprintf("Turns:          %d\n", m.snap.turns)
	s += fmt.Sprintf("Rows:           %d in %d batches\n", m.snap.rows, m.snap.batches)
	s += fmt.Sprintf("Duration:       %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Turns/Sec:      %.2f\n\n", turnsPerSec)

	s += fmt.Sprintf("Approaches:     %d\n", m.snap.approaches)
	s += fmt.Sprintf("Pathable:       %d (%.1f%%)\n", m.snap.pathable, pathablePct)
	s += fmt.Sprintf("Obstructed:     %d\n", m.snap.obstructed)
	s += fmt.Sprintf("Drifting Ships: %d\n\n", m.snap.drifting)

	s += "Recent Sessions:\n"
	for _, g := range m.recent {
		s += g + "\n"
	}

	s += "\nPress q to quit.\n"
	return s
}
