package signin

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/steamednotes/steamnotes/internal/styles"
)

// typewriterTickMsg advances the tagline by one character.
type typewriterTickMsg struct {
	Run  uint64
	Time time.Time
}

// typewriter reveals Text one rune per Speed, then blinks a cursor.
type typewriter struct {
	Text  string
	Speed time.Duration
	Blink time.Duration

	runes    []rune
	shown    int
	cursorOn bool
	run      uint64
}

func newTypewriter(text string, speed time.Duration) typewriter {
	return typewriter{Text: text, Speed: speed, Blink: 700 * time.Millisecond, runes: []rune(text)}
}

// Start rewinds the animation. Ticks from an earlier run are ignored.
func (t *typewriter) Start() tea.Cmd {
	t.run++
	t.shown = 0
	t.cursorOn = true
	return t.tick(t.Speed)
}

// Stop ends the animation; pending ticks are dropped.
func (t *typewriter) Stop() { t.run++ }

// Done reports whether the whole text is visible.
func (t *typewriter) Done() bool { return t.shown >= len(t.runes) }

func (t *typewriter) tick(d time.Duration) tea.Cmd {
	run := t.run
	return tea.Tick(d, func(now time.Time) tea.Msg {
		return typewriterTickMsg{Run: run, Time: now}
	})
}

// Update advances on its own ticks.
func (t *typewriter) Update(m typewriterTickMsg) tea.Cmd {
	if m.Run != t.run {
		return nil
	}
	if !t.Done() {
		t.shown++
		return t.tick(t.Speed)
	}
	t.cursorOn = !t.cursorOn
	return t.tick(t.Blink)
}

// View renders the revealed prefix and the cursor.
func (t typewriter) View() string {
	cursor := " "
	if t.cursorOn {
		cursor = "▏"
	}
	return styles.Logo.Render(string(t.runes[:t.shown])) + lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(cursor)
}
