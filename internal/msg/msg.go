package msg

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastMsg displays a temporary message.
type ToastMsg struct {
	Message  string
	Duration time.Duration
	IsError  bool // true for error toasts (red), false for success (green)
}

// ShowToast returns a command to show a toast message.
func ShowToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{
			Message:  message,
			Duration: duration,
		}
	}
}

// ShowErrorToast returns a command to show an error toast.
func ShowErrorToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{
			Message:  message,
			Duration: duration,
			IsError:  true,
		}
	}
}

// NavigateMsg asks the app router to switch to Path.
type NavigateMsg struct {
	Path string
}

// Navigate returns a command that routes to path.
func Navigate(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}

// Router routes through NavigateMsg. Screens hand it to components that
// need programmatic navigation.
type Router struct{}

// Navigate implements editor.Router.
func (Router) Navigate(path string) tea.Cmd { return Navigate(path) }

// SignedInMsg reports a successful sign-in.
type SignedInMsg struct {
	Email string
}

// SessionExpiredMsg reports a 401 from the API. The app signs out and
// routes to the sign-in screen.
type SessionExpiredMsg struct{}

// LogoutMsg asks the app to sign out.
type LogoutMsg struct{}
