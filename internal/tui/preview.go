package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chatstat/internal/index"
	"github.com/Zuo-Peng/chatstat/internal/render"
	"github.com/Zuo-Peng/chatstat/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	transcriptKey string
	msgID         int
	content       string
	hitLine       int
	err           error
}

// loadPreviewCmd renders the conversation around r off the UI goroutine.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderConversation(db, r.TranscriptKey, render.Options{
			HitMsgID: r.MsgID,
			Context:  -1,
			Width:    width,
			Query:    query,
		})
		return previewRenderedMsg{
			transcriptKey: r.TranscriptKey,
			msgID:         r.MsgID,
			content:       content,
			hitLine:       hitLine,
			err:           err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
