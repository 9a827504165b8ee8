package ui

import "github.com/charmbracelet/lipgloss"

// Spotify green for headings, then success, failure, warning and muted text.
var styles = newPalette("#1DB954", "#04B575", "#FF5F57", "#FFA500", "#626262")

// Palette renders text in the TUI's colors. Commands use it too so their summaries match.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func newPalette(title, ok, fail, warn, muted string) *Palette {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return &Palette{
		title: fg(title).Bold(true).MarginBottom(1),
		ok:    fg(ok).Bold(true),
		err:   fg(fail).Bold(true),
		warn:  fg(warn),
		help:  fg(muted).Italic(true),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }

// Styles returns the shared palette.
func Styles() *Palette { return styles }
