package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

func banner() string {
	return figure.NewFigure("busdesk", "cybermedium", true).String()
}

func printHelp(out io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f5c542")).
		Bold(true).
		Render(banner())

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Provinces, cities, companies, routes, roles and users. One desk.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"busdesk", "Open the console (interactive TUI)"},
		{"busdesk login [email]", "Sign in; the password is read from stdin"},
		{"busdesk register [email] [name]", "Create an account and sign in"},
		{"busdesk logout", "End the session and forget the token"},
		{"busdesk check <email>", "Tell whether an account exists"},
		{"busdesk --version", "Show version"},
		{"busdesk help", "You are here"},
	}

	fmt.Fprintf(out, "\n%s\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Fprintf(out, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-32s", c.cmd)), descStyle.Render(c.desc))
	}

	env := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).
		Render("Settings: busdesk.yaml or BUSDESK_API_URL, BUSDESK_TOKEN, BUSDESK_LOG_LEVEL, BUSDESK_METRICS_ADDR")
	fmt.Fprintf(out, "\n  %s\n\n", env)
}
