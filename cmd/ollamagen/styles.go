package main

import "github.com/charmbracelet/lipgloss"

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	usageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
)
