package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/space-runner/internal/questions"
	"github.com/vovakirdan/space-runner/internal/quiz"
	"github.com/vovakirdan/space-runner/internal/registry"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List subjects and question providers",
	Long: `Shows the subject catalogue by level and grade, the registered question
providers, and which subjects the question bank covers.`,
	Args: cobra.NoArgs,
	Run:  runSubjects,
}

func init() {
	subjectsCmd.Flags().StringVar(&flagBank, "bank", "", "Path to a YAML question bank (default: built-in bank)")
}

func runSubjects(_ *cobra.Command, _ []string) {
	fmt.Println("Subjects:")
	for _, level := range quiz.Catalogue {
		fmt.Println()
		fmt.Printf("  %s (grades %s)\n", level.Name, strings.Join(level.Grades, ", "))
		for _, c := range level.Categories {
			fmt.Printf("    %-18s %s\n", c.Name, strings.Join(c.Subjects, ", "))
		}
	}

	providers := registry.List()
	fmt.Println()
	fmt.Println("Question providers:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, p := range providers {
		if len(p.ID) > maxIDLen {
			maxIDLen = len(p.ID)
		}
	}
	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")
	for _, p := range providers {
		fmt.Printf("  %-*s  %s\n", maxIDLen, p.ID, p.Title)
	}

	bank, err := questions.NewBankProvider(flagBank, 1)
	if err != nil {
		fmt.Println()
		fmt.Printf("Question bank unavailable: %v\n", err)
		return
	}
	fmt.Println()
	fmt.Println("Question bank:")
	for _, s := range bank.Subjects() {
		grade := s.Grade
		if grade == questions.AnyGrade {
			grade = "any grade"
		}
		fmt.Printf("  %-22s %-10s %d questions\n", s.Subject, grade, len(s.Questions))
	}
	fmt.Println()
	fmt.Println("Run 'spacerunner play --subject <name> --grade <grade>' to start.")
}
