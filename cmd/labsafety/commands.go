package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"labsafety/internal/domain"
	"labsafety/internal/retrieval"
	"labsafety/internal/service"
	"labsafety/internal/tui"
)

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with a safety summary panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(true); err != nil {
				return err
			}
			assistant, err := a.newAssistant(cmd.Context())
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.New(cmd.Context(), assistant), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func (a *app) askCmd() *cobra.Command {
	var asJSON, raw bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the assessment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			assistant, err := a.newAssistant(cmd.Context())
			if err != nil {
				return err
			}
			res, err := assistant.Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintln(out, res.Raw)
				return nil
			}
			if asJSON {
				return writeJSON(out, res.Assessment)
			}
			writeAssessment(out, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized assessment as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw model response")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run retrieval only, without calling the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			docs, err := a.loadDocuments(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := retrieval.NewEngine(docs, a.retrievalOptions())
			if err != nil {
				return err
			}
			if topK < 1 {
				topK = a.cfg.Retrieval.TopK
			}
			passages, err := engine.Search(strings.Join(args, " "), topK)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if passages == nil {
					passages = []domain.Passage{}
				}
				return writeJSON(out, passages)
			}
			if len(passages) == 0 {
				fmt.Fprintln(out, "No matching documents.")
				return nil
			}
			for i, p := range passages {
				fmt.Fprintf(out, "%d. %s  method=%s score=%.3f\n", i+1, p.Source, p.Method, p.Score)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "maximum number of passages (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print passages as JSON")
	return cmd
}

func (a *app) docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List loaded safety data sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			docs, err := a.loadDocuments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range docs {
				fmt.Fprintf(out, "%s\tcas=%s\tformula=%s\taliases=%d\n",
					d.Filename, orDash(d.CAS), orDash(d.Formula), len(d.Aliases))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAssessment(w io.Writer, res service.Result) {
	a := res.Assessment
	if a.ExplainShort.Value != "" {
		fmt.Fprintln(w, a.ExplainShort.Value)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, a.OfficialResponse.Value)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Confidence: %s\n", orDash(string(a.Confidence.Value)))
	if len(res.Retrieved) == 0 {
		fmt.Fprintln(w, "Sources: none")
		return
	}
	fmt.Fprintln(w, "Sources:")
	for _, p := range res.Retrieved {
		fmt.Fprintf(w, "  - %s (%s, %.3f)\n", p.Source, p.Method, p.Score)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
