package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fentz26/tempo/internal/models"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"templates"},
	Short:   "Manage routine templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateDelete,
}

var templateImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Create a template from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateImport,
}

func init() {
	templateCmd.AddCommand(templateListCmd, templateShowCmd, templateDeleteCmd, templateImportCmd)
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/templates")
	if err != nil {
		return err
	}

	var templates []models.Template
	if err := json.Unmarshal(resp, &templates); err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Println("No templates found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTASKS\tLENGTH\tUPDATED")
	for _, t := range templates {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			truncateID(t.ID), truncate(t.Name, 40), len(t.Tasks), templateLength(t.Tasks), humanize.Time(t.UpdatedAt))
	}
	w.Flush()
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/templates/" + args[0])
	if err != nil {
		return err
	}

	var t models.Template
	if err := json.Unmarshal(resp, &t); err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", t.ID)
	fmt.Printf("Name:        %s\n", t.Name)
	if t.Description != "" {
		fmt.Printf("Description: %s\n", t.Description)
	}
	fmt.Printf("Length:      %s\n", templateLength(t.Tasks))
	fmt.Printf("Created:     %s\n", t.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:     %s (%s)\n", t.UpdatedAt.Format(time.RFC3339), humanize.Time(t.UpdatedAt))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTASK\tDURATION\tPACE\tAUTO")
	for i, task := range t.Tasks {
		auto := ""
		if task.AutoAdvance {
			auto = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, task.Name,
			time.Duration(task.DurationMs)*time.Millisecond, paceLabel(task), auto)
		for _, st := range task.Subtasks {
			fmt.Fprintf(w, "\t  - %s\t\t\t\n", st.Text)
		}
	}
	w.Flush()
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	if _, err := apiDelete("/templates/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted template %s\n", args[0])
	return nil
}

func runTemplateImport(cmd *cobra.Command, args []string) error {
	tf, tasks, err := loadTemplateFile(args[0])
	if err != nil {
		return err
	}

	resp, err := apiPost("/templates", map[string]interface{}{
		"name":        tf.Name,
		"description": tf.Description,
		"tasks":       tasks,
	})
	if err != nil {
		return err
	}

	var t models.Template
	if err := json.Unmarshal(resp, &t); err != nil {
		return err
	}
	fmt.Printf("Created template %s (%s, %d tasks, %s)\n", t.Name, t.ID, len(t.Tasks), templateLength(t.Tasks))
	return nil
}

// paceLabel names the paces a task runs at.
func paceLabel(t models.TemplateTask) string {
	switch {
	case t.IncludedAtLow():
		return "all"
	case t.FlowOnlyExtra():
		return "flow"
	default:
		return "steady+"
	}
}

func templateLength(tasks []models.TemplateTask) string {
	var total int64
	for _, t := range tasks {
		total += t.DurationMs
	}
	return (time.Duration(total) * time.Millisecond).String()
}
