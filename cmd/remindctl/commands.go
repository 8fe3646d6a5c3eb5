package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/spherelog/spherelog/internal/model"
	"github.com/spherelog/spherelog/internal/reminder"
)

func client() *resty.Client {
	return resty.New().SetBaseURL(apiFlag).SetTimeout(10 * time.Second)
}

func checkResp(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %s", resp.Status(), resp.String())
	}
	return nil
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reminder templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tpls []model.Template
			resp, err := client().R().SetResult(&tpls).Get("/api/templates")
			if err := checkResp(resp, err); err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEVERY\tAT\tCONDITION")
			for _, t := range tpls {
				fmt.Fprintf(w, "%s\t%s\t%dd\t%s\t%s\n", t.ID, t.Name, t.FrequencyDays, t.TimeOfDay, t.Condition)
			}
			return w.Flush()
		},
	}
}

func templatesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reminder template",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			days, _ := cmd.Flags().GetInt("days")
			at, _ := cmd.Flags().GetString("at")
			condition, _ := cmd.Flags().GetString("condition")

			tpl := model.Template{
				Name:          name,
				FrequencyDays: days,
				TimeOfDay:     at,
				Condition:     model.Condition(condition),
			}
			var out model.Template
			resp, err := client().R().SetBody(tpl).SetResult(&out).Post("/api/templates")
			if err := checkResp(resp, err); err != nil {
				return err
			}
			fmt.Println(out.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Display name (required)")
	cmd.Flags().Int("days", 7, "Repeat interval in days")
	cmd.Flags().String("at", "08:00", "Time of day, HH:mm")
	cmd.Flags().String("condition", "none", "Condition")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func templatesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a reminder template (cascades into assignments)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().R().Delete("/api/templates/" + args[0])
			return checkResp(resp, err)
		},
	}
}

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <sphere> <entity-id>",
		Short: "Assign a template to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			templateID, _ := cmd.Flags().GetString("template")
			choice := model.EntityChoice{Kind: model.ChoiceTemplate, TemplateID: templateID}
			resp, err := client().R().
				SetBody(choice).
				Put(fmt.Sprintf("/api/assignments/%s/entities/%s", args[0], args[1]))
			return checkResp(resp, err)
		},
	}
	cmd.Flags().StringP("template", "t", "", "Template ID (required)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func disableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <sphere> <entity-id>",
		Short: "Disable reminders for an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			choice := model.EntityChoice{Kind: model.ChoiceNone}
			resp, err := client().R().
				SetBody(choice).
				Put(fmt.Sprintf("/api/assignments/%s/entities/%s", args[0], args[1]))
			return checkResp(resp, err)
		},
	}
}

func refreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Trigger a reschedule pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			url := "/api/scheduler/refresh"
			if force {
				url += "?force=true"
			}
			var st reminder.Status
			resp, err := client().R().SetResult(&st).Post(url)
			if err := checkResp(resp, err); err != nil {
				return err
			}
			return printStatus(st)
		},
	}
	cmd.Flags().Bool("force", false, "Reschedule even if nothing changed")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var st reminder.Status
			resp, err := client().R().SetResult(&st).Get("/api/scheduler/status")
			if err := checkResp(resp, err); err != nil {
				return err
			}
			return printStatus(st)
		},
	}
}

func printStatus(st reminder.Status) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
