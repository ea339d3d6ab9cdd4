package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"field-data-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listProject string
	listKind    string
	clearYes    bool
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"record"},
	Short:   "Inspect and edit field records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records of the active project",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if listProject != "" {
			q.Set("project", listProject)
		}
		if listKind != "" {
			q.Set("kind", listKind)
		}
		path := "/record/v1"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		res, err := call[[]*dto.RecordResponse](client, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if len(res) == 0 {
			color.Yellow("No records")
			return nil
		}
		for _, r := range res {
			fmt.Printf("%-36s %-11s %s  %.6f,%.6f  %s\n",
				r.Id, r.Kind, r.Timestamp, r.Location.Latitude, r.Location.Longitude, summary(r))
		}
		return nil
	},
}

func summary(r *dto.RecordResponse) string {
	switch {
	case r.Measurement != nil:
		return fmt.Sprintf("strike %.0f dip %.0f", r.Measurement.Strike, r.Measurement.Dip)
	case strings.HasPrefix(r.Content, "data:"):
		if r.Metadata != nil && r.Metadata.Size != nil {
			return fmt.Sprintf("%d bytes", *r.Metadata.Size)
		}
		return ""
	default:
		if len(r.Content) > 40 {
			return r.Content[:40] + "..."
		}
		return r.Content
	}
}

var noteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Save a text note at the current location",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := call[*dto.RecordResponse](client, http.MethodPost, "/record/v1/note",
			dto.CreateNoteRequest{Content: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		ok("Saved note %s", res.Id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := call[any](client, http.MethodDelete, "/record/v1/"+args[0], nil); err != nil {
			return err
		}
		ok("Deleted %s", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record of every project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("this removes all records of all projects; pass --yes to confirm")
		}
		res, err := call[*dto.ClearRecordsResponse](client, http.MethodDelete, "/record/v1?confirm=true", nil)
		if err != nil {
			return err
		}
		ok("Removed %d records", res.Removed)
		return nil
	},
}

func init() {
	recordsListCmd.Flags().StringVar(&listProject, "project", "", "project id, defaults to the active project")
	recordsListCmd.Flags().StringVar(&listKind, "kind", "", "photo, video, audio, note or measurement")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deleting everything")

	recordsCmd.AddCommand(recordsListCmd, noteCmd, deleteCmd, clearCmd)
}
