package main

import (
	"fmt"
	"net/http"

	"field-data-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "List, create and switch projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, marking the active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := call[*dto.ProjectListResponse](client, http.MethodGet, "/project/v1", nil)
		if err != nil {
			return err
		}
		for _, p := range res.Projects {
			marker := " "
			if p.Id == res.ActiveId {
				marker = color.GreenString("*")
			}
			fmt.Printf("%s %-20s %s\n", marker, p.Id, p.Name)
		}
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := call[*dto.ProjectResponse](client, http.MethodPost, "/project/v1", dto.CreateProjectRequest{Name: args[0]})
		if err != nil {
			return err
		}
		ok("Created %s (%s), now active", res.Name, res.Id)
		return nil
	},
}

var projectsActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Switch the active project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := call[*dto.ProjectResponse](client, http.MethodPut, "/project/v1/"+args[0]+"/active", nil)
		if err != nil {
			return err
		}
		ok("Active project: %s", res.Name)
		return nil
	},
}

func init() {
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsActivateCmd)
}
