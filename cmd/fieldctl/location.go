package main

import (
	"fmt"
	"net/http"
	"strconv"

	"field-data-be/internal/dto"

	"github.com/spf13/cobra"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Show or report the current position",
}

var locationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the most recent reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := call[*dto.LocationResponse](client, http.MethodGet, "/location/v1", nil)
		if err != nil {
			return err
		}
		fmt.Printf("%.6f, %.6f (±%.0fm) at %s\n", res.Latitude, res.Longitude, res.Accuracy, res.Timestamp.Format("15:04:05"))
		return nil
	},
}

var locationSetCmd = &cobra.Command{
	Use:   "set <latitude> <longitude>",
	Short: "Report a position reading",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("latitude: %w", err)
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("longitude: %w", err)
		}

		res, err := call[*dto.LocationResponse](client, http.MethodPost, "/location/v1",
			dto.ReportLocationRequest{Latitude: lat, Longitude: lon})
		if err != nil {
			return err
		}
		ok("Location set to %.6f, %.6f", res.Latitude, res.Longitude)
		return nil
	},
}

func init() {
	locationCmd.AddCommand(locationShowCmd, locationSetCmd)
}
