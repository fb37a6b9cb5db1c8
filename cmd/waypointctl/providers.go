package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	providersCmd := &cobra.Command{Use: "providers", Short: "Provider directory operations"}

	var typeFlag, routingFlag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List providers, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if typeFlag != "" {
				q.Set("type", typeFlag)
			}
			if routingFlag != "" {
				q.Set("routingType", routingFlag)
			}
			u := apiFlag + "/api/providers"
			if len(q) > 0 {
				u += "?" + q.Encode()
			}
			data, err := doGet(u)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Provider type filter")
	listCmd.Flags().StringVarP(&routingFlag, "routing", "r", "", "Routing type filter")
	providersCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get PROVIDER_ID",
		Short: "Get one provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/providers/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	providersCmd.AddCommand(getCmd)

	rootCmd.AddCommand(providersCmd)
}
