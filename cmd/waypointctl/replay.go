package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func init() {
	replayCmd := &cobra.Command{
		Use:   "replay CONVERSATION_ID",
		Short: "Generate and print a conversation replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("json")
			data, err := doGet(fmt.Sprintf("%s/api/conversations/%s/replay", apiFlag, args[0]))
			if err != nil {
				return err
			}
			if raw {
				_, _ = fmt.Fprintln(os.Stdout, string(data))
				return nil
			}
			printReplaySummary(data)
			return nil
		},
	}
	replayCmd.Flags().Bool("json", false, "Print the raw replay JSON")
	rootCmd.AddCommand(replayCmd)

	exportCmd := &cobra.Command{
		Use:   "export-example CONVERSATION_ID",
		Short: "Publish a conversation replay as a saved example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			category, _ := cmd.Flags().GetString("category")
			if title == "" {
				return fmt.Errorf("--title required")
			}

			payload := map[string]string{"title": title}
			if description != "" {
				payload["description"] = description
			}
			if category != "" {
				payload["category"] = category
			}
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			data, err := doPostJSON(
				fmt.Sprintf("%s/api/conversations/%s/example", apiFlag, args[0]), string(body))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	exportCmd.Flags().StringP("title", "t", "", "Example title (required)")
	exportCmd.Flags().StringP("description", "d", "", "Example description")
	exportCmd.Flags().StringP("category", "c", "", "Example category")
	_ = exportCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(exportCmd)

	examplesCmd := &cobra.Command{
		Use:   "examples",
		Short: "List saved examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag + "/api/examples")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(examplesCmd)
}

// printReplaySummary renders one line per snapshot: role, new-data counters
// and the map action, enough to eyeball a replay without reading JSON.
func printReplaySummary(data []byte) {
	states := gjson.GetBytes(data, "states")
	fmt.Fprintf(os.Stdout, "%d steps\n", len(states.Array()))
	states.ForEach(func(_, s gjson.Result) bool {
		line := fmt.Sprintf("%3d %-9s", s.Get("sequenceNumber").Int(), s.Get("message.role").String())
		if n := s.Get("uiHints.newData.providers.#").Int(); n > 0 {
			line += fmt.Sprintf(" +%d providers", n)
		}
		if n := s.Get("uiHints.newData.addresses.#").Int(); n > 0 {
			line += fmt.Sprintf(" +%d addresses", n)
		}
		if action := s.Get("uiHints.mapAction").String(); action != "" {
			line += " map:" + action
		}
		fmt.Fprintln(os.Stdout, line)
		return true
	})
}
