package main

import (
	"fmt"

	"github.com/botswana-harvard/edc-configuration/internal/client"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:     "get <attribute>",
	Short:   "Show an attribute and its decoded value",
	GroupID: "attributes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		attr, err := c.GetAttribute(cmd.Context(), args[0])
		if client.IsNotFound(err) {
			return fmt.Errorf("attribute %q not found", args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), attr)
		}
		printAttribute(cmd.OutOrStdout(), attr)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <attribute> <value>",
	Short: "Create or update an attribute",
	Long: `Create or update an attribute.

The value is read the way the configuration table stores it: True, False and
None, integers, decimals such as 2.50, dates (2017-06-01) and datetimes
(2017-06-01 10:30) keep their type. Anything else is stored as a string.
--no-convert stores the value as a string as typed.`,
	GroupID: "attributes",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		comment, _ := cmd.Flags().GetString("comment")
		noConvert, _ := cmd.Flags().GetBool("no-convert")

		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		conv := !noConvert
		attr, err := c.SetAttribute(cmd.Context(), args[0], &client.SetAttributeRequest{
			Category: category,
			Value:    args[1],
			Convert:  &conv,
			Comment:  comment,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), attr)
		}
		printAttribute(cmd.OutOrStdout(), attr)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <attribute>",
	Short:   "Delete an attribute",
	GroupID: "attributes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.DeleteAttribute(cmd.Context(), args[0]); err != nil {
			if client.IsNotFound(err) {
				return fmt.Errorf("attribute %q not found", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list [category]",
	Short:   "List attributes, optionally in one category",
	GroupID: "attributes",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var category string
		if len(args) == 1 {
			category = args[0]
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		attrs, err := c.ListAttributes(cmd.Context(), category)
		if err != nil {
			return err
		}
		if jsonOutput {
			if attrs == nil {
				attrs = []*client.Attribute{}
			}
			return printJSON(cmd.OutOrStdout(), attrs)
		}
		printAttributeTable(cmd.OutOrStdout(), attrs)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the server (or local store) is reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		status, err := c.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status)
		return nil
	},
}

func init() {
	setCmd.Flags().String("category", "", "category (required for a new attribute)")
	setCmd.Flags().String("comment", "", "comment (kept when empty)")
	setCmd.Flags().Bool("no-convert", false, "store the value as a string as typed")
}
