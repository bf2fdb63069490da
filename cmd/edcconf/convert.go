package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/botswana-harvard/edc-configuration/internal/client"
	"github.com/botswana-harvard/edc-configuration/internal/config"
	"github.com/botswana-harvard/edc-configuration/internal/convert"
	"github.com/botswana-harvard/edc-configuration/internal/ui"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:     "convert",
	Short:   "Run values through the configuration value codec",
	GroupID: "attributes",
}

var convertEncodeCmd = &cobra.Command{
	Use:   "encode <value>",
	Short: "Show the stored form of a hand-entered value",
	Args:  cobra.ExactArgs(1),
	Long: `Show the stored form of a hand-entered value.

With --server (HTTP transport) the server's codec, and so its time zone
setting, is used instead of the local one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverAddr != "" && transport == "http" {
			return runRemoteConversion(cmd, args[0])
		}
		return runConversion(cmd, args[0], encodeConversion)
	},
}

var convertDecodeCmd = &cobra.Command{
	Use:   "decode <stored>",
	Short: "Show the value a stored string decodes to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConversion(cmd, args[0], decodeConversion)
	},
}

func init() {
	for _, c := range []*cobra.Command{convertEncodeCmd, convertDecodeCmd} {
		c.Flags().Bool("no-convert", false, "treat the value as a plain string")
		convertCmd.AddCommand(c)
	}
}

// conversion is the result of running one value through the codec.
type conversion struct {
	Input   string       `json:"input"`
	Value   string       `json:"value"`
	Convert bool         `json:"convert"`
	Kind    convert.Kind `json:"kind"`
	Decoded any          `json:"decoded"`
}

// encodeConversion parses a hand-entered value and encodes the result.
func encodeConversion(codec *convert.Codec, input string, conv bool) conversion {
	v := codec.Decode(input, conv)
	encoded, conv := codec.Encode(v, conv)
	return conversion{Input: input, Value: encoded, Convert: conv, Kind: convert.KindOf(v), Decoded: v}
}

// decodeConversion decodes a stored string.
func decodeConversion(codec *convert.Codec, input string, conv bool) conversion {
	v := codec.Decode(input, conv)
	return conversion{Input: input, Value: input, Convert: conv, Kind: convert.KindOf(v), Decoded: v}
}

func runConversion(cmd *cobra.Command, input string, fn func(*convert.Codec, string, bool) conversion) error {
	noConvert, _ := cmd.Flags().GetBool("no-convert")
	ts, err := config.LoadTime()
	if err != nil {
		return err
	}
	c := fn(ts.Codec(), input, !noConvert)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	printConversion(cmd.OutOrStdout(), c)
	return nil
}

func runRemoteConversion(cmd *cobra.Command, input string) error {
	noConvert, _ := cmd.Flags().GetBool("no-convert")
	res, err := client.NewHTTPClient(serverAddr, authToken).Convert(cmd.Context(), input, !noConvert)
	if err != nil {
		return err
	}
	c := conversion{Input: input, Value: res.Value, Convert: res.Convert, Kind: res.Kind}
	if err := json.Unmarshal(res.Decoded, &c.Decoded); err != nil {
		return fmt.Errorf("decoding server response: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	printConversion(cmd.OutOrStdout(), c)
	return nil
}

func printConversion(w io.Writer, c conversion) {
	fmt.Fprintf(w, "Value:    %s\n", ui.RenderValue(c.Kind, c.Value))
	fmt.Fprintf(w, "Kind:     %s\n", c.Kind)
	fmt.Fprintf(w, "Convert:  %t\n", c.Convert)
	fmt.Fprintf(w, "Decoded:  %v\n", c.Decoded)
}
