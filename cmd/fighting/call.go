package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buildwithgo/fighting/client"
	"github.com/spf13/cobra"
)

var (
	callHeaders []string
	callTimeout time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call URL PATH [JSON]",
	Short: "Call an action of a remote API",
	Long: `Call an action of a remote API and print the JSON result.

Examples:
  fighting call http://localhost:8080 /resource/action
  fighting call http://localhost:8080 /resource/action '{"name": "kk"}'
  fighting call -H "Authorization: Bearer $TOKEN" http://localhost:8080 /user/whoami`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringArrayVarP(&callHeaders, "header", "H", nil, "request header as 'Key: Value' (repeatable)")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 30*time.Second, "request timeout")
}

func runCall(cmd *cobra.Command, args []string) error {
	var data any
	if len(args) == 3 {
		if err := json.Unmarshal([]byte(args[2]), &data); err != nil {
			return fmt.Errorf("request data: %w", err)
		}
	}

	var opts []client.Option
	for _, h := range callHeaders {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("invalid header %q, expected 'Key: Value'", h)
		}
		opts = append(opts, client.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
	}

	ctx, cancel := contextWithTimeout(cmd, callTimeout)
	defer cancel()

	out, err := client.New(args[0], opts...).Post(ctx, args[1], data)
	if err != nil {
		var re *client.ResError
		if errors.As(err, &re) && re.Status != 0 {
			body, _ := json.Marshal(re.Message)
			return fmt.Errorf("%d %s", re.Status, body)
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
