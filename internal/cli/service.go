package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewServicesCmd создаёт команду списка провайдеров шагов.
func NewServicesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List step providers and their counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := clientFn().ListServices()
			if err != nil {
				return err
			}

			headers := []string{"STEP", "TITLE", "POLICY", "CALLS", "RETRYABLE"}
			rows := make([][]string, len(services))
			for i, s := range services {
				rows[i] = []string{s.Step, s.Title, s.Policy, humanize.Comma(s.Calls), strconv.FormatBool(s.Retryable)}
			}

			outputFn().Print(headers, rows, services)
			return nil
		},
	}
}

// NewResetCmd создаёт команду сброса счётчиков и квоты оплаты.
func NewResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset provider counters and the payment quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := clientFn().ResetServices()
			if err != nil {
				return err
			}

			out := outputFn()
			if out.JSONMode() {
				out.JSON(res)
				return nil
			}
			out.Success(fmt.Sprintf("Counters reset at %s", res.ResetAt.Format("2006-01-02 15:04:05")))
			return nil
		},
	}
}
