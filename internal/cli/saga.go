package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewRunCmd создаёт команду запуска саги.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a saga from a workflow config file",
		Example: `  saga run -f order.json
  cat order.json | saga run -f -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			config, err := readConfig(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			exec, err := client.ExecuteSaga(config)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Saga %s finished: %s", exec.ID, exec.State))
			printExecution(out, exec)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Workflow config JSON file (- for stdin)")
	cmd.MarkFlagRequired("file")

	return cmd
}

// NewRetryCmd создаёт команду повтора одного шага.
func NewRetryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		file          string
		step          string
		channel       string
		priorAttempts int
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Retry a single step and send an escalation notification",
		Example: `  saga retry -f order.json --step payment --channel call
  saga retry -f order.json --step shipping --attempts 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			config, err := readConfig(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			res, err := client.RetryStep(RetryStepRequest{
				Step:          step,
				Channel:       channel,
				Config:        config,
				PriorAttempts: priorAttempts,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Step %s retried (attempt %d): %s",
				res.Step, res.Result.Attempt, statusLabel(res.Success)))
			out.Print(
				[]string{"STEP", "STATUS", "DETAIL"},
				[][]string{
					{res.Result.Step, statusLabel(res.Result.Success), stepDetail(res.Result)},
					{res.Escalation.Step, statusLabel(res.Escalation.Success), stepDetail(res.Escalation)},
				},
				res,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Workflow config JSON file (- for stdin)")
	cmd.Flags().StringVar(&step, "step", "", "Step to retry (order, currency_conversion, payment, shipping, email, sms)")
	cmd.Flags().StringVar(&channel, "channel", "", "Escalation channel (email, sms, call); email if not specified")
	cmd.Flags().IntVar(&priorAttempts, "attempts", 0, "Number of attempts already made for this step")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("step")

	return cmd
}

// NewShowCmd создаёт команду просмотра сохранённого прогона.
func NewShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SAGA_ID",
		Short: "Show a stored saga execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := clientFn().GetSaga(args[0])
			if err != nil {
				return err
			}

			printExecution(outputFn(), exec)
			return nil
		},
	}
}

// NewHistoryCmd создаёт команду просмотра истории клиента.
func NewHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history CUSTOMER_ID",
		Short: "List recent saga executions of a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			execs, err := clientFn().ListSagas(args[0], limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATE", "COMPLETION", "STEPS", "STARTED"}
			rows := make([][]string, len(execs))
			for i, e := range execs {
				rows[i] = []string{e.ID, e.State, rate(e.Summary), strconv.Itoa(len(e.Results)), ago(e.StartedAt)}
			}

			outputFn().Print(headers, rows, execs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

// printExecution выводит прогон: шапку и таблицу шагов.
func printExecution(out *Output, exec *ExecutionResponse) {
	if out.JSONMode() {
		out.JSON(exec)
		return
	}

	out.Line("ID:         %s", exec.ID)
	out.Line("Customer:   %s", exec.CustomerID)
	out.Line("State:      %s", exec.State)
	out.Line("Started:    %s (%s)", ago(exec.StartedAt), humanize.Comma(exec.DurationMs)+"ms")
	if exec.Summary != nil {
		out.Line("Completion: %s (%d/%d steps)", rate(exec.Summary), exec.Summary.SuccessfulSteps, exec.Summary.AttemptedSteps)
	}
	out.Line("")

	out.Table([]string{"STEP", "STATUS", "DETAIL"}, stepRows(exec.Results))
}

// readConfig читает JSON конфигурацию из файла или stdin ("-").
func readConfig(path string, stdin io.Reader) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("config %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
