package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	cli "github.com/urfave/cli/v3"
)

var verdictIcons = map[string]string{
	"PASS":    "✓",
	"FAIL":    "✗",
	"PARTIAL": "◐",
	"ERROR":   "⚠",
}

func submitCmd() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit a file as the solution to a challenge",
		ArgsUsage: "<challenge-id> <file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("usage: mastery submit <challenge-id> <file>")
			}
			id, path := cmd.Args().Get(0), cmd.Args().Get(1)

			code, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read submission: %w", err)
			}

			c, err := requireDaemon(ctx)
			if err != nil {
				return err
			}

			fb, persistErr, err := submit(ctx, c, id, string(code))
			if err != nil {
				return err
			}
			printFeedback(fb)
			if persistErr != "" {
				fmt.Printf("\n⚠ Passed, but progress could not be saved: %s\n", persistErr)
			}

			if fb.Verdict == "PASS" {
				var ch challenge
				if err := c.get(ctx, "/v1/challenges/"+id, &ch); err == nil && len(ch.Unlocks) > 0 {
					fmt.Println("\nNow open:")
					for _, next := range ch.Unlocks {
						fmt.Printf("  %s\n", next)
					}
				}
			}
			return nil
		},
	}
}

// submit runs one throwaway session: create, load the buffer, evaluate,
// delete.
func submit(ctx context.Context, c *client, challengeID, code string) (*feedback, string, error) {
	var sess sessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]string{"challenge_id": challengeID}, &sess)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
		return nil, "", fmt.Errorf("%s is locked; complete its required challenges first", challengeID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("start session: %w", err)
	}
	defer c.do(context.WithoutCancel(ctx), http.MethodDelete, "/v1/sessions/"+sess.ID, nil, nil)

	path := "/v1/sessions/" + sess.ID
	if err := c.do(ctx, http.MethodPut, path+"/buffer", map[string]string{"code": code}, nil); err != nil {
		return nil, "", fmt.Errorf("upload code: %w", err)
	}

	fmt.Print("Evaluating...")
	if err := c.do(ctx, http.MethodPost, path+"/submit", nil, &sess); err != nil {
		fmt.Println()
		return nil, "", fmt.Errorf("submit: %w", err)
	}
	fmt.Println()

	if sess.Feedback == nil {
		return nil, "", fmt.Errorf("daemon returned no feedback")
	}
	return sess.Feedback, sess.PersistError, nil
}

func printFeedback(fb *feedback) {
	fmt.Printf("\n%s %s\n\n", verdictIcons[fb.Verdict], fb.Headline)
	fmt.Println(fb.Message)
	if fb.Diagnostic != "" {
		fmt.Printf("\n(%s error: %s)\n", fb.Diagnostic, fb.Detail)
	}
}
