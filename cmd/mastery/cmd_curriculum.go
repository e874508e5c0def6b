package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	cli "github.com/urfave/cli/v3"
)

var stateIcons = map[string]string{
	"completed": "✓",
	"available": "○",
	"locked":    "🔒",
}

func curriculumCmd() *cli.Command {
	return &cli.Command{
		Name:  "curriculum",
		Usage: "List challenges by week with their state",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "week", Aliases: []string{"w"}, Usage: "Only show this week"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := requireDaemon(ctx)
			if err != nil {
				return err
			}

			var resp curriculumResponse
			if err := c.get(ctx, "/v1/curriculum", &resp); err != nil {
				return fmt.Errorf("get curriculum: %w", err)
			}

			only := int(cmd.Int("week"))
			for _, wp := range resp.Weeks {
				if only > 0 && wp.Week != only {
					continue
				}
				fmt.Printf("\nWeek %d %s %d%% (%d/%d)\n", wp.Week, renderProgressBar(wp.Percentage, 20),
					wp.Percentage, wp.Completed, wp.Total)
				fmt.Println(strings.Repeat("-", 40))
				for _, ch := range resp.Challenges {
					if ch.Week != wp.Week {
						continue
					}
					fmt.Printf("  %s Day %d  %-28s %s\n", stateIcons[ch.State], ch.Day, ch.Title, ch.ID)
				}
			}

			fmt.Printf("\nOverall %s %d%%\n", renderProgressBar(resp.Overall, 20), resp.Overall)
			return nil
		},
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a challenge",
		ArgsUsage: "<challenge-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("challenge id argument is required")
			}

			c, err := requireDaemon(ctx)
			if err != nil {
				return err
			}

			var ch challenge
			if err := c.get(ctx, "/v1/challenges/"+url.PathEscape(id), &ch); err != nil {
				return err
			}
			printChallenge(&ch)
			return nil
		},
	}
}

func printChallenge(ch *challenge) {
	fmt.Printf("%s %s\n", stateIcons[ch.State], ch.Title)
	if ch.Subtitle != "" {
		fmt.Println(ch.Subtitle)
	}
	fmt.Printf("Week %d, Day %d · %s · %s · ~%d min · %d hints\n\n",
		ch.Week, ch.Day, ch.Category, ch.Difficulty, ch.EstimatedTime, ch.HintCount)

	fmt.Println(ch.Description)
	fmt.Printf("\nObjective: %s\n", ch.LearningObjective)
	fmt.Printf("Concept:   %s\n", ch.Concept)

	if ch.StarterCode != "" {
		fmt.Println("\nStarter code:")
		fmt.Println(indent(ch.StarterCode, "    "))
	}
	if ch.RealWorldUse != "" {
		fmt.Printf("\nIn the real world: %s\n", ch.RealWorldUse)
	}
	if ch.AICollaborationTip != "" {
		fmt.Printf("Working with AI:   %s\n", ch.AICollaborationTip)
	}

	if len(ch.Requires) > 0 {
		fmt.Printf("\nRequires: %s\n", strings.Join(ch.Requires, ", "))
	}
	if len(ch.Unlocks) > 0 {
		fmt.Printf("Unlocks:  %s\n", strings.Join(ch.Unlocks, ", "))
	}
	if ch.State == "locked" {
		fmt.Println("\nComplete the required challenges to open this one.")
	}
}

func progressCmd() *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Show completed challenges and what is next",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := requireDaemon(ctx)
			if err != nil {
				return err
			}

			var prog progressResponse
			if err := c.get(ctx, "/v1/progress", &prog); err != nil {
				return fmt.Errorf("get progress: %w", err)
			}
			var cur curriculumResponse
			if err := c.get(ctx, "/v1/curriculum", &cur); err != nil {
				return fmt.Errorf("get curriculum: %w", err)
			}

			fmt.Println("Learning Progress")
			fmt.Println("=================")
			fmt.Printf("Started:   %s\n", prog.Progress.StartedAt.Local().Format("2006-01-02"))
			fmt.Printf("Completed: %d/%d\n", prog.Completed, prog.Total)
			fmt.Printf("Overall:   %s %d%%\n\n", renderProgressBar(prog.Overall, 20), prog.Overall)

			for _, wp := range cur.Weeks {
				fmt.Printf("Week %d     %s %d%%\n", wp.Week, renderProgressBar(wp.Percentage, 20), wp.Percentage)
			}

			if prog.Next != "" {
				fmt.Printf("\nNext up: %s (mastery show %s)\n", prog.Next, prog.Next)
			} else if prog.Completed > 0 {
				fmt.Println("\nAll challenges complete.")
			}
			if prog.PersistError != "" {
				fmt.Printf("\n⚠ Progress could not be saved: %s\n", prog.PersistError)
			}
			return nil
		},
	}
}

func tipCmd() *cli.Command {
	return &cli.Command{
		Name:  "tip",
		Usage: "Show a random AI collaboration tip",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := requireDaemon(ctx)
			if err != nil {
				return err
			}

			var resp struct {
				Tip       string `json:"tip"`
				RealWorld *struct {
					Concept string `json:"concept"`
					Tip     string `json:"tip"`
					Reality string `json:"reality"`
				} `json:"real_world,omitempty"`
			}
			if err := c.get(ctx, "/v1/tips/random", &resp); err != nil {
				return fmt.Errorf("get tip: %w", err)
			}

			fmt.Printf("💡 %s\n", resp.Tip)
			if rw := resp.RealWorld; rw != nil {
				fmt.Printf("\n%s: %s\n", rw.Concept, rw.Tip)
				if rw.Reality != "" {
					fmt.Printf("Reality: %s\n", rw.Reality)
				}
			}
			return nil
		},
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
