package main

import (
	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

// operator views every complaint; it is never persisted.
var operator = &models.User{ID: "admin-cli", Role: models.RoleGod}

var assignCmd = &cobra.Command{
	Use:   "assign <category> <kingId>",
	Short: "Make a king the sole owner of a category",
	Long: `Assign a category to a king. A king rules at most one category,
so any category the king held before is released.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssign(args[0], args[1])
	},
}

var unassignCmd = &cobra.Command{
	Use:   "unassign <category>",
	Short: "Remove the king from a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssign(args[0], models.Unassigned)
	},
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <complaintId> <status>",
	Short: "Move a complaint to a new status (Pending, Acknowledged, \"in progress\", Resolved, \"Not BMC\")",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetStatus,
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank kings by average resolution time",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

var createGodCmd = &cobra.Command{
	Use:   "create-god <email> <username>",
	Short: "Create an administrator with unrestricted access",
	Long: `Create a god account. The public sign-up only creates kings, so the
first administrator of a deployment is created here.`,
	Args: cobra.ExactArgs(2),
	RunE: runCreateGod,
}

var scoreCmd = &cobra.Command{
	Use:   "score <complaintId>",
	Short: "Print the current priority score of a complaint",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func runAssign(category, kingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	result, err := a.assignments.Assign(ctx, category, kingID)
	if err != nil {
		return err
	}
	if result.KingID == "" {
		fmt.Printf("Category %s has no king now.\n", result.Category)
		return nil
	}
	fmt.Printf("Category %s is now ruled by %s.\n", result.Category, result.KingID)
	if result.ReleasedCategory != "" {
		fmt.Printf("Released previous category %s.\n", result.ReleasedCategory)
	}
	return nil
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	actor, err := a.store.GetUserByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("actor %s: %w", actorID, err)
	}
	updated, err := a.complaints.UpdateStatus(ctx, actor, args[0], models.ComplaintStatus(args[1]))
	if err != nil {
		return err
	}
	fmt.Printf("Complaint %s is %s.\n", updated.ID, updated.Status)
	return nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	entries, err := a.dashboard.Leaderboard(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No kings yet.")
		return nil
	}
	fmt.Printf("%-5s %-24s %-9s %s\n", "RANK", "KING", "RESOLVED", "AVERAGE")
	fmt.Println(strings.Repeat("─", 56))
	for _, e := range entries {
		fmt.Printf("%-5d %-24s %-9d %s\n", e.Rank, e.Username, e.ResolvedCount, analysis.FormatDuration(e.AverageResolution))
	}
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	c, err := a.complaints.Get(ctx, operator, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Complaint %s (%s, %s): priority %d\n", c.ID, c.Category, c.Severity, c.PriorityScore)
	return nil
}

func runCreateGod(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if password == "" {
		password = os.Getenv("CIVICDESK_ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("password required (--password or CIVICDESK_ADMIN_PASSWORD)")
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	user, err := a.auth.CreateAdmin(ctx, auth.RegisterInput{
		Email:    args[0],
		Username: args[1],
		Password: password,
		Role:     models.RoleGod,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created god %s (%s).\n", user.Username, user.ID)
	return nil
}
