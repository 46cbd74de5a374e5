package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vendorhub/internal/app"
	"vendorhub/internal/auth"
	"vendorhub/internal/config"
	"vendorhub/internal/domain"
	"vendorhub/internal/escalation"
	"vendorhub/internal/services"
	"vendorhub/internal/store"
)

const closeTimeout = 30 * time.Second

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vendorctl",
		Short:         "vendorctl - vendorhub support query admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `vendorctl manages the vendorhub database: accounts, vendors, and the
escalation sweep that moves unanswered queries up the support tiers.`,
	}
	root.AddCommand(createAdminCmd())
	root.AddCommand(seedVendorCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(queriesCmd())
	return root
}

// withApp loads config, wires the application, runs fn and shuts down cleanly
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	runErr := fn(context.Background(), a)

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// cliPrincipal is the operator identity used for admin-only service calls
var cliPrincipal = &auth.Principal{Username: "vendorctl", Role: domain.RoleAdmin}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			fullName, _ := cmd.Flags().GetString("full-name")
			password := os.Getenv("VENDORCTL_ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("VENDORCTL_ADMIN_PASSWORD must be set")
			}

			return withApp(func(ctx context.Context, a *app.App) error {
				payload := &services.CreateUserPayload{
					Username: username,
					Email:    email,
					Password: password,
					Role:     domain.RoleAdmin,
				}
				if fullName != "" {
					payload.FullName = &fullName
				}
				user, err := a.Auth.CreateUser(ctx, payload)
				if err != nil {
					return fmt.Errorf("failed to create admin: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (id=%d)\n", color.New(color.FgGreen).Sprint("CREATED"), user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("username", "admin", "Admin username")
	cmd.Flags().String("email", "", "Admin email address")
	cmd.Flags().String("full-name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func seedVendorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-vendor [name]",
		Short: "Add a vendor listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			city, _ := cmd.Flags().GetString("city")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")

			return withApp(func(ctx context.Context, a *app.App) error {
				p := &services.VendorPayload{Name: args[0], Category: category, City: city, Email: email}
				if phone != "" {
					p.Phone = &phone
				}
				v, err := a.Vendors.Create(ctx, p)
				if err != nil {
					return fmt.Errorf("failed to create vendor: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s vendor %s (id=%d)\n", color.New(color.FgGreen).Sprint("CREATED"), v.Name, v.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("category", "", "Vendor category (e.g. photography, decor)")
	cmd.Flags().String("city", "", "City")
	cmd.Flags().String("email", "", "Contact email")
	cmd.Flags().String("phone", "", "Contact phone")
	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one escalation sweep now",
		Long:  "Reconciles missing inquiry projections, then evaluates every unresolved query once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			return withApp(func(ctx context.Context, a *app.App) error {
				report, err := a.Cron.EscalationCheck(ctx, time.Now().UTC())
				if err != nil {
					return fmt.Errorf("sweep failed: %w", err)
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print the sweep report as JSON")
	return cmd
}

func printReport(out io.Writer, r *escalation.SweepReport) {
	outcome := color.New(color.FgGreen).Sprint("COMPLETED")
	if r.Partial() {
		outcome = color.New(color.FgYellow).Sprint("PARTIAL")
	}
	fmt.Fprintf(out, "Sweep %s %s\n", r.SweepID, outcome)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  scanned\t%d\n", r.Scanned)
	fmt.Fprintf(w, "  escalated\t%d\n", r.Escalated)
	fmt.Fprintf(w, "  stale\t%d\n", r.Stale)
	fmt.Fprintf(w, "  conflicts\t%d\n", r.Conflicts)
	fmt.Fprintf(w, "  deferred\t%d\n", r.Deferred)
	fmt.Fprintf(w, "  notification failures\t%d\n", r.NotificationFailures)
	w.Flush()

	for _, e := range r.Errors {
		fmt.Fprintf(out, "  %s query %d: %s\n", color.New(color.FgRed).Sprint("ERROR"), e.QueryID, e.Error)
	}
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Create missing query records for vendor inquiries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(func(ctx context.Context, a *app.App) error {
				n, err := a.Queries.ReconcileInquiries(ctx, limit)
				if err != nil {
					return fmt.Errorf("reconcile failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d inquiries\n", n)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 100, "Maximum inquiries to repair")
	return cmd
}

func queriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "List support queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			level, _ := cmd.Flags().GetString("level")
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(func(ctx context.Context, a *app.App) error {
				queries, err := a.Queries.List(ctx, cliPrincipal, store.QueryFilter{
					Status:          domain.QueryStatus(strings.ToUpper(status)),
					EscalationLevel: domain.EscalationLevel(strings.ToUpper(level)),
					Limit:           limit,
				})
				if err != nil {
					return fmt.Errorf("failed to list queries: %w", err)
				}
				if len(queries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No queries found.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tLEVEL\tEMAIL\tCREATED")
				fmt.Fprintln(w, "--\t------\t------\t-----\t-----\t-------")
				for _, q := range queries {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						q.ID, q.Source, statusColor(q.Status), q.EscalationLevel, q.Email, q.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().String("status", "", "Filter by status (PENDING, RESPONDED, RESOLVED)")
	cmd.Flags().String("level", "", "Filter by escalation level")
	cmd.Flags().Int("limit", 50, "Maximum rows")
	return cmd
}

func statusColor(s domain.QueryStatus) string {
	switch s {
	case domain.StatusPending:
		return color.New(color.FgYellow).Sprint(s)
	case domain.StatusResolved:
		return color.New(color.FgGreen).Sprint(s)
	}
	return string(s)
}
