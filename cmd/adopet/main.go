package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"adopet/internal/app"
	"adopet/internal/domain"
	"adopet/internal/engine"
	"adopet/internal/repo"
	"adopet/internal/scoring"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "adopet",
	Short: "Adopet CLI",
	Long: `Adopet connects pets held by shelters to people who want to adopt them.
- Shelters register pets; tutors register themselves.
- A tutor requests an adoption; eligibility rules decide whether it is admitted.
- The shelter approves or rejects the request; both parties are notified.
- Workspace: the .adopet directory holds the database; adopet.yml is optional.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := app.NewLogger(viper.GetString("log-level"), viper.GetString("log-format"))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("ADOPET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	for _, name := range []string{"workspace", "json", "log-level", "log-format"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(shelterCmd())
	rootCmd.AddCommand(petCmd())
	rootCmd.AddCommand(tutorCmd())
	rootCmd.AddCommand(adoptionCmd())
	rootCmd.AddCommand(notificationCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func shelterCmd() *cobra.Command {
	sh := &cobra.Command{Use: "shelter", Short: "Manage shelters"}
	sh.AddCommand(shelterCreateCmd())
	sh.AddCommand(shelterListCmd())
	sh.AddCommand(shelterPetsCmd())
	return sh
}

func shelterCreateCmd() *cobra.Command {
	var opts engine.ShelterOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a shelter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.RegisterShelter(ctx, opts)
				if err != nil {
					return err
				}
				return printShelters(s)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "shelter name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func shelterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shelters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListShelters(ctx)
				if err != nil {
					return err
				}
				return printShelters(items...)
			})
		},
	}
}

func shelterPetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pets <shelter-id-or-name>",
		Short: "List pets of a shelter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListShelterPets(ctx, args[0])
				if err != nil {
					return err
				}
				return printPets(items...)
			})
		},
	}
}

func petCmd() *cobra.Command {
	p := &cobra.Command{Use: "pet", Short: "Manage pets"}
	p.AddCommand(petCreateCmd())
	p.AddCommand(petListCmd())
	p.AddCommand(petScoreCmd())
	return p
}

func petCreateCmd() *cobra.Command {
	var (
		opts    engine.PetOptions
		petType string
	)
	cmd := &cobra.Command{
		Use:   "create <shelter-id-or-name>",
		Short: "Register a pet in a shelter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Type = domain.PetType(petType)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.RegisterPet(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printPets(p)
			})
		},
	}
	cmd.Flags().StringVar(&petType, "type", "", "dog or cat")
	cmd.Flags().StringVar(&opts.Name, "name", "", "pet name")
	cmd.Flags().StringVar(&opts.Breed, "breed", "", "breed")
	cmd.Flags().IntVar(&opts.Age, "age", 0, "age in whole years")
	cmd.Flags().StringVar(&opts.Color, "color", "", "color")
	cmd.Flags().Float64Var(&opts.Weight, "weight", 0, "weight in kg")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func petListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pets available for adoption",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListAvailablePets(ctx)
				if err != nil {
					return err
				}
				return printPets(items...)
			})
		},
	}
}

func petScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <pet-id>",
		Short: "Estimate how likely a pet is to be adopted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, score, err := e.PetProbability(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"pet_id": p.ID, "name": p.Name, "probability": score})
				}
				fmt.Printf("%s (%d years, %.1f kg): %s\n", p.Name, p.Age, p.Weight, score)
				return nil
			})
		},
	}
}

func tutorCmd() *cobra.Command {
	t := &cobra.Command{Use: "tutor", Short: "Manage tutors"}
	t.AddCommand(tutorCreateCmd())
	t.AddCommand(tutorUpdateCmd())
	return t
}

func tutorFlags(cmd *cobra.Command, opts *engine.TutorOptions) {
	cmd.Flags().StringVar(&opts.Name, "name", "", "tutor name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
}

func tutorCreateCmd() *cobra.Command {
	var opts engine.TutorOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a tutor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.RegisterTutor(ctx, opts)
				if err != nil {
					return err
				}
				return printTutor(t)
			})
		},
	}
	tutorFlags(cmd, &opts)
	return cmd
}

func tutorUpdateCmd() *cobra.Command {
	var opts engine.TutorOptions
	cmd := &cobra.Command{
		Use:   "update <tutor-id>",
		Short: "Replace a tutor's contact data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.UpdateTutor(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printTutor(t)
			})
		},
	}
	tutorFlags(cmd, &opts)
	return cmd
}

func adoptionCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "adoption",
		Short: "Request and evaluate adoptions",
		Long:  "Requests start awaiting evaluation and end approved or rejected. A pet or tutor can only have one request awaiting evaluation at a time.",
	}
	a.AddCommand(adoptionSolicitCmd())
	a.AddCommand(adoptionApproveCmd())
	a.AddCommand(adoptionRejectCmd())
	a.AddCommand(adoptionListCmd())
	a.AddCommand(adoptionShowCmd())
	return a
}

func adoptionSolicitCmd() *cobra.Command {
	var opts engine.SolicitOptions
	cmd := &cobra.Command{
		Use:   "solicit",
		Short: "Request the adoption of a pet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.Solicit(ctx, opts)
				if err != nil {
					return err
				}
				return printAdoptions(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.PetID, "pet", "", "pet id")
	cmd.Flags().StringVar(&opts.TutorID, "tutor", "", "tutor id")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "why the tutor wants the pet")
	_ = cmd.MarkFlagRequired("pet")
	_ = cmd.MarkFlagRequired("tutor")
	return cmd
}

func adoptionApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <adoption-id>",
		Short: "Approve a request awaiting evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.Approve(ctx, args[0])
				if err != nil {
					return err
				}
				return printAdoptions(a)
			})
		},
	}
}

func adoptionRejectCmd() *cobra.Command {
	var justification string
	cmd := &cobra.Command{
		Use:   "reject <adoption-id>",
		Short: "Reject a request awaiting evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.Reject(ctx, args[0], justification)
				if err != nil {
					return err
				}
				return printAdoptions(a)
			})
		},
	}
	cmd.Flags().StringVar(&justification, "justification", "", "why the request is rejected")
	return cmd
}

func adoptionListCmd() *cobra.Command {
	var (
		f      repo.AdoptionFilters
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List adoption requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.AdoptionStatus(status)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListAdoptions(ctx, f)
				if err != nil {
					return err
				}
				return printAdoptions(items...)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "awaiting_evaluation, approved or rejected")
	cmd.Flags().StringVar(&f.PetID, "pet", "", "pet id filter")
	cmd.Flags().StringVar(&f.TutorID, "tutor", "", "tutor id filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "maximum rows")
	return cmd
}

func adoptionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <adoption-id>",
		Short: "Show an adoption request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				a, err := e.GetAdoption(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
}

func notificationCmd() *cobra.Command {
	n := &cobra.Command{
		Use:   "notification",
		Short: "Inspect and deliver queued notifications",
	}
	n.AddCommand(notificationListCmd())
	n.AddCommand(notificationDispatchCmd())
	return n
}

func notificationListCmd() *cobra.Command {
	var adoptionID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListNotifications(ctx, adoptionID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Kind", "Adoption", "To", "Attempts", "Delivered", "Last error"})
				for _, n := range items {
					to := n.ShelterEmail
					if n.TutorEmail != "" {
						to = n.TutorEmail + ", " + to
					}
					delivered := ""
					if n.DeliveredAt != nil {
						delivered = *n.DeliveredAt
					}
					tw.AppendRow(table.Row{n.ID, n.Kind, n.AdoptionID, to, n.Attempts, delivered, n.LastError})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&adoptionID, "adoption", "", "adoption id filter")
	return cmd
}

func notificationDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver pending notifications once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				n, err := rt.Dispatcher().DispatchPending(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]int{"delivered": n})
				}
				fmt.Printf("delivered %d notification(s)\n", n)
				return nil
			})
		},
	}
}

// --- helpers ---

func withRuntime(ctx context.Context, fn func(context.Context, *app.Runtime) error) error {
	rt, err := app.Open(ctx, viper.GetString("workspace"), logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withRuntime(ctx, func(ctx context.Context, rt *app.Runtime) error {
		return fn(ctx, rt.Engine)
	})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printShelters(items ...domain.Shelter) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Phone", "Email"})
	for _, s := range items {
		tw.AppendRow(table.Row{s.ID, s.Name, s.Phone, s.Email})
	}
	tw.Render()
	return nil
}

func printPets(items ...domain.Pet) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Type", "Breed", "Age", "Weight", "Adopted", "Probability"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.Name, p.Type, p.Breed, p.Age, p.Weight, p.Adopted, scoring.Score(p)})
	}
	tw.Render()
	return nil
}

func printTutor(t domain.Tutor) error {
	if viper.GetBool("json") {
		return printJSON(t)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Phone", "Email"})
	tw.AppendRow(table.Row{t.ID, t.Name, t.Phone, t.Email})
	tw.Render()
	return nil
}

func printAdoptions(items ...domain.Adoption) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Pet", "Tutor", "Status", "Created", "Justification"})
	for _, a := range items {
		tw.AppendRow(table.Row{a.ID, a.PetID, a.TutorID, a.Status, a.CreatedAt, a.Justification})
	}
	tw.Render()
	return nil
}
