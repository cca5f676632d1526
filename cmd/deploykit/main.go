package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"deploykit/internal/app"
	errs "deploykit/internal/errors"
	"deploykit/internal/parser"
	"deploykit/pkg/playbook"
	"deploykit/pkg/runtime"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "deploykit",
	Short:   "DeployKit - Deployment bootstrap for web applications",
	Version: version,
	Long: `DeployKit prepares a web application's runtime environment before it
serves traffic: it installs declared dependencies, materializes static
assets, and brings the persisted schema up to the expected version.

The pipeline is fail-fast and every step is required to be idempotent,
so re-running after a failure is always safe.`,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run the complete bootstrap pipeline",
	Long: `Up executes the complete bootstrap pipeline in order: installing
dependencies, building static assets, and applying pending schema
migrations. The pipeline halts at the first failing step.

A state file records progress; re-running after a failure resumes from the
first incomplete step.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		retainState, _ := cmd.Flags().GetBool("retain-state")

		err := app.Up(context.Background(), app.Options{
			PlaybookPath: file,
			DryRun:       dryRun,
			RetainState:  retainState,
		})
		if err != nil {
			errs.HandleError(err)
			os.Exit(errs.ExitCode(err))
		}
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install declared dependencies",
	Long: `Install runs only the dependency install step: it invokes the
configured package tool against the playbook's manifest. The underlying
tool is a no-op when the environment is already satisfied.`,
	Run: func(cmd *cobra.Command, args []string) {
		pb := mustParse(cmd)

		fmt.Printf("Installing dependencies for: %s\n", pb.Metadata.Name)

		factory := app.NewCollaboratorFactory()
		executor := mustExecutor(factory, &pb.Spec)

		installer, err := factory.GetInstaller(pb.Spec.Dependencies.Tool, executor)
		if err != nil {
			fail(err)
		}
		if err := installer.Install(context.Background(), &pb.Spec); err != nil {
			fail(err)
		}

		fmt.Printf("Dependencies installed from: %s\n", pb.Spec.Dependencies.Manifest)
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Build static assets",
	Long: `Assets runs only the static asset build step: it materializes the
application's assets into the destination directory with a deterministic
overwrite, so repeated runs converge on the same result.`,
	Run: func(cmd *cobra.Command, args []string) {
		pb := mustParse(cmd)
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		fmt.Printf("Building assets for: %s\n", pb.Metadata.Name)

		factory := app.NewCollaboratorFactory()
		executor := mustExecutor(factory, &pb.Spec)

		builder, err := factory.GetBuilder(pb.Spec.Assets.Builder, executor)
		if err != nil {
			fail(err)
		}
		if err := builder.Build(context.Background(), &pb.Spec, dryRun); err != nil {
			fail(err)
		}

		if dryRun {
			fmt.Println("Dry run completed successfully.")
		} else {
			fmt.Println("Assets built successfully.")
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Migrate runs only the schema migration step: it applies pending
migrations in order against the target database. Already-applied
migrations are skipped, so repeated runs are safe.`,
	Run: func(cmd *cobra.Command, args []string) {
		pb := mustParse(cmd)

		fmt.Printf("Applying schema migrations for: %s\n", pb.Metadata.Name)

		factory := app.NewCollaboratorFactory()
		executor := mustExecutor(factory, &pb.Spec)

		migrator, err := factory.GetMigrator(pb.Spec.Database.Migrator, executor)
		if err != nil {
			fail(err)
		}
		if err := migrator.Migrate(context.Background(), &pb.Spec); err != nil {
			fail(err)
		}

		fmt.Println("Schema is up to date.")
	},
}

// mustParse parses the playbook named by --file or exits.
func mustParse(cmd *cobra.Command) *playbook.Playbook {
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file flag is required")
		os.Exit(1)
	}

	pb, err := parser.Parse(file)
	if err != nil {
		fail(err)
	}
	return pb
}

// mustExecutor builds the configured execution runtime or exits.
func mustExecutor(factory *app.CollaboratorFactory, spec *playbook.Spec) runtime.Executor {
	executor, err := factory.GetExecutor(spec)
	if err != nil {
		fail(err)
	}
	return executor
}

func fail(err error) {
	errs.HandleError(err)
	os.Exit(errs.ExitCode(err))
}

func init() {
	upCmd.Flags().StringP("file", "f", "", "Path to the playbook YAML file (required)")
	upCmd.Flags().Bool("dry-run", false, "Simulate the pipeline without making any changes")
	upCmd.Flags().Bool("retain-state", false, "Keep the state file after successful completion for auditing purposes")
	if err := upCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for up command", "error", err)
	}
	rootCmd.AddCommand(upCmd)

	installCmd.Flags().StringP("file", "f", "", "Path to the playbook YAML file (required)")
	if err := installCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for install command", "error", err)
	}
	rootCmd.AddCommand(installCmd)

	assetsCmd.Flags().StringP("file", "f", "", "Path to the playbook YAML file (required)")
	assetsCmd.Flags().Bool("dry-run", false, "Print files that would be written without actually writing them")
	if err := assetsCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for assets command", "error", err)
	}
	rootCmd.AddCommand(assetsCmd)

	migrateCmd.Flags().StringP("file", "f", "", "Path to the playbook YAML file (required)")
	if err := migrateCmd.MarkFlagRequired("file"); err != nil {
		slog.Error("Failed to mark file flag as required for migrate command", "error", err)
	}
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
