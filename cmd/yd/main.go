package main

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"yd-go/internal/app"
	"yd-go/internal/config"
	"yd-go/internal/yd"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var verbose bool

// newApp reads the config and creates a YDApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "list", "export").
func newApp(command string) (*app.YDApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewYDApp(cfg, command, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// fail records err in the session log and hands it back to cobra.
func fail(a *app.YDApp, err error) error {
	if err != nil {
		a.Fail(err)
	}
	return err
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func readPassphrase(prompt string) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", fmt.Errorf("a terminal is required to enter the passphrase")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

func printDrawing(d yd.Drawing) {
	fmt.Printf("%s  %s  %s  %s\n",
		d.ID,
		d.Updated().Format("2006-01-02 15:04:05"),
		humanSize(len(d.Data)),
		d.Name,
	)
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%5.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%5.1fK", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%5dB", n)
}

var rootCmd = &cobra.Command{
	Use:          "yd",
	Short:        "Drawing library and editor",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		author, _ := cmd.Flags().GetString("author")
		if author == "" {
			if u, err := user.Current(); err == nil {
				author = u.Username
			}
		}

		cfg := config.NewConfig(author, defaults["base_dir"])
		cfg.LogDir = defaults["log_dir"]
		cfg.Fonts.Dir = defaults["fonts_dir"]

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Author:   %s\n", author)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Author:    %s\n", cfg.Author)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Storage:   %s (quota %d bytes)\n", cfg.Storage.Type, cfg.Storage.Quota())
		fmt.Printf("Canvas:    %dx%d\n", cfg.Editor.Width, cfg.Editor.Height)
		fmt.Printf("Export:    %s x%g\n", cfg.Export.Format, cfg.Export.Scale)
		fmt.Printf("Fonts Dir: %s\n", cfg.Fonts.Dir)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List drawings, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("list")
		if err != nil {
			return err
		}
		defer a.Close()

		drawings, err := a.List()
		if err != nil {
			return fail(a, err)
		}
		if len(drawings) == 0 {
			fmt.Println("No drawings.")
			return nil
		}
		for _, d := range drawings {
			printDrawing(d)
		}
		return nil
	},
}

// new command
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty drawing",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("new")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.NewDrawing(name)
		if err != nil {
			return fail(a, fmt.Errorf("creating drawing: %w", err))
		}
		fmt.Printf("Created %s (%s)\n", d.ID, d.Name)
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a drawing's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("show")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Show(args[0])
		if err != nil {
			return fail(a, err)
		}
		fmt.Printf("ID:        %s\n", d.ID)
		fmt.Printf("Name:      %s\n", d.Name)
		fmt.Printf("Created:   %s\n", d.Created().Format(time.RFC3339))
		fmt.Printf("Updated:   %s\n", d.Updated().Format(time.RFC3339))
		fmt.Printf("Size:      %s\n", strings.TrimSpace(humanSize(len(d.Data))))
		fmt.Printf("Thumbnail: %s\n", strings.TrimSpace(humanSize(len(d.Thumbnail))))
		return nil
	},
}

// rename command
var renameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a drawing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("rename")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Rename(args[0], args[1])
		if err != nil {
			return fail(a, err)
		}
		fmt.Printf("Renamed %s to %s\n", d.ID, d.Name)
		return nil
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a drawing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("delete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Delete(args[0]); err != nil {
			return fail(a, err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a .yrd file into the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("import")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ImportFile(args[0], func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
		if err != nil {
			return fail(a, fmt.Errorf("importing %s: %w", args[0], err))
		}
		fmt.Printf("Imported %s (%s)\n", d.ID, d.Name)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a drawing as yrd, png or jpeg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req app.ExportRequest
		req.Format, _ = cmd.Flags().GetString("format")
		req.Background, _ = cmd.Flags().GetString("background")
		req.Scale, _ = cmd.Flags().GetFloat64("scale")
		req.Quality, _ = cmd.Flags().GetInt("quality")
		req.Encrypt, _ = cmd.Flags().GetBool("encrypt")
		out, _ := cmd.Flags().GetString("out")
		toClipboard, _ := cmd.Flags().GetBool("clipboard")

		a, err := newApp("export")
		if err != nil {
			return err
		}
		defer a.Close()

		data, name, err := a.Export(args[0], req)
		if err != nil {
			return fail(a, fmt.Errorf("exporting: %w", err))
		}

		if toClipboard {
			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
			if err := a.CopyToClipboard(data, format); err != nil {
				return fail(a, fmt.Errorf("copying to clipboard: %w", err))
			}
			fmt.Printf("Copied %s to the clipboard\n", name)
			return nil
		}

		if out == "-" {
			_, err := os.Stdout.Write(data)
			return fail(a, err)
		}
		if out == "" {
			out = name
		}
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			out = filepath.Join(out, name)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fail(a, fmt.Errorf("writing %s: %w", out, err))
		}
		fmt.Printf("Exported %s\n", out)
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit ID|new",
	Short: "Edit a drawing with line commands",
	Long: "Reads editor commands from --script or standard input, one per line.\n" +
		"Changes are autosaved while the session runs. Type help in a session for the command list.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, _ := cmd.Flags().GetString("script")

		var in io.Reader = os.Stdin
		interactive := isTerminal(os.Stdin)
		if script != "" {
			f, err := os.Open(script)
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer f.Close()
			in = f
			interactive = false
		}

		a, err := newApp("edit")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Edit(args[0], in, os.Stdout, interactive)
		if d.ID != "" && d.Data != "" {
			fmt.Printf("Saved %s (%s)\n", d.ID, d.Name)
		}
		return fail(a, err)
	},
}

// font command
var fontCmd = &cobra.Command{
	Use:   "font",
	Short: "Manage fonts",
}

var fontAddCmd = &cobra.Command{
	Use:   "add NAME FILE",
	Short: "Register a TTF/OTF font under a family name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("font add")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddFont(args[0], args[1]); err != nil {
			return fail(a, fmt.Errorf("adding font: %w", err))
		}
		fmt.Printf("Added font %s\n", args[0])
		return nil
	},
}

var fontListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered font families",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("font list")
		if err != nil {
			return err
		}
		defer a.Close()

		families := a.Fonts()
		if len(families) == 0 {
			fmt.Println("No fonts registered; text uses the built-in Go fonts.")
			return nil
		}
		for _, f := range families {
			fmt.Println(f)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the key pair used for encrypted exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys init")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return fail(a, err)
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return fail(a, err)
		}
		if pass != confirm {
			return fail(a, fmt.Errorf("passphrases do not match"))
		}
		if pass == "" {
			return fail(a, fmt.Errorf("passphrase cannot be empty"))
		}

		if err := a.InitKeys(pass); err != nil {
			return fail(a, err)
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also log to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("author", "", "Author recorded in exported files (default: current user)")

	// font subcommands
	fontCmd.AddCommand(fontAddCmd)
	fontCmd.AddCommand(fontListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringP("name", "n", "", "Drawing name (default: dated)")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "", "yrd, png or jpeg (default from config)")
	exportCmd.Flags().String("background", "", "transparent or white")
	exportCmd.Flags().Float64("scale", 0, "Output pixels per canvas unit")
	exportCmd.Flags().Int("quality", 0, "JPEG quality 1-100")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt yrd output with the configured keys")
	exportCmd.Flags().StringP("out", "o", "", "Output file or directory, - for stdout")
	exportCmd.Flags().Bool("clipboard", false, "Copy to the clipboard instead of writing a file")
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringP("script", "s", "", "Read commands from a file")
	rootCmd.AddCommand(fontCmd)
	rootCmd.AddCommand(keysCmd)
}
