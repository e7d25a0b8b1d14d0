package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"cleanfs/internal/app"
	"cleanfs/internal/cleanfs"
	"cleanfs/internal/config"
	"cleanfs/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var ownerFlag string

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run (e.g. "Upload").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation, ownerFlag)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var rootCmd = &cobra.Command{
	Use:   "cleanfs",
	Short: "Personal cloud file manager",
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

		ownerID := ownerFlag
		if ownerID == "" {
			ownerID = uuid.New().String()
		}

		cfg := config.NewConfig(ownerID, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Owner ID: %s\n", ownerID)
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
		fmt.Printf("Owner ID:  %s\n", cfg.OwnerID)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		fmt.Printf("Blob:      %s\n", cfg.Blob.Type)
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls [PATH]",
	Short: "List a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListChildren")
		if err != nil {
			return err
		}
		defer a.Close()

		path := "/"
		if len(args) > 0 {
			path = args[0]
		}

		files, dirs, err := a.ListChildren(path)
		if err != nil {
			return err
		}

		sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
		sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

		for _, d := range dirs {
			fmt.Printf("d %10s  %s/\n", "-", d.Name)
		}
		for _, f := range files {
			fmt.Printf("- %10d  %s\n", f.Size, f.Name)
		}
		if len(dirs) == 0 && len(files) == 0 {
			fmt.Println("(empty)")
		}
		return nil
	},
}

// mkdir command
var mkdirCmd = &cobra.Command{
	Use:   "mkdir PATH",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CreateDirectory")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.CreateDirectory(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", entry.Path())
		return nil
	},
}

// put command
var putCmd = &cobra.Command{
	Use:   "put LOCALFILE [REMOTEDIR]",
	Short: "Upload a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Upload")
		if err != nil {
			return err
		}
		defer a.Close()

		remoteDir := "/"
		if len(args) > 1 {
			remoteDir = args[1]
		}

		var compress *bool
		if cmd.Flags().Changed("compress") {
			v, _ := cmd.Flags().GetBool("compress")
			compress = &v
		}

		entry, err := a.Upload(args[0], remoteDir, compress)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded %s (%d bytes)\n", entry.Path(), entry.Size)
		return nil
	},
}

// get command
var getCmd = &cobra.Command{
	Use:   "get PATH",
	Short: "Download a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp("Download")
		if err != nil {
			return err
		}
		defer a.Close()

		if output == "-" {
			_, err := a.Download(args[0], os.Stdout)
			return err
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()

		entry, err := a.Download(args[0], f)
		if err != nil {
			os.Remove(output)
			return err
		}
		fmt.Printf("Downloaded %s (%d bytes) to %s\n", entry.Name, entry.Size, output)
		return nil
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Delete a file or directory (recursively)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		a, err := newApp("Remove")
		if err != nil {
			return err
		}
		defer a.Close()

		onProgress := func(status string) {
			if !quiet {
				fmt.Println(status)
			}
		}
		if err := a.Remove(args[0], onProgress); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// rename command
var renameCmd = &cobra.Command{
	Use:   "rename PATH NEWNAME",
	Short: "Rename a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Rename")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.Rename(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Renamed to %s\n", entry.Path())
		return nil
	},
}

// zip command
var zipCmd = &cobra.Command{
	Use:   "zip PATH...",
	Short: "Bundle files and directories into a zip archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		base, _ := cmd.Flags().GetString("base")

		a, err := newApp("DownloadAsZip")
		if err != nil {
			return err
		}
		defer a.Close()

		data, name, err := a.Zip(args, base)
		if err != nil {
			return err
		}
		if output == "" {
			output = name
		}
		if err := writeOutput(output, data); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
		if output != "-" {
			fmt.Printf("Wrote %s (%d bytes)\n", output, len(data))
		}
		return nil
	},
}

// usage command
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show storage usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("StorageUsage")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Usage()
		if err != nil {
			return err
		}

		fmt.Printf("Total: %d bytes\n", report.TotalBytes)
		for _, c := range report.Categories {
			fmt.Printf("%-10s %d bytes\n", c.Name, c.Bytes)
		}
		return nil
	},
}

// recent command
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently updated files",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("RecentFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.RecentFiles(limit)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No files.")
			return nil
		}
		for _, f := range files {
			fmt.Printf("%s  %10d  %s\n", f.UpdatedAt.Format("2006-01-02 15:04:05"), f.Size, f.Path())
		}
		return nil
	},
}

// share command
var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage share links",
}

var shareCreateCmd = &cobra.Command{
	Use:   "create PATH",
	Short: "Create a share link for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expires, _ := cmd.Flags().GetDuration("expires")
		withPassword, _ := cmd.Flags().GetBool("password")

		var password string
		if withPassword {
			pw, err := promptPassword("Share password: ")
			if err != nil {
				return err
			}
			password = pw
		}

		a, err := newApp("ShareCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		share, err := a.ShareCreate(args[0], expires, password)
		if err != nil {
			return err
		}

		fmt.Printf("Share token: %s\n", share.ID)
		if share.ExpiresAt != nil {
			fmt.Printf("Expires:     %s\n", share.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Println("Expires:     never")
		}
		return nil
	},
}

var shareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List share links",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShareList")
		if err != nil {
			return err
		}
		defer a.Close()

		shares, err := a.ShareList()
		if err != nil {
			return err
		}
		if len(shares) == 0 {
			fmt.Println("No share links.")
			return nil
		}
		for _, s := range shares {
			expiry := "never"
			if s.ExpiresAt != nil {
				expiry = s.ExpiresAt.Format("2006-01-02 15:04")
			}
			locked := " "
			if s.PasswordHash != "" {
				locked = "*"
			}
			fmt.Printf("%s %s  expires:%-16s  accesses:%d\n", locked, s.ID, expiry, s.AccessCount)
		}
		return nil
	},
}

var shareRmCmd = &cobra.Command{
	Use:   "rm TOKEN",
	Short: "Delete a share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShareDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ShareDelete(args[0]); err != nil {
			return err
		}
		fmt.Println("Share deleted.")
		return nil
	},
}

var shareGetCmd = &cobra.Command{
	Use:   "get TOKEN",
	Short: "Resolve a share link and download the file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp("ShareResolve")
		if err != nil {
			return err
		}
		defer a.Close()

		resolve := func(password string) (*model.Entry, error) {
			if output == "" {
				file, _, err := a.ShareResolve(args[0], password, nil)
				return file, err
			}
			f, err := os.Create(output)
			if err != nil {
				return nil, fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			file, _, err := a.ShareResolve(args[0], password, f)
			if err != nil {
				os.Remove(output)
			}
			return file, err
		}

		file, err := resolve("")
		if errors.Is(err, cleanfs.ErrPasswordRequired) {
			pw, perr := promptPassword("Password: ")
			if perr != nil {
				return perr
			}
			file, err = resolve(pw)
		}
		if err != nil {
			return err
		}

		if output != "" {
			fmt.Printf("Downloaded %s (%d bytes) to %s\n", file.Name, file.Size, output)
		} else {
			fmt.Printf("%s  %d bytes  %s\n", file.Name, file.Size, file.MimeType)
		}
		return nil
	},
}

// settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage preferences",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "View preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SettingsGet")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.SettingsGet()
		if err != nil {
			return err
		}
		fmt.Printf("Theme:            %s\n", s.Theme)
		fmt.Printf("Notifications:    %t\n", s.Notifications)
		fmt.Printf("Compress uploads: %t\n", s.CompressUploads)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SettingsUpdate")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.SettingsGet()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("theme") {
			s.Theme, _ = cmd.Flags().GetString("theme")
		}
		if cmd.Flags().Changed("notifications") {
			s.Notifications, _ = cmd.Flags().GetBool("notifications")
		}
		if cmd.Flags().Changed("compress") {
			s.CompressUploads, _ = cmd.Flags().GetBool("compress")
		}
		if err := a.SettingsUpdate(s); err != nil {
			return err
		}
		fmt.Println("Settings updated.")
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage namespace backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a backup of the whole namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.BackupCreate()
		if err != nil {
			return err
		}
		fmt.Printf("Backup %s recorded (%d files, %d directories, %d bytes)\n",
			b.ID, b.FileCount, b.DirectoryCount, b.TotalSize)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupList")
		if err != nil {
			return err
		}
		defer a.Close()

		backups, err := a.BackupList()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("No backups recorded.")
			return nil
		}
		for _, b := range backups {
			fmt.Printf("%s  %s  %-10s  %d files  %d bytes\n",
				b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Status, b.FileCount, b.TotalSize)
		}
		return nil
	},
}

var backupDownloadCmd = &cobra.Command{
	Use:   "download ID",
	Short: "Download a backup archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp("BackupDownload")
		if err != nil {
			return err
		}
		defer a.Close()

		data, name, err := a.BackupDownload(args[0])
		if err != nil {
			return err
		}
		if output == "" {
			output = name
		}
		if err := writeOutput(output, data); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
		if output != "-" {
			fmt.Printf("Wrote %s (%d bytes)\n", output, len(data))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "Owner ID (overrides config)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// share subcommands
	shareCmd.AddCommand(shareCreateCmd)
	shareCreateCmd.Flags().Duration("expires", 0, "Expiry window (0 means never)")
	shareCreateCmd.Flags().Bool("password", false, "Protect the link with a password (prompted)")
	shareCmd.AddCommand(shareListCmd)
	shareCmd.AddCommand(shareRmCmd)
	shareCmd.AddCommand(shareGetCmd)
	shareGetCmd.Flags().StringP("output", "o", "", "Write the shared file to this path")

	// settings subcommands
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsSetCmd.Flags().String("theme", "system", "UI theme: light, dark or system")
	settingsSetCmd.Flags().Bool("notifications", true, "Enable notifications")
	settingsSetCmd.Flags().Bool("compress", false, "Compress uploads by default")

	// backup subcommands
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupDownloadCmd)
	backupDownloadCmd.Flags().StringP("output", "o", "", "Output path ('-' for stdout)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().Bool("compress", false, "Compress before upload (overrides settings)")
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringP("output", "o", "-", "Output path ('-' for stdout)")
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(zipCmd)
	zipCmd.Flags().StringP("output", "o", "", "Output path ('-' for stdout)")
	zipCmd.Flags().String("base", "/", "Directory the selection is relative to")
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().IntP("limit", "n", 5, "Maximum number of files to show")
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(backupCmd)
}
