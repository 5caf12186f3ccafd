/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"fountainflow/internal/backend"
	"fountainflow/internal/config"
	"fountainflow/internal/crash"
	"fountainflow/internal/domain"
	"fountainflow/internal/export"
	"fountainflow/internal/fidelity"
	"fountainflow/internal/language"
	applog "fountainflow/internal/log"
	"fountainflow/internal/normalize"
	"fountainflow/internal/parser"
	"fountainflow/internal/storage"
	"fountainflow/internal/telemetry"
	"fountainflow/internal/transpiler"
	"fountainflow/internal/version"
)

// openHandle holds the workspace currently in use so the crash handler can
// autosave it.
var openHandle *storage.ProjectHandle

func main() {
	applog.Init(applog.FromEnv())
	defer func() { crash.Recover(openHandle) }()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fflow",
		Short:         "Convert interactive narrative scripts between FFlow, Twee and Ren'Py",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newConvertCmd(),
		newNormalizeCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newSnapshotsCmd(),
		newExportCmd(),
		newServeCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir> <name>",
		Short: "Create a new story workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, _ := filepath.Abs(args[0])
			l := applog.WithComponent("cli")
			l.Info("init workspace", slog.String("root", abs), slog.String("name", args[1]))
			ph, err := storage.InitProject(abs, domain.Project{Name: args[1]})
			if err != nil {
				return err
			}
			openHandle = ph
			fmt.Println("Created workspace at", abs)
			return nil
		},
	}
}

// openWorkspace opens the workspace at dir if story.json exists there.
// An empty dir means no workspace; conversions then run standalone.
func openWorkspace(dir string) (*storage.ProjectHandle, error) {
	if dir == "" {
		return nil, nil
	}
	abs, _ := filepath.Abs(dir)
	ph, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	openHandle = ph
	return ph, nil
}

func resolveLanguage(nameOrPath string) (*language.Definition, error) {
	reg := language.Default()
	if def, ok := reg.ByName(nameOrPath); ok {
		return def, nil
	}
	if def, ok := reg.ByExtension(filepath.Ext(nameOrPath)); ok {
		return def, nil
	}
	return nil, fmt.Errorf("unknown language for %q (known: %s)", nameOrPath, strings.Join(reg.Names(), ", "))
}

func newConvertCmd() *cobra.Command {
	var (
		to        string
		out       string
		verify    bool
		noVerify  bool
		workspace string
		snapshot  bool
	)
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a script to another language",
		Long: `Convert parses the input script using the language implied by its file
extension, renders it in the target language and writes the result next to
the input (or to --out). With --verify the output is round-tripped back and
compared against the source; differences land in a fidelity log beside the
output and the conversion still succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := applog.WithComponent("cli")
			cfg, _, err := config.Load()
			if err != nil {
				return err
			}
			if to == "" {
				to = cfg.General.DefaultTarget
			}
			doVerify := cfg.General.VerifyRoundTrip
			if verify {
				doVerify = true
			}
			if noVerify {
				doVerify = false
			}

			ph, err := openWorkspace(workspace)
			if err != nil {
				return err
			}
			input := args[0]
			var text string
			if ph != nil {
				text, err = storage.ReadScript(ph, input)
			} else {
				var b []byte
				b, err = os.ReadFile(input)
				text = string(b)
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}
			if text == "" {
				return fmt.Errorf("input %s is empty or missing", input)
			}

			sourceDef, err := resolveLanguage(input)
			if err != nil {
				return err
			}
			targetDef, err := resolveLanguage(to)
			if err != nil {
				return err
			}
			if sourceDef.Name == targetDef.Name {
				return fmt.Errorf("source and target language are both %s", sourceDef.Name)
			}

			if out == "" {
				ext := targetDef.Extensions[0]
				out = strings.TrimSuffix(input, filepath.Ext(input)) + ext
			}

			nodes := parser.Parse(text, sourceDef)
			result := transpiler.Transpile(nodes, targetDef)

			conv := domain.Conversion{
				SourcePath: input,
				TargetPath: out,
				SourceLang: sourceDef.Name,
				TargetLang: targetDef.Name,
				Timestamp:  time.Now(),
			}
			if doVerify {
				report, verr := fidelity.Verify(sourceDef, targetDef, nodes, result)
				var unsupported *fidelity.ErrUnsupported
				switch {
				case errors.As(verr, &unsupported):
					l.Info("round-trip verification not available",
						slog.String("source", sourceDef.Name), slog.String("target", targetDef.Name))
				case verr != nil:
					return verr
				default:
					conv.Verified = true
					conv.Lossless = report.Passed()
					conv.Diffs = report.Diffs
					if !report.Passed() {
						logPath := out + ".fidelity.log"
						if werr := writeFidelityLog(ph, logPath, report); werr != nil {
							l.Error("write fidelity log failed", slog.Any("err", werr))
						} else {
							fmt.Printf("Round trip lost %d node(s); see %s\n", len(report.Diffs), logPath)
						}
					}
				}
			}

			if ph != nil {
				if err := storage.WriteScript(ph, out, result); err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				if err := storage.RecordConversion(ctx, ph, conv); err != nil {
					l.Error("record conversion failed", slog.Any("err", err))
				}
				if snapshot {
					if err := storage.SaveScriptSnapshot(ctx, ph, input, text, conv.Timestamp); err != nil {
						l.Error("save snapshot failed", slog.Any("err", err))
					}
				}
				if err := storage.UpdateIndex(ctx, ph.Root, ph.Project); err != nil {
					l.Error("index update failed", slog.Any("err", err))
				}
			} else {
				if err := os.WriteFile(out, []byte(result), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
			}

			telemetry.Event("convert", map[string]any{
				"source": sourceDef.Name, "target": targetDef.Name, "verified": conv.Verified,
			})
			fmt.Printf("Converted %s (%s) -> %s (%s)\n", input, sourceDef.Name, out, targetDef.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "target language: fflow, twee or renpy (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: input with target extension)")
	cmd.Flags().BoolVar(&verify, "verify", false, "force round-trip verification")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip round-trip verification")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "story workspace root; records the conversion in its index")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "store a snapshot of the source script in the index")
	return cmd
}

func writeFidelityLog(ph *storage.ProjectHandle, logPath string, report *fidelity.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Round-trip report %s -> %s (%s)\n", report.Source, report.Target, time.Now().Format(time.RFC3339))
	for _, d := range report.Diffs {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	if ph != nil {
		return storage.WriteScript(ph, logPath, b.String())
	}
	return os.WriteFile(logPath, []byte(b.String()), 0o644)
}

func newNormalizeCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "normalize <input>",
		Short: "Prefix bare state variables in an FFlow script",
		Long: `Normalize rewrites state-change lines and branch conditions so every
variable reference carries its $ prefix. The result goes to stdout, or back
into the file with --write.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := normalize.Script(string(b))
			if write {
				return os.WriteFile(args[0], []byte(out), 0o644)
			}
			fmt.Print(out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "rewrite the file in place")
	return cmd
}

func newIndexCmd() *cobra.Command {
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Update the workspace search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			if rebuilt, err := storage.DetectAndRebuildIndex(ctx, ph.Root, ph.Project); err != nil {
				return err
			} else if rebuilt {
				fmt.Println("Index was corrupt and has been rebuilt.")
				return nil
			}
			if rebuild {
				if err := storage.RebuildIndex(ctx, ph.Root, ph.Project); err != nil {
					return err
				}
				fmt.Println("Index rebuilt.")
				return nil
			}
			if err := storage.UpdateIndex(ctx, ph.Root, ph.Project); err != nil {
				return err
			}
			fmt.Println("Index updated.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "drop and rebuild document rows")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		workspace   string
		types       []string
		langs       []string
		character   string
		section     string
		limit       int
		remote      bool
		workspaceID int64
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over indexed scripts",
		Long: `Search queries the local workspace index. With --remote the same query
runs against the shared Postgres backend configured in the user config
(backend.dsn or FFW_BACKEND_DSN).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := storage.SearchQuery{
				Character: character,
				Section:   section,
				Types:     types,
				Langs:     langs,
				Limit:     limit,
			}
			if len(args) == 1 {
				q.Text = args[0]
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var (
				results []storage.SearchResult
				err     error
			)
			if remote {
				cfg, _, cerr := config.Load()
				if cerr != nil {
					return cerr
				}
				if cfg.Backend.DSN == "" {
					return fmt.Errorf("no backend DSN configured (backend.dsn or %s)", config.EnvBackendDSN)
				}
				db, derr := sql.Open("pgx", cfg.Backend.DSN)
				if derr != nil {
					return derr
				}
				defer db.Close()
				results, err = backend.SearchPG(ctx, db, workspaceID, q)
			} else {
				ph, perr := openWorkspace(workspace)
				if perr != nil {
					return perr
				}
				results, err = storage.Search(ctx, ph.Root, q)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, r := range results {
				loc := r.Path
				if r.Section != "" {
					loc += " (" + r.Section + ")"
				}
				fmt.Printf("%-10s %-40s %s\n", r.Type, loc, r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", ".", "story workspace root")
	cmd.Flags().StringSliceVar(&types, "type", nil, "filter by document type (dialogue, choice, ...)")
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "filter by script language")
	cmd.Flags().StringVar(&character, "character", "", "filter by character name")
	cmd.Flags().StringVar(&section, "section", "", "filter by containing section or scene")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results")
	cmd.Flags().BoolVar(&remote, "remote", false, "query the shared Postgres backend instead of the local index")
	cmd.Flags().Int64Var(&workspaceID, "workspace-id", 0, "backend workspace id for --remote")
	return cmd
}

func newSnapshotsCmd() *cobra.Command {
	var (
		script string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "snapshots <dir>",
		Short: "List conversion history or script snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if script != "" {
				snaps, err := storage.ListScriptSnapshots(ctx, ph, script, limit)
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					fmt.Println("No snapshots for", script)
					return nil
				}
				for _, s := range snaps {
					fmt.Printf("%s  %d bytes\n", s.TS.Format(time.RFC3339), len(s.Text))
				}
				return nil
			}
			convs, err := storage.ListConversions(ctx, ph, limit)
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Println("No conversions recorded.")
				return nil
			}
			for _, c := range convs {
				status := "unverified"
				if c.Verified {
					if c.Lossless {
						status = "lossless"
					} else {
						status = fmt.Sprintf("%d diff(s)", len(c.Diffs))
					}
				}
				fmt.Printf("%s  %s (%s) -> %s (%s)  %s\n",
					c.Timestamp.Format(time.RFC3339), c.SourcePath, c.SourceLang, c.TargetPath, c.TargetLang, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&script, "script", "", "list stored snapshots of this script instead")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		workspace   string
		out         string
		title       string
		author      string
		pageNumbers bool
	)
	pdf := &cobra.Command{
		Use:   "pdf <script>",
		Short: "Render a script as a screenplay-style PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := openWorkspace(workspace)
			if err != nil {
				return err
			}
			if out == "" {
				base := filepath.Base(args[0])
				out = strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
			}
			opt := export.PDFOptions{Title: title, Author: author, PageNumbers: pageNumbers}
			if err := export.ExportScriptPDF(ph, args[0], out, opt); err != nil {
				return err
			}
			fmt.Println("Exported", out)
			return nil
		},
	}
	pdf.Flags().StringVarP(&workspace, "workspace", "w", ".", "story workspace root")
	pdf.Flags().StringVarP(&out, "out", "o", "", "output file (default under exports/)")
	pdf.Flags().StringVar(&title, "title", "", "title page title (default: workspace name)")
	pdf.Flags().StringVar(&author, "author", "", "title page author (default: workspace metadata)")
	pdf.Flags().BoolVar(&pageNumbers, "page-numbers", false, "print page numbers")

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export scripts to distributable formats",
	}
	cmd.AddCommand(pdf)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the shared sync backend (Postgres required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return backend.Start()
		},
	}
}
