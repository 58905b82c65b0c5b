package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/starford/neuronote/internal"
)

func addNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	if err := requireArgs(cmd, 2); err != nil {
		return err
	}
	e, err := rt.Service.Save(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "saved note %d\n", e.Position)
	return nil
}

func listNotes(ctx context.Context, _ *cli.Command, rt *internal.Runtime) error {
	for _, e := range rt.Service.List(ctx) {
		fmt.Fprintf(stdout, "%d\t%s\n", e.Position, e.Note.Title)
		if e.Summary != "" {
			fmt.Fprintf(stdout, "\t%s\n", strings.ReplaceAll(e.Summary, "\n", "\n\t"))
		}
	}
	return nil
}

func showNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	i, err := argIndex(cmd, 0)
	if err != nil {
		return err
	}
	text, err := rt.Service.CopyText(ctx, i)
	if err != nil {
		return fmt.Errorf("note %d: %w", i, err)
	}
	fmt.Fprintln(stdout, text)
	return nil
}

func editNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	if err := requireArgs(cmd, 3); err != nil {
		return err
	}
	i, err := argIndex(cmd, 0)
	if err != nil {
		return err
	}
	changed, err := rt.Service.Edit(ctx, i, cmd.Args().Get(1), cmd.Args().Get(2))
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("no note at index %d", i)
	}
	fmt.Fprintf(stdout, "updated note %d\n", i)
	return nil
}

func trashNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	i, err := argIndex(cmd, 0)
	if err != nil {
		return err
	}
	changed, err := rt.Service.MoveToTrash(ctx, i)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("no note at index %d", i)
	}
	fmt.Fprintf(stdout, "moved note %d to trash\n", i)
	return nil
}

func listTrash(ctx context.Context, _ *cli.Command, rt *internal.Runtime) error {
	for i, n := range rt.Service.Trash(ctx) {
		fmt.Fprintf(stdout, "%d\t%s\n", i, n.Title)
	}
	return nil
}

func restoreNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	i, err := argIndex(cmd, 0)
	if err != nil {
		return err
	}
	pos, changed, err := rt.Service.Restore(ctx, i)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("no trashed note at index %d", i)
	}
	fmt.Fprintf(stdout, "restored as note %d\n", pos)
	return nil
}

func purgeNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	i, err := argIndex(cmd, 0)
	if err != nil {
		return err
	}
	changed, err := rt.Service.DeleteForever(ctx, i)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("no trashed note at index %d", i)
	}
	fmt.Fprintf(stdout, "deleted trashed note %d\n", i)
	return nil
}

func summarizeNote(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	i, err := argIndex(cmd, 0)
	if err != nil {
		return err
	}
	task, err := rt.Service.Summarize(ctx, i)
	if err != nil {
		return fmt.Errorf("note %d: %w", i, err)
	}
	summary, applied, err := task.Wait(ctx)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("note %d changed while summarizing", i)
	}
	fmt.Fprintln(stdout, summary)
	return nil
}

func searchNotes(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	results, err := rt.Service.Search(ctx, strings.Join(cmd.Args().Slice(), " "), 20)
	if err != nil {
		return err
	}
	for _, r := range results {
		where := "note"
		if r.Trashed {
			where = "trash"
		}
		fmt.Fprintf(stdout, "%s %d\t%s\t%s\n", where, r.Position, r.Title, r.Snippet)
	}
	return nil
}

func importFiles(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	files, err := expandPatterns(cmd.Args().Slice())
	if err != nil {
		return err
	}
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		e, err := rt.Service.Import(ctx, filepath.Base(name), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "imported %s as note %d\n", name, e.Position)
	}
	return nil
}

// expandPatterns resolves arguments containing glob syntax, including **,
// into file paths. Plain arguments are kept as given.
func expandPatterns(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			files = append(files, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("import: pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("import: no files match %q", arg)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func exportNotes(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	dir := cmd.Args().Get(1)
	if dir == "" {
		dir = rt.Config.Export.Dir
	}

	var (
		out string
		err error
	)
	switch format := cmd.Args().Get(0); format {
	case "txt":
		out, err = rt.Service.ExportText(ctx, dir)
	case "pdf":
		out, err = rt.Service.ExportPDF(ctx, dir)
	default:
		return fmt.Errorf("unknown export format %q (want txt or pdf)", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported to %s\n", out)
	return nil
}

func listGroups(ctx context.Context, _ *cli.Command, rt *internal.Runtime) error {
	groups := rt.Service.Groups(ctx)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "%s (%d)\n", name, len(groups[name]))
		for _, n := range groups[name] {
			fmt.Fprintf(stdout, "\t%s\n", n.Title)
		}
	}
	return nil
}
