package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/ldn-softdev/jsl"
	"github.com/spf13/pflag"
)

// FileRecord is a stored file.
type FileRecord struct {
	Name    string
	Mode    uint32
	ModTime time.Time
	Content []byte
}

func (f *FileRecord) Fields() []any { return []any{&f.Name, &f.Mode, &f.ModTime, &f.Content} }

func readFileRecord(path string) (*FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &FileRecord{
		Name:    filepath.Base(path),
		Mode:    uint32(info.Mode().Perm()),
		ModTime: info.ModTime().UTC(),
		Content: content,
	}, nil
}

func newFlagSet(name string, e *env) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(e.stderr)
	return flags
}

// parseArgs parses args and checks the positional argument count.
func parseArgs(flags *pflag.FlagSet, args []string, least, most int, usage string) ([]string, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	rest := flags.Args()
	if len(rest) < least || (most >= 0 && len(rest) > most) {
		return nil, fmt.Errorf("usage: jsl %s %s", flags.Name(), usage)
	}
	return rest, nil
}

func runPut(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet("put", e)
	kind := flags.String("kind", "file", "record kind")
	rest, err := parseArgs(flags, args, 2, 2, "<id> <file>")
	if err != nil {
		return err
	}
	rec, err := readFileRecord(rest[1])
	if err != nil {
		return err
	}

	store, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Put(ctx, rest[0], *kind, rec); err != nil {
		return err
	}
	e.logger.Info("stored", "id", rest[0], "file", rec.Name, "bytes", len(rec.Content))
	return nil
}

func runGet(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet("get", e)
	out := flags.StringP("out", "o", "", "write the file here instead of stdout")
	blobOut := flags.String("blob", "", "also save the raw record Blob to this path")
	rest, err := parseArgs(flags, args, 1, 1, "<id>")
	if err != nil {
		return err
	}

	store, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var rec FileRecord
	if err := store.Get(ctx, rest[0], &rec); err != nil {
		return err
	}
	if *blobOut != "" {
		b, err := store.GetBlob(ctx, rest[0])
		if err != nil {
			return err
		}
		if err := b.WriteFile(*blobOut); err != nil {
			return err
		}
	}
	if *out == "" {
		_, err = e.stdout.Write(rec.Content)
		return err
	}
	mode := fs.FileMode(rec.Mode)
	if mode == 0 {
		mode = 0o644
	}
	return os.WriteFile(*out, rec.Content, mode)
}

func runList(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet("ls", e)
	kind := flags.String("kind", "", "only records of this kind")
	prefix := flags.String("prefix", "", "only ids starting with this prefix")
	limit := flags.Int("limit", 0, "maximum number of records (0 = default, -1 = all)")
	offset := flags.Int("offset", 0, "records to skip")
	order := flags.String("order", "id", "order column: id, kind, created_at or updated_at")
	desc := flags.Bool("desc", false, "descending order")
	if _, err := parseArgs(flags, args, 0, 0, "[flags]"); err != nil {
		return err
	}

	store, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	q := jsl.Q().Kind(*kind).Prefix(*prefix).OrderBy(*order).Limit(*limit).Offset(*offset)
	if *desc {
		q = q.Desc()
	}
	recs, err := store.List(ctx, q.Build())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tCODEC\tBYTES\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Kind, r.Codec, len(r.Data), r.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runRemove(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet("rm", e)
	rest, err := parseArgs(flags, args, 1, -1, "<id>...")
	if err != nil {
		return err
	}

	store, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, id := range rest {
		if err := store.Delete(ctx, id); err != nil {
			return fmt.Errorf("rm %s: %w", id, err)
		}
	}
	return nil
}

func runMigrate(ctx context.Context, e *env, args []string) error {
	flags := newFlagSet("migrate", e)
	dir := flags.String("dir", "", "also apply NNN_name.sql files from this directory")
	if _, err := parseArgs(flags, args, 0, 0, "[--dir path]"); err != nil {
		return err
	}

	store, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if *dir != "" {
		if err := store.MigrateFrom(ctx, *dir); err != nil {
			return err
		}
	}
	applied, err := store.MigrationStatus(ctx)
	if err != nil {
		return err
	}
	for _, m := range applied {
		fmt.Fprintf(e.stdout, "%s\t%s\n", m.AppliedAt.Format(time.RFC3339), m.Name)
	}
	return nil
}

// runDump lists the file records held back to back in a Blob file.
func runDump(e *env, args []string) error {
	flags := newFlagSet("dump", e)
	rest, err := parseArgs(flags, args, 1, 1, "<blob-file>")
	if err != nil {
		return err
	}
	b, err := jsl.ReadFile(rest[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tBYTES\tNAME\tMODE\tSIZE\tMODIFIED")
	for b.Remaining() > 0 {
		start := b.Offset()
		var rec FileRecord
		if err := b.Restore(&rec); err != nil {
			_ = tw.Flush()
			return fmt.Errorf("record at offset %d: %w", start, err)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%v\t%d\t%s\n", start, b.Offset()-start, rec.Name,
			fs.FileMode(rec.Mode), len(rec.Content), rec.ModTime.Format(time.RFC3339))
	}
	return tw.Flush()
}
