package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/interntrack/internal/filex"
)

func (a *App) Files(ctx context.Context) error {
	files, err := a.api.ListFiles(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files uploaded.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Key, f.Size, f.UploadedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: upload <path>")
		return errUsage
	}
	f, err := a.api.UploadFile(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Uploaded as", f.Key)
	return nil
}

func (a *App) Link(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: link <file>")
		return errUsage
	}
	url, err := a.api.DownloadURL(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, url)
	return nil
}

func (a *App) RemoveFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: rmfile <file>")
		return errUsage
	}
	if err := a.api.DeleteFile(ctx, args[0]); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Deleted", args[0])
	return nil
}

// Download fetches a file through its presigned link into the configured
// download directory. Existing local files are never overwritten.
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: download <file>")
		return errUsage
	}
	url, err := a.api.DownloadURL(ctx, args[0])
	if err != nil {
		return a.report(err)
	}

	dir, err := filex.EnsureSubdDir(a.config.DownloadDir)
	if err != nil {
		return a.report(err)
	}
	f, err := filex.CreateExclusive(dir, args[0])
	if err != nil {
		return a.report(err)
	}

	n, err := a.fetch(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", f.Name(), n)
	return nil
}
