package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/interntrack/internal/client/api"
)

const dateLayout = "2006-01-02"

var errUsage = errors.New("usage")

func (a *App) List(ctx context.Context) error {
	list, err := a.api.ListInternships(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No internships yet. Use 'add' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tROLE\tSTATUS\tAPPLIED")
	for _, it := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.CompanyName, it.Role, it.Status, it.AppliedDate.Format(dateLayout))
	}
	return tw.Flush()
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return errUsage
	}
	it, err := a.api.GetInternship(ctx, args[0])
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "%s at %s\n", it.Role, it.CompanyName)
	fmt.Fprintf(a.out, "  platform:  %s\n", it.Platform)
	fmt.Fprintf(a.out, "  status:    %s\n", it.Status)
	fmt.Fprintf(a.out, "  applied:   %s\n", it.AppliedDate.Format(dateLayout))
	if it.StartDate != nil {
		fmt.Fprintf(a.out, "  starts:    %s\n", it.StartDate.Format(dateLayout))
	}
	if it.NextStepDate != nil {
		fmt.Fprintf(a.out, "  next step: %s\n", it.NextStepDate.Format(dateLayout))
	}
	if it.Notes != "" {
		fmt.Fprintf(a.out, "  notes:     %s\n", it.Notes)
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	var in api.InternshipInput
	prompts := []struct {
		text string
		dst  **string
	}{
		{"Company name", &in.CompanyName},
		{"Role", &in.Role},
		{"Platform (LinkedIn, Internshala, Company Website, Naukri, Indeed, Other)", &in.Platform},
		{"Applied date (YYYY-MM-DD)", &in.AppliedDate},
		{"Status (empty for Applied)", &in.Status},
		{"Notes (optional)", &in.Notes},
	}
	for _, p := range prompts {
		v, err := GetOptionalText(a.reader, p.text, a.out)
		if err != nil {
			return a.report(err)
		}
		*p.dst = v
	}

	it, err := a.api.CreateInternship(ctx, in)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Created", it.ID)
	return nil
}

// SetStatus changes an internship's status; multi-word statuses are joined.
func (a *App) SetStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: status <id> <status>")
		return errUsage
	}
	status := strings.Join(args[1:], " ")

	it, err := a.api.UpdateInternship(ctx, args[0], api.InternshipInput{Status: &status})
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s is now %s\n", it.ID, it.Status)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return errUsage
	}
	if err := a.api.DeleteInternship(ctx, args[0]); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Deleted", args[0])
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	s, err := a.api.Stats(ctx)
	if err != nil {
		return a.report(err)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.Total)
	fmt.Fprintf(tw, "Applied\t%d\n", s.Applied)
	fmt.Fprintf(tw, "Shortlisted\t%d\n", s.Shortlisted)
	fmt.Fprintf(tw, "Interview Scheduled\t%d\n", s.InterviewScheduled)
	fmt.Fprintf(tw, "Selected\t%d\n", s.Selected)
	fmt.Fprintf(tw, "Completed\t%d\n", s.Completed)
	fmt.Fprintf(tw, "Rejected\t%d\n", s.Rejected)
	return tw.Flush()
}
