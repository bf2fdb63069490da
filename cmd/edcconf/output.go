package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/client"
	"github.com/botswana-harvard/edc-configuration/internal/reconcile"
	"github.com/botswana-harvard/edc-configuration/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printAttribute(w io.Writer, a *client.Attribute) {
	fmt.Fprintf(w, "Attribute:   %s\n", ui.RenderAccent(a.Name))
	fmt.Fprintf(w, "Category:    %s\n", a.Category)
	fmt.Fprintf(w, "Value:       %s\n", ui.RenderValue(a.Kind, a.Value))
	fmt.Fprintf(w, "Kind:        %s\n", a.Kind)
	fmt.Fprintf(w, "Convert:     %t\n", a.Convert)
	if a.Comment != "" {
		fmt.Fprintf(w, "Comment:     %s\n", a.Comment)
	}
	if !a.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", ui.RenderMuted(a.UpdatedAt.Format("2006-01-02 15:04:05")))
	}
}

// printAttributeTable lists attributes one per row. The value comes last so
// color codes do not upset the column widths.
func printAttributeTable(w io.Writer, attrs []*client.Attribute) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tCATEGORY\tKIND\tVALUE")
	for _, a := range attrs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Name, a.Category, a.Kind, ui.RenderValue(a.Kind, a.Value))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d attributes\n", len(attrs))
}

func printReport(w io.Writer, r *reconcile.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tCREATED\tUPDATED")
	for _, s := range r.Sections {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Name, s.Created, s.Updated)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nPrepared in %s: %d created, %d updated\n",
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Created(), r.Updated())
}
