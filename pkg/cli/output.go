package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"dotasync/internal/api"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJobsTable(jobs []api.SyncJobResponse) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tPROGRESS\tNEW\tCREATED\tERROR")
	for i := range jobs {
		j := &jobs[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			j.ID, j.JobType, j.Status, formatProgress(j), j.NewMatches,
			j.CreatedAt.Local().Format(time.DateTime), deref(j.ErrorMessage))
	}
	tw.Flush()
}

func printJobTable(job *api.SyncJobResponse) {
	printJobsTable([]api.SyncJobResponse{*job})
}

func formatProgress(j *api.SyncJobResponse) string {
	if j.TotalMatches == nil {
		return strconv.FormatInt(j.ProcessedMatches, 10)
	}
	return fmt.Sprintf("%d/%d", j.ProcessedMatches, *j.TotalMatches)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
