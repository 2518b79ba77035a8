package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aanand-mishra/student-marks-api/internal/client"
	"github.com/aanand-mishra/student-marks-api/internal/types"
)

// renderTable prints the students of the current page followed by the
// pagination footer.
func renderTable(w io.Writer, students []types.StudentWithMarks, page, totalPages int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tEmail\tPhone\tMark")

	if len(students) == 0 {
		fmt.Fprintln(tw, "\tNo students found\t\t\t")
	}
	for _, st := range students {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", st.ID, st.Name, st.Email, st.Phone, joinMarks(st.Marks))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Page %d of %d\n", page, totalPages)
}

func joinMarks(marks []types.Mark) string {
	parts := make([]string, len(marks))
	for i, m := range marks {
		parts[i] = strconv.FormatFloat(m.Mark, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}

func renderForm(w io.Writer, f client.Form, editID int64) {
	mode := "new student"
	if editID != 0 {
		mode = fmt.Sprintf("editing student %d", editID)
	}
	fmt.Fprintf(w, "Form (%s): name=%q email=%q phone=%q mark=%q\n", mode, f.Name, f.Email, f.Phone, f.Mark)
}
