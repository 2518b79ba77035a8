package client

import (
	"context"
	"strconv"

	"github.com/aanand-mishra/student-marks-api/internal/types"
)

// User-facing fallbacks when the server gave no message.
const (
	MsgLoadFailed = "Could not load students"
	MsgFailed     = "Failed"
)

// Service is the subset of the REST API the controller drives. *API
// implements it.
type Service interface {
	List(ctx context.Context, page, limit int) (ListResult, error)
	Get(ctx context.Context, id int64) (types.StudentWithMark, error)
	Create(ctx context.Context, form Form) (string, error)
	Update(ctx context.Context, id int64, form Form) (string, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// Notifier shows the user the outcome of an action.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(title, text string) (bool, error)
}

// Controller holds the screen state and turns user actions into API calls.
// It is not safe for concurrent use; one action runs at a time.
type Controller struct {
	api      Service
	notify   Notifier
	confirm  Confirmer
	pageSize int

	Form       Form
	Students   []types.StudentWithMarks
	Page       int
	TotalPages int
	// EditID is the student being edited; 0 means the form creates.
	EditID int64
}

func NewController(api Service, notify Notifier, confirm Confirmer, pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = 5
	}
	return &Controller{
		api:        api,
		notify:     notify,
		confirm:    confirm,
		pageSize:   pageSize,
		Students:   []types.StudentWithMarks{},
		Page:       1,
		TotalPages: 1,
	}
}

func (c *Controller) PageSize() int { return c.pageSize }

// State is a snapshot of what the screen shows.
type State struct {
	Form       Form
	Students   []types.StudentWithMarks
	Page       int
	TotalPages int
	EditID     int64
}

func (c *Controller) State() State {
	return State{
		Form:       c.Form,
		Students:   c.Students,
		Page:       c.Page,
		TotalPages: c.TotalPages,
		EditID:     c.EditID,
	}
}

// Editing reports whether Submit will update rather than create.
func (c *Controller) Editing() bool { return c.EditID != 0 }

// LoadPage fetches the current page. On failure the user is notified and
// the previous students, page and page count are kept.
func (c *Controller) LoadPage(ctx context.Context) error {
	return c.load(ctx, c.Page)
}

// load fetches page and commits students, page and page count together once
// a page inside the range has been loaded. Nothing changes on failure.
func (c *Controller) load(ctx context.Context, page int) error {
	for {
		res, err := c.api.List(ctx, page, c.pageSize)
		if err != nil {
			c.notify.Error("Error", MsgLoadFailed)
			return err
		}

		pages := totalPages(res.Total, c.pageSize)
		// The last row of the last page was deleted; step back so the user
		// does not land on an empty page.
		if page > pages {
			page = pages
			continue
		}

		students := res.Students
		if students == nil {
			students = []types.StudentWithMarks{}
		}
		c.Students, c.Page, c.TotalPages = students, page, pages
		return nil
	}
}

func totalPages(total int64, limit int) int {
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		return 1
	}
	return pages
}

// Submit creates a student from the form, or updates the one being edited.
// On success the form is cleared and the page reloaded.
func (c *Controller) Submit(ctx context.Context) error {
	var (
		title, msg string
		err        error
	)
	if c.Editing() {
		title = "Updated"
		msg, err = c.api.Update(ctx, c.EditID, c.Form)
	} else {
		title = "Success"
		msg, err = c.api.Create(ctx, c.Form)
	}
	if err != nil {
		c.notify.Error("Error", Message(err, MsgFailed))
		return err
	}

	c.notify.Success(title, msg)
	c.CancelEdit()
	return c.LoadPage(ctx)
}

// BeginEdit loads st into the form. The form gets the student's first mark
// (lowest mark id) when it has any.
func (c *Controller) BeginEdit(st types.StudentWithMarks) {
	c.Form = Form{Name: st.Name, Email: st.Email, Phone: st.Phone}
	if len(st.Marks) > 0 {
		c.Form.Mark = strconv.FormatFloat(st.Marks[0].Mark, 'f', -1, 64)
	}
	c.EditID = st.ID
}

// Edit loads the student with id into the form. A student on the current
// page is taken as shown; any other is fetched, which carries only its
// latest mark.
func (c *Controller) Edit(ctx context.Context, id int64) error {
	if st, ok := c.Lookup(id); ok {
		c.BeginEdit(st)
		return nil
	}

	st, err := c.api.Get(ctx, id)
	if err != nil {
		c.notify.Error("Error", Message(err, MsgFailed))
		return err
	}

	c.Form = Form{Name: st.Name, Email: st.Email, Phone: st.Phone}
	if st.Mark != nil {
		c.Form.Mark = strconv.FormatFloat(*st.Mark, 'f', -1, 64)
	}
	c.EditID = st.ID
	return nil
}

// CancelEdit clears the form and the edit target.
func (c *Controller) CancelEdit() {
	c.Form = Form{}
	c.EditID = 0
}

// Delete removes the student with id once the user confirms.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	ok, err := c.confirm.Confirm("Are you sure?", "You won't be able to revert this!")
	if err != nil || !ok {
		return err
	}

	msg, err := c.api.Delete(ctx, id)
	if err != nil {
		c.notify.Error("Error", Message(err, MsgFailed))
		return err
	}

	c.notify.Success("Deleted!", msg)
	return c.LoadPage(ctx)
}

// SetField updates one form field. See Form.Set.
func (c *Controller) SetField(field, value string) error {
	return c.Form.Set(field, value)
}

// Lookup finds a student on the current page.
func (c *Controller) Lookup(id int64) (types.StudentWithMarks, bool) {
	for _, st := range c.Students {
		if st.ID == id {
			return st, true
		}
	}
	return types.StudentWithMarks{}, false
}

func (c *Controller) First(ctx context.Context) error { return c.goTo(ctx, 1) }
func (c *Controller) Prev(ctx context.Context) error  { return c.goTo(ctx, c.Page-1) }
func (c *Controller) Next(ctx context.Context) error  { return c.goTo(ctx, c.Page+1) }
func (c *Controller) Last(ctx context.Context) error  { return c.goTo(ctx, c.TotalPages) }

// goTo moves to page, clamped to [1, TotalPages], and reloads if the page
// changed. A failed reload keeps the previous page.
func (c *Controller) goTo(ctx context.Context, page int) error {
	page = min(max(page, 1), c.TotalPages)
	if page == c.Page {
		return nil
	}
	return c.load(ctx, page)
}
