// Package cli is the terminal front end for the student marks service: a
// read–eval–print loop over a client.Controller.
package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-marks-api/internal/client"
)

const helpText = `Commands:
  set <field> <value>   fill the form (fields: name, email, phone, mark)
  form                  show the form
  add | save            create a student, or save the one being edited
  edit <id>             load a student into the form
  cancel                clear the form and stop editing
  delete <id>           delete a student (asks for confirmation)
  first | prev | next | last
                        move between pages
  reload                fetch the current page again
  help                  show this text
  exit | quit           leave the program`

// screen is the controller surface the REPL drives. *client.Controller
// satisfies it.
type screen interface {
	LoadPage(ctx context.Context) error
	Submit(ctx context.Context) error
	Edit(ctx context.Context, id int64) error
	CancelEdit()
	Delete(ctx context.Context, id int64) error
	SetField(field, value string) error
	First(ctx context.Context) error
	Prev(ctx context.Context) error
	Next(ctx context.Context) error
	Last(ctx context.Context) error
	State() client.State
}

// Run loads the first page and then reads commands until "exit" or end of
// input.
//
// Errors returned by controller actions are not reported here; the
// controller has already notified the user through the Terminal.
func Run(ctx context.Context, s screen, t *Terminal) {
	if err := s.LoadPage(ctx); err == nil {
		show(s, t)
	}

	for {
		t.prompt()
		line, ok := t.readLine()
		if !ok {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "h", "?":
			t.println(helpText)

		case "set":
			if len(args) == 0 {
				t.println("usage: set <field> <value>")
				continue
			}
			if err := s.SetField(args[0], strings.Join(args[1:], " ")); err != nil {
				t.println(err.Error())
			}

		case "form":
			st := s.State()
			renderForm(t.out, st.Form, st.EditID)

		case "add", "save", "submit":
			if err := s.Submit(ctx); err == nil {
				show(s, t)
			}

		case "edit":
			id, ok := parseID(t, args)
			if !ok {
				continue
			}
			if err := s.Edit(ctx, id); err != nil {
				continue
			}
			state := s.State()
			renderForm(t.out, state.Form, state.EditID)

		case "cancel":
			s.CancelEdit()
			t.println("Edit cancelled")

		case "delete", "del", "rm":
			id, ok := parseID(t, args)
			if !ok {
				continue
			}
			if err := s.Delete(ctx, id); err == nil {
				show(s, t)
			}

		case "first", "prev", "next", "last", "reload":
			if err := move(ctx, s, cmd); err == nil {
				show(s, t)
			}

		case "exit", "quit", "q":
			t.println("Bye!")
			return

		default:
			t.println("Unknown command: " + cmd + " (type help)")
		}
	}
}

func move(ctx context.Context, s screen, cmd string) error {
	switch cmd {
	case "first":
		return s.First(ctx)
	case "prev":
		return s.Prev(ctx)
	case "next":
		return s.Next(ctx)
	case "last":
		return s.Last(ctx)
	default:
		return s.LoadPage(ctx)
	}
}

func parseID(t *Terminal, args []string) (int64, bool) {
	if len(args) != 1 {
		t.println("usage: <command> <id>")
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		t.println("id must be a positive integer")
		return 0, false
	}
	return id, true
}

func show(s screen, t *Terminal) {
	st := s.State()
	renderTable(t.out, st.Students, st.Page, st.TotalPages)
}
