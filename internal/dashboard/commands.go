// ABOUTME: Command values the admin pages dispatch to the dashboard controller.
// ABOUTME: Each user action maps to exactly one command.

package dashboard

import "github.com/2389/shopdesk/internal/resource"

// Command is one operator action. The set is closed.
type Command interface {
	command()
}

// Show renders the current state without acting.
type Show struct{}

// Activate switches to a section and loads its list.
type Activate struct {
	Section string
}

// Create submits a section's create form.
type Create struct {
	Section string
	Values  resource.Values
}

// OpenEdit opens the update modal for one record, replacing any open modal.
type OpenEdit struct {
	Section string
	ID      string
}

// CancelEdit closes the update modal without a request.
type CancelEdit struct{}

// SubmitEdit sends the open modal's non-empty fields as a partial update.
// When Section and ID are set they must name the open modal.
type SubmitEdit struct {
	Section string
	ID      string
	Values  resource.Values
}

// RequestDelete asks for confirmation before deleting a record.
type RequestDelete struct {
	Section string
	ID      string
}

// ConfirmDelete answers the pending confirmation. When Section and ID are
// set they must name the pending delete.
type ConfirmDelete struct {
	Section   string
	ID        string
	Confirmed bool
}

// Logout ends the session.
type Logout struct{}

func (Show) command()          {}
func (Activate) command()      {}
func (Create) command()        {}
func (OpenEdit) command()      {}
func (CancelEdit) command()    {}
func (SubmitEdit) command()    {}
func (RequestDelete) command() {}
func (ConfirmDelete) command() {}
func (Logout) command()        {}
