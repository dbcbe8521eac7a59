/*
Package compose implements the create-trade form as an explicit state machine.

The form moves Empty -> Editing -> Submittable -> Submitted. It is Submittable
only while the title is non-blank and both item lists are non-empty; Submit is
refused in any other state. Submitting or cancelling resets the form to Empty
and closes the dialog.
*/
package compose

import (
	"strings"

	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/errs"
)

// State is the form's position in its lifecycle.
type State string

const (
	StateEmpty       State = "empty"
	StateEditing     State = "editing"
	StateSubmittable State = "submittable"
	StateSubmitted   State = "submitted"
)

// Target selects one of the two item lists.
type Target string

const (
	TargetOffering Target = "offering"
	TargetSeeking  Target = "seeking"
)

// Snapshot is a read-only copy of the form for rendering.
type Snapshot struct {
	Open        bool         `json:"open"`
	State       State        `json:"state"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Offering    []trade.Item `json:"offering"`
	Seeking     []trade.Item `json:"seeking"`
}

// Form is the in-progress trade. The zero value is an empty, closed form.
// Form is not safe for concurrent use; the owning view serializes access.
type Form struct {
	open        bool
	state       State
	title       string
	description string
	offering    []trade.Item
	seeking     []trade.Item
}

// Open shows the dialog. Draft contents are kept.
func (f *Form) Open() {
	f.open = true
}

// IsOpen reports whether the dialog is shown.
func (f *Form) IsOpen() bool {
	return f.open
}

// State returns the current lifecycle state.
func (f *Form) State() State {
	if f.state == "" {
		return StateEmpty
	}
	return f.state
}

// SetTitle replaces the title.
func (f *Form) SetTitle(title string) {
	f.title = title
	f.touch()
}

// SetDescription replaces the description.
func (f *Form) SetDescription(description string) {
	f.description = description
	f.touch()
}

// AddItem validates and appends an item to the target list, returning the
// updated list. An invalid item leaves the form unchanged.
func (f *Form) AddItem(target Target, kind trade.ItemKind, name string, quantity int) ([]trade.Item, error) {
	list, err := f.list(target)
	if err != nil {
		return nil, err
	}

	item, err := trade.NewItem(kind, name, quantity)
	if err != nil {
		return nil, err
	}

	*list = append(*list, item)
	f.touch()

	return clone(*list), nil
}

// RemoveItem deletes the item at index from the target list.
func (f *Form) RemoveItem(target Target, index int) ([]trade.Item, error) {
	list, err := f.list(target)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(*list) {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	*list = append((*list)[:index:index], (*list)[index+1:]...)
	f.touch()

	return clone(*list), nil
}

// Submittable reports whether Submit would be accepted.
func (f *Form) Submittable() bool {
	return strings.TrimSpace(f.title) != "" && len(f.offering) > 0 && len(f.seeking) > 0
}

// Draft returns the form content as a trade draft.
func (f *Form) Draft() trade.Draft {
	return trade.Draft{
		Title:       f.title,
		Description: f.description,
		Offering:    clone(f.offering),
		Seeking:     clone(f.seeking),
	}
}

// Submit returns the draft and moves the form to Submitted. The caller posts
// the draft and then calls Reset; on a failed post the caller calls Reopen to
// go back to editing without losing input.
func (f *Form) Submit() (trade.Draft, error) {
	if f.State() != StateSubmittable {
		return trade.Draft{}, errs.NewError(errs.ErrFormNotSubmittable)
	}

	f.state = StateSubmitted
	return f.Draft(), nil
}

// Reopen returns a Submitted form to editing, e.g. after the catalog
// rejected the draft.
func (f *Form) Reopen() {
	if f.state == StateSubmitted {
		f.touch()
	}
}

// Reset clears all fields and closes the dialog.
func (f *Form) Reset() {
	*f = Form{}
}

// Cancel discards the draft and closes the dialog.
func (f *Form) Cancel() {
	f.Reset()
}

// Snapshot copies the form for rendering.
func (f *Form) Snapshot() Snapshot {
	return Snapshot{
		Open:        f.open,
		State:       f.State(),
		Title:       f.title,
		Description: f.description,
		Offering:    clone(f.offering),
		Seeking:     clone(f.seeking),
	}
}

func (f *Form) touch() {
	if f.Submittable() {
		f.state = StateSubmittable
		return
	}
	f.state = StateEditing
}

func (f *Form) list(target Target) (*[]trade.Item, error) {
	switch target {
	case TargetOffering:
		return &f.offering, nil
	case TargetSeeking:
		return &f.seeking, nil
	}
	return nil, errs.NewError(errs.ErrItemListInvalid)
}

func clone(items []trade.Item) []trade.Item {
	out := make([]trade.Item, len(items))
	copy(out, items)
	return out
}
