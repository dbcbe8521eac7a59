package market

import (
	"context"

	"gardentrade/internal/app/compose"
	"gardentrade/internal/app/trade"
)

// OpenComposer shows the create-trade dialog.
func (v *View) OpenComposer() (compose.Snapshot, error) {
	return v.editForm(func(f *compose.Form) error {
		f.Open()
		return nil
	})
}

// ComposerState returns the form snapshot.
func (v *View) ComposerState() (compose.Snapshot, error) {
	return v.editForm(func(*compose.Form) error { return nil })
}

// SetComposerText replaces the title and description. Nil leaves a field
// untouched.
func (v *View) SetComposerText(title, description *string) (compose.Snapshot, error) {
	return v.editForm(func(f *compose.Form) error {
		if title != nil {
			f.SetTitle(*title)
		}
		if description != nil {
			f.SetDescription(*description)
		}
		return nil
	})
}

// AddComposerItem appends an item to one side of the form.
func (v *View) AddComposerItem(target compose.Target, kind trade.ItemKind, name string, quantity int) (compose.Snapshot, error) {
	return v.editForm(func(f *compose.Form) error {
		_, err := f.AddItem(target, kind, name, quantity)
		return err
	})
}

// RemoveComposerItem deletes the item at index from one side of the form.
func (v *View) RemoveComposerItem(target compose.Target, index int) (compose.Snapshot, error) {
	return v.editForm(func(f *compose.Form) error {
		_, err := f.RemoveItem(target, index)
		return err
	})
}

// CancelComposer discards the draft and closes the dialog.
func (v *View) CancelComposer() (compose.Snapshot, error) {
	return v.editForm(func(f *compose.Form) error {
		f.Cancel()
		return nil
	})
}

// SubmitComposer posts the form as a trade. On success the form is reset and
// closed; when the catalog rejects the draft the form returns to editing with
// its content intact.
func (v *View) SubmitComposer(ctx context.Context) (trade.Trade, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	owner, err := v.requireAuth()
	if err != nil {
		return trade.Trade{}, err
	}

	draft, err := v.form.Submit()
	if err != nil {
		return trade.Trade{}, err
	}

	t, err := v.post(ctx, owner, draft)
	if err != nil {
		v.form.Reopen()
		return trade.Trade{}, err
	}

	v.form.Reset()
	return t, nil
}

func (v *View) editForm(edit func(*compose.Form) error) (compose.Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.requireAuth(); err != nil {
		return compose.Snapshot{}, err
	}

	if err := edit(&v.form); err != nil {
		return v.form.Snapshot(), err
	}
	return v.form.Snapshot(), nil
}
