// ABOUTME: Dashboard controller: turns commands into API calls and state transitions.
// ABOUTME: Role-gated navigation, list/create/update/delete, and audit logging of mutations.

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/2389/shopdesk/internal/apiclient"
	"github.com/2389/shopdesk/internal/resource"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
)

// API is the slice of the REST client the dashboard uses.
type API interface {
	List(ctx context.Context, token, collection string) ([]json.RawMessage, error)
	Create(ctx context.Context, token, collection string, payload any) (string, error)
	Update(ctx context.Context, token, collection, id string, payload any) (string, error)
	Delete(ctx context.Context, token, collection, id string) (string, error)
}

// AuditLog records mutation attempts.
type AuditLog interface {
	AppendAuditLog(ctx context.Context, e *store.AuditEntry) error
}

// Outcome tells the HTTP layer what to do after a command.
type Outcome struct {
	// LoggedOut means the session must end and the browser go to login.
	LoggedOut bool
	// Forced is set when the API rejected the token (401) rather than the
	// operator asking to log out.
	Forced bool
}

// Controller runs dashboard commands.
type Controller struct {
	api    API
	audit  AuditLog
	states *StateStore
	logger *slog.Logger
}

// NewController creates a Controller. audit may be nil.
func NewController(api API, audit AuditLog, states *StateStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if states == nil {
		states = NewStateStore()
	}
	return &Controller{
		api:    api,
		audit:  audit,
		states: states,
		logger: logger.With("component", "dashboard"),
	}
}

// States exposes the state store, so session teardown can drop entries.
func (c *Controller) States() *StateStore {
	return c.states
}

// Handle runs cmd against the session's state and returns what to render.
func (c *Controller) Handle(ctx context.Context, sess *session.Session, cmd Command) (View, Outcome) {
	st := c.states.Get(sess.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	out := c.Dispatch(ctx, sess, st, cmd)
	if out.LoggedOut {
		c.states.Delete(sess.ID)
	}
	return st.view(), out
}

// Dispatch applies cmd to st. The caller holds st's lock.
func (c *Controller) Dispatch(ctx context.Context, sess *session.Session, st *State, cmd Command) Outcome {
	st.Flash = nil

	if _, ok := cmd.(Logout); ok {
		st.reset()
		return Outcome{LoggedOut: true}
	}

	if !st.initialized {
		st.initialized = true
		st.Tabs = resource.SectionsFor(sess.User.Role)
		// A fresh state opens on the first tab unless the command names one.
		if _, explicit := cmd.(Activate); !explicit && len(st.Tabs) > 0 {
			if err := c.activate(ctx, sess, st, st.Tabs[0]); err != nil {
				return c.fail(st, err)
			}
		}
	}

	var err error
	switch cmd := cmd.(type) {
	case Show:
	case Activate:
		err = c.handleActivate(ctx, sess, st, cmd)
	case Create:
		err = c.handleCreate(ctx, sess, st, cmd)
	case OpenEdit:
		err = c.handleOpenEdit(ctx, sess, st, cmd)
	case CancelEdit:
		st.Modal = nil
	case SubmitEdit:
		err = c.handleSubmitEdit(ctx, sess, st, cmd)
	case RequestDelete:
		err = c.handleRequestDelete(ctx, sess, st, cmd)
	case ConfirmDelete:
		err = c.handleConfirmDelete(ctx, sess, st, cmd)
	}
	if err != nil {
		return c.fail(st, err)
	}
	return Outcome{}
}

// fail converts an unauthorized error into a logout. Other errors have
// already been turned into flashes by the handlers.
func (c *Controller) fail(st *State, err error) Outcome {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		st.reset()
		return Outcome{LoggedOut: true, Forced: true}
	}
	return Outcome{}
}

// section resolves a section id against the state's tabs.
func (c *Controller) section(st *State, id string) (resource.Kind, bool) {
	kind, ok := resource.Lookup(id)
	if !ok {
		return nil, false
	}
	for _, t := range st.Tabs {
		if t == kind {
			return kind, true
		}
	}
	return nil, false
}

func (c *Controller) handleActivate(ctx context.Context, sess *session.Session, st *State, cmd Activate) error {
	kind, ok := c.section(st, cmd.Section)
	if !ok {
		st.Flash = &Flash{Kind: FlashError, Message: "That section is not available for your role"}
		return nil
	}
	return c.activate(ctx, sess, st, kind)
}

// activate makes kind the only active section and loads its list.
func (c *Controller) activate(ctx context.Context, sess *session.Session, st *State, kind resource.Kind) error {
	st.CreateValues = nil
	st.Active = kind
	st.Modal = nil
	st.Delete = nil
	return c.load(ctx, sess, st)
}

// load fetches the active section's list. Failures leave no rows.
func (c *Controller) load(ctx context.Context, sess *session.Session, st *State) error {
	st.Rows = nil
	if st.Active == nil {
		return nil
	}
	raw, err := c.api.List(ctx, sess.Token, st.Active.ID())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		c.logger.Warn("list failed", "section", st.Active.ID(), "error", err)
		st.Flash = &Flash{Kind: FlashError, Message: apiclient.UserMessage(err)}
		return nil
	}

	rows := make([]resource.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := st.Active.Decode(r)
		if err != nil {
			c.logger.Warn("skipping undecodable row", "section", st.Active.ID(), "error", err)
			continue
		}
		rows = append(rows, rec)
	}
	st.Rows = rows
	return nil
}

func (c *Controller) handleCreate(ctx context.Context, sess *session.Session, st *State, cmd Create) error {
	kind, ok := c.section(st, cmd.Section)
	if !ok {
		st.Flash = &Flash{Kind: FlashError, Message: "That section is not available for your role"}
		return nil
	}
	form, ok := kind.CreateForm()
	if !ok {
		st.Flash = &Flash{Kind: FlashError, Message: kind.Label() + " cannot be created here"}
		return nil
	}
	switched := st.Active != kind
	if switched {
		// Rows of the previous section must never be shown or matched
		// under the new one.
		st.Active = kind
		st.Rows = nil
		st.Modal = nil
		st.Delete = nil
	}
	// rejected keeps the operator's input and, after a section switch,
	// lists the new section so the page matches its tab.
	rejected := func(msg string) error {
		if switched {
			if err := c.load(ctx, sess, st); err != nil {
				return err
			}
		}
		st.Flash = &Flash{Kind: FlashError, Message: msg}
		st.CreateValues = captureValues(form.Fields, cmd.Values)
		return nil
	}

	payload, err := form.Build(cmd.Values)
	if err != nil {
		return rejected(err.Error())
	}

	msg, err := c.api.Create(ctx, sess.Token, kind.ID(), payload)
	c.record(ctx, sess, store.AuditCreate, kind, "", msg, err)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		return rejected(apiclient.UserMessage(err))
	}

	st.CreateValues = nil
	if err := c.load(ctx, sess, st); err != nil {
		return err
	}
	if st.Flash == nil {
		st.Flash = &Flash{Kind: FlashSuccess, Message: msg}
	}
	return nil
}

func (c *Controller) handleOpenEdit(ctx context.Context, sess *session.Session, st *State, cmd OpenEdit) error {
	kind, ok := c.section(st, cmd.Section)
	if !ok {
		st.Flash = &Flash{Kind: FlashError, Message: "That section is not available for your role"}
		return nil
	}
	if !resource.Editable(kind) {
		st.Flash = &Flash{Kind: FlashError, Message: kind.Label() + " cannot be edited"}
		return nil
	}
	rec, err := c.find(ctx, sess, st, kind, cmd.ID)
	if err != nil || rec == nil {
		return err
	}

	st.Modal = newModal(kind, rec)
	return nil
}

func newModal(kind resource.Kind, rec resource.Record) *Modal {
	m := &Modal{
		Kind:   kind,
		ID:     rec.RecordID(),
		Title:  "Update " + kind.Singular(),
		Fields: kind.UpdateFields(rec),
	}
	if faq, ok := rec.(*resource.FAQEntry); ok {
		m.Preview = string(resource.RenderMarkdown(faq.Answer))
	}
	return m
}

// find returns a record of the current render, loading kind's list when it
// is not the active section. A missing record sets a flash and returns nil.
func (c *Controller) find(ctx context.Context, sess *session.Session, st *State, kind resource.Kind, id string) (resource.Record, error) {
	if st.Active != kind {
		if err := c.activate(ctx, sess, st, kind); err != nil {
			return nil, err
		}
	}
	for _, r := range st.Rows {
		if r.RecordID() == id && resource.Owns(kind, r) {
			return r, nil
		}
	}
	if st.Flash == nil {
		st.Flash = &Flash{Kind: FlashError, Message: kind.Singular() + " " + id + " was not found"}
	}
	return nil, nil
}

func (c *Controller) handleSubmitEdit(ctx context.Context, sess *session.Session, st *State, cmd SubmitEdit) error {
	modal := st.Modal
	if modal == nil {
		return nil
	}
	if cmd.Section != "" && (cmd.Section != modal.Kind.ID() || cmd.ID != modal.ID) {
		st.Flash = &Flash{Kind: FlashError, Message: "That edit form is no longer open"}
		return nil
	}

	payload := resource.BuildUpdate(modal.Kind.UpdateFields(nil), cmd.Values)
	msg, err := c.api.Update(ctx, sess.Token, modal.Kind.ID(), modal.ID, payload)
	c.record(ctx, sess, store.AuditUpdate, modal.Kind, modal.ID, msg, err)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		modal.Fields = resource.WithValues(modal.Fields, cmd.Values)
		st.Flash = &Flash{Kind: FlashError, Message: apiclient.UserMessage(err)}
		return nil
	}

	st.Modal = nil
	if st.Active == nil {
		st.Active = modal.Kind
	}
	if err := c.load(ctx, sess, st); err != nil {
		return err
	}
	if st.Flash == nil {
		st.Flash = &Flash{Kind: FlashSuccess, Message: msg}
	}
	return nil
}

func (c *Controller) handleRequestDelete(ctx context.Context, sess *session.Session, st *State, cmd RequestDelete) error {
	kind, ok := c.section(st, cmd.Section)
	if !ok {
		st.Flash = &Flash{Kind: FlashError, Message: "That section is not available for your role"}
		return nil
	}
	rec, err := c.find(ctx, sess, st, kind, cmd.ID)
	if err != nil || rec == nil {
		return err
	}
	st.Modal = nil
	st.Delete = &PendingDelete{Kind: kind, ID: rec.RecordID(), Name: rec.DisplayName()}
	return nil
}

func (c *Controller) handleConfirmDelete(ctx context.Context, sess *session.Session, st *State, cmd ConfirmDelete) error {
	pending := st.Delete
	st.Delete = nil
	if pending == nil || !cmd.Confirmed {
		return nil
	}
	if cmd.Section != "" && (cmd.Section != pending.Kind.ID() || cmd.ID != pending.ID) {
		return nil
	}

	msg, err := c.api.Delete(ctx, sess.Token, pending.Kind.ID(), pending.ID)
	c.record(ctx, sess, store.AuditDelete, pending.Kind, pending.ID, msg, err)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		st.Flash = &Flash{Kind: FlashError, Message: apiclient.UserMessage(err)}
		return nil
	}

	if err := c.load(ctx, sess, st); err != nil {
		return err
	}
	if st.Flash == nil {
		st.Flash = &Flash{Kind: FlashSuccess, Message: msg}
	}
	return nil
}

// record appends a mutation attempt to the audit log.
func (c *Controller) record(ctx context.Context, sess *session.Session, action store.AuditAction, kind resource.Kind, targetID, msg string, err error) {
	entry := &store.AuditEntry{
		SessionID: sess.ID,
		Actor:     sess.User.Username,
		Action:    action,
		Resource:  kind.ID(),
		TargetID:  targetID,
		Outcome:   store.AuditOK,
		Message:   msg,
	}
	var be *apiclient.BusinessError
	switch {
	case err == nil:
	case errors.As(err, &be):
		entry.Outcome = store.AuditRejected
		entry.Message = be.Message
	default:
		entry.Outcome = store.AuditFailed
		entry.Message = err.Error()
	}

	c.logger.Info("mutation",
		"action", action,
		"resource", kind.ID(),
		"target", targetID,
		"actor", sess.User.Username,
		"outcome", entry.Outcome,
	)
	if c.audit == nil {
		return
	}
	if aErr := c.audit.AppendAuditLog(ctx, entry); aErr != nil {
		c.logger.Error("failed to append audit log", "error", aErr)
	}
}

func captureValues(fields []resource.Field, values resource.Values) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Type == resource.FieldPassword {
			continue
		}
		out[f.ID] = values.Get(f.ID)
	}
	return out
}
