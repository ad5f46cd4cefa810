package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/pkg/dialog"
	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/render"
)

const (
	IntentCreate = "create"
	IntentUpdate = "update"
	IntentDelete = "delete"
)

const (
	msgLoadFailed   = "Could not load catalog items"
	msgInvalid      = "Please fix the highlighted fields"
	msgMissingID    = "Item id is missing"
	msgUnknown      = "Unknown action"
	msgRequestError = "The request could not be completed"
)

var outcomeMessages = map[string][2]string{
	IntentCreate: {"Item added", "Could not create the item"},
	IntentUpdate: {"Item updated", "Could not update the item"},
	IntentDelete: {"Item deleted", "Could not delete the item"},
}

//go:embed templates/*.tpl
var templateFS embed.FS

// Templates returns the catalog page templates for callers assembling their
// own render.HTML.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// ActionResponse is the result of a POST.
type ActionResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

var errMissingTransport = errors.New("catalog: missing transport")

type handler struct {
	opts     Options
	renderer *render.HTML
}

// Handler builds the catalog handler with default options plus overrides.
func Handler(fns ...OptionFn) (http.Handler, error) {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the handler from a pre-constructed Options value.
func HandlerWithOptions(opts Options) (http.Handler, error) {
	opts = NewOptions(func(o *Options) { *o = opts })
	if opts.Adapter == nil {
		return nil, errMissingTransport
	}
	renderer := opts.Renderer
	if renderer == nil {
		html, err := render.NewHTML(render.WithTemplates(Templates()), render.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		renderer = html
	}
	return &handler{opts: opts, renderer: renderer}, nil
}

// pageState is everything one page render needs.
type pageState struct {
	items     []Item
	loadError string
	result    *ActionResponse
	dialog    *dialog.Controller
	form      *formstate.Tracker
	formID    string
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.opts.Guard != nil {
		if err := h.opts.Guard(r); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
	}
	client, err := h.client(r)
	if err != nil {
		h.opts.Logger.Error("catalog transport unavailable", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		page := h.newPage()
		h.load(r.Context(), client, page)
		h.openFromQuery(r, page)
		h.writePage(w, r, http.StatusOK, page)
	case http.MethodPost:
		h.action(w, r, client)
	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead+", "+http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) client(r *http.Request) (*Client, error) {
	adapter := h.opts.Adapter(r)
	if adapter == nil {
		return nil, errMissingTransport
	}
	return NewClient(adapter, h.opts.ItemsPath)
}

func (h *handler) newPage() *pageState {
	page := &pageState{dialog: dialog.New()}
	if h.opts.OnDialog != nil {
		page.dialog.Subscribe(h.opts.OnDialog)
	}
	return page
}

func (h *handler) load(ctx context.Context, client *Client, page *pageState) {
	items, err := client.List(ctx)
	if err != nil {
		h.opts.Logger.Warn("catalog list failed", zap.Error(err))
		page.loadError = msgLoadFailed
		return
	}
	page.items = items
}

// openFromQuery opens the dialog for ?dialog=new or ?edit=<id>.
func (h *handler) openFromQuery(r *http.Request, page *pageState) {
	q := r.URL.Query()
	if q.Get("dialog") == "new" {
		page.form = newItemForm(nil)
		page.dialog.Open()
		return
	}
	id := strings.TrimSpace(q.Get("edit"))
	if id == "" {
		return
	}
	for _, item := range page.items {
		if strconv.FormatInt(item.ID, 10) == id {
			values := FormValues(item)
			page.form = newItemForm(values)
			page.formID = id
			page.dialog.Open()
			return
		}
	}
}

func (h *handler) action(w http.ResponseWriter, r *http.Request, client *Client) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	page := h.newPage()
	intent := r.PostForm.Get("intent")
	id := strings.TrimSpace(r.PostForm.Get("id"))

	status, result := http.StatusOK, ActionResponse{}
	switch intent {
	case IntentCreate, IntentUpdate:
		// The request was submitted from the open dialog.
		page.dialog.Open()
		page.formID = id
		if intent == IntentUpdate && id == "" {
			status, result = http.StatusBadRequest, ActionResponse{Message: msgMissingID}
			break
		}
		page.form = trackPosted(r)
		if _, errs := page.form.Validate(); len(errs) > 0 {
			status, result = http.StatusUnprocessableEntity, ActionResponse{Message: msgInvalid}
			break
		}
		payload := ParsePayload(r.PostForm)
		var err error
		if intent == IntentCreate {
			err = client.Create(r.Context(), payload)
		} else {
			err = client.Update(r.Context(), id, payload)
		}
		status, result = h.result(intent, err)
		if result.OK {
			page.dialog.Close()
		}
	case IntentDelete:
		if id == "" {
			status, result = http.StatusBadRequest, ActionResponse{Message: msgMissingID}
			break
		}
		status, result = h.result(intent, client.Delete(r.Context(), id))
	default:
		status, result = http.StatusBadRequest, ActionResponse{Message: msgUnknown}
	}

	h.opts.Logger.Debug("catalog action",
		zap.String("intent", intent),
		zap.String("id", id),
		zap.Bool("ok", result.OK),
		zap.Int("status", status),
	)

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(result)
		return
	}
	page.result = &result
	h.load(r.Context(), client, page)
	h.writePage(w, r, status, page)
}

func (h *handler) result(intent string, err error) (int, ActionResponse) {
	messages := outcomeMessages[intent]
	if err == nil {
		return http.StatusOK, ActionResponse{OK: true, Message: messages[0]}
	}
	h.opts.Logger.Warn("catalog backend call failed", zap.String("intent", intent), zap.Error(err))
	if errors.Is(err, ErrMissingID) {
		return http.StatusBadRequest, ActionResponse{Message: msgMissingID}
	}
	if errors.Is(err, ErrUnexpectedStatus) {
		return http.StatusBadGateway, ActionResponse{Message: messages[1]}
	}
	return http.StatusBadGateway, ActionResponse{Message: msgRequestError}
}

func (h *handler) writePage(w http.ResponseWriter, r *http.Request, status int, page *pageState) {
	out, err := h.renderPage(r, page)
	if err != nil {
		h.opts.Logger.Error("catalog render", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(out)
}

func (h *handler) renderPage(r *http.Request, page *pageState) ([]byte, error) {
	var hidden []render.HiddenField
	if h.opts.Hidden != nil {
		hidden = h.opts.Hidden(r)
	}
	opts := render.RenderOptions{
		Title:        h.opts.Title,
		ThemeName:    h.opts.ThemeName,
		ThemeVariant: h.opts.ThemeVariant,
	}
	data := map[string]any{
		"items":      itemViews(page.items),
		"loadError":  page.loadError,
		"hidden":     render.SortedHiddenFields(hidden...),
		"dialogOpen": page.dialog.IsOpen(),
	}
	if page.result != nil {
		data["resultOK"] = page.result.OK
		data["resultMessage"] = page.result.Message
	}
	if page.dialog.IsOpen() && page.form != nil {
		intent, title, label := IntentCreate, "New catalog item", "Create"
		if page.formID != "" {
			intent, title, label = IntentUpdate, "Edit catalog item", "Save"
		}
		formOpts := render.RenderOptions{
			Action:      r.URL.Path,
			SubmitLabel: label,
			Hidden:      append(append([]render.HiddenField{}, hidden...), render.Intent(intent)),
		}
		if page.formID != "" {
			formOpts.Hidden = append(formOpts.Hidden, render.Hidden("id", page.formID))
		}
		if page.result != nil && !page.result.OK {
			formOpts.FormErrors = []string{page.result.Message}
		}
		fragment, err := h.renderer.Fragment(r.Context(), render.View{Definition: Definition, State: page.form.State()}, formOpts)
		if err != nil {
			return nil, err
		}
		data["form"] = string(fragment)
		data["dialogTitle"] = title
	}
	return h.renderer.Page(r.Context(), "catalog", data, opts)
}

func newItemForm(values map[string]string) *formstate.Tracker {
	tracker := formstate.NewForDefinition(Definition)
	if values == nil {
		values = map[string]string{"rentable": "true"}
	}
	for _, name := range Definition.Names() {
		if v, ok := values[name]; ok {
			_ = tracker.OnChange(name, v)
		}
	}
	return tracker
}

func trackPosted(r *http.Request) *formstate.Tracker {
	tracker := formstate.NewForDefinition(Definition)
	for _, name := range Definition.Names() {
		_ = tracker.OnChange(name, r.PostForm.Get(name))
		_ = tracker.OnBlur(name)
	}
	return tracker
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

type itemView struct {
	ID         int64
	SKU        string
	Name       string
	Category   string
	BrandModel string
	Rate       string
	Flags      []string
}

func itemViews(items []Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, item := range items {
		category := item.Category
		if sub := deref(item.Subcategory); sub != "" {
			category += " / " + sub
		}
		brandModel := strings.TrimSpace(deref(item.Brand) + " " + deref(item.Model))
		if brandModel == "" {
			brandModel = "-"
		}
		rate := item.DefaultRate.String()
		if rate == "" {
			rate = "-"
		}
		var flags []string
		if item.Sellable {
			flags = append(flags, "Sellable")
		}
		if item.Rentable {
			flags = append(flags, "Rentable")
		}
		if item.IsConsumable {
			flags = append(flags, "Consumable")
		}
		out = append(out, itemView{
			ID:         item.ID,
			SKU:        item.SKU,
			Name:       item.Name,
			Category:   category,
			BrandModel: brandModel,
			Rate:       rate,
			Flags:      flags,
		})
	}
	return out
}
