package registration

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	formpipe "github.com/goliatone/go-formpipe"
	"github.com/goliatone/go-formpipe/pkg/formstate"
	"github.com/goliatone/go-formpipe/pkg/model"
	"github.com/goliatone/go-formpipe/pkg/render"
	"github.com/goliatone/go-formpipe/pkg/submission"
)

// FailedStepHeader names the failing step on partial failure responses.
const FailedStepHeader = "X-Formpipe-Failed-Step"

var errMissingTransport = errors.New("registration: missing transport")

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type handler struct {
	opts       Options
	definition model.FormDefinition
	request    submission.Request
	renderer   render.Renderer
}

// Handler builds the registration handler with default options plus any
// overrides.
func Handler(fns ...OptionFn) (http.Handler, error) {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds the handler from a pre-constructed Options value.
func HandlerWithOptions(opts Options) (http.Handler, error) {
	opts = NewOptions(func(o *Options) { *o = opts })
	if opts.Adapter == nil {
		return nil, errMissingTransport
	}
	def, err := Definition()
	if err != nil {
		return nil, err
	}
	req, err := Request(opts.Redirect)
	if err != nil {
		return nil, fmt.Errorf("registration: %w", err)
	}
	renderer := opts.Renderer
	if renderer == nil {
		html, err := render.NewHTML(render.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("registration: %w", err)
		}
		renderer = html
	}
	return &handler{opts: opts, definition: def, request: req, renderer: renderer}, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.opts.Guard != nil {
		if err := h.opts.Guard(r); err != nil {
			writeGuardError(w, err)
			return
		}
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		tracker := formstate.NewForDefinition(h.definition)
		h.write(w, r, http.StatusOK, tracker.State(), h.renderOptions(r))
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead+", "+http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	adapter := h.opts.Adapter(r)
	if adapter == nil {
		h.opts.Logger.Error("registration transport unavailable")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	coordinator, err := submission.NewCoordinator(adapter, h.request,
		append([]submission.Option{submission.WithLogger(h.opts.Logger)}, h.opts.Coordinator...)...)
	if err != nil {
		h.opts.Logger.Error("registration coordinator", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pipeline := formpipe.New(h.definition, coordinator)
	if err := fill(pipeline, h.definition, r); err != nil {
		h.opts.Logger.Error("registration fill", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	outcome, err := pipeline.Submit(r.Context())
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, formstate.ErrSubmitInFlight) {
			code = http.StatusConflict
		}
		http.Error(w, http.StatusText(code), code)
		return
	}

	opts := h.renderOptions(r)
	switch o := outcome.(type) {
	case submission.Success:
		http.Redirect(w, r, o.Redirect, http.StatusSeeOther)
	case submission.ValidationRejected:
		h.write(w, r, http.StatusUnprocessableEntity, pipeline.State(), opts)
	case submission.PartialFailure:
		h.opts.Logger.Warn("registration failed",
			zap.String("step_name", o.StepName),
			zap.String("reason", string(o.Reason)),
			zap.Int("status", o.Status),
			zap.Strings("completed", o.Completed),
		)
		opts.Notice = o.Message
		opts.FormErrors = append(opts.FormErrors, o.FormErrors...)
		w.Header().Set(FailedStepHeader, o.StepName)
		h.write(w, r, failureStatus(o), pipeline.State(), opts)
	}
}

// fill feeds the posted values through the tracker the way a browser would:
// change then blur, field by field.
func fill(p *formpipe.Pipeline, def model.FormDefinition, r *http.Request) error {
	for _, name := range def.Names() {
		if err := p.OnChange(name, r.PostForm.Get(name)); err != nil {
			return err
		}
		if err := p.OnBlur(name); err != nil {
			return err
		}
	}
	return nil
}

// failureStatus maps backend input rejections to 422 and everything else
// (unreachable backend, unusable responses) to 502.
func failureStatus(o submission.PartialFailure) int {
	if o.Reason == submission.ReasonStatus && o.Status >= 400 && o.Status < 500 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func (h *handler) renderOptions(r *http.Request) render.RenderOptions {
	opts := render.RenderOptions{
		Action:       r.URL.Path,
		Title:        h.opts.Title,
		SubmitLabel:  h.opts.SubmitLabel,
		ThemeName:    h.opts.ThemeName,
		ThemeVariant: h.opts.ThemeVariant,
	}
	if h.opts.Hidden != nil {
		opts.Hidden = h.opts.Hidden(r)
	}
	return opts
}

func (h *handler) write(w http.ResponseWriter, r *http.Request, code int, state formstate.FormState, opts render.RenderOptions) {
	out, err := h.render(r.Context(), state, opts)
	if err != nil {
		h.opts.Logger.Error("registration render", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", h.renderer.ContentType())
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(out)
}

func (h *handler) render(ctx context.Context, state formstate.FormState, opts render.RenderOptions) ([]byte, error) {
	return h.renderer.Render(ctx, render.View{Definition: h.definition, State: state}, opts)
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
