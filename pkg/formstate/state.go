package formstate

// FieldState is the per-field state surfaced to presentation code. Value is
// nil until the field receives input; Error is nil until the field has been
// validated at least once and stays nil while the value passes.
type FieldState struct {
	Value   *string `json:"value"`
	Touched bool    `json:"touched"`
	Error   *string `json:"error"`
}

// StringValue returns the value or "" when the field never received input.
func (f FieldState) StringValue() string {
	if f.Value == nil {
		return ""
	}
	return *f.Value
}

// ErrorMessage returns the error or "".
func (f FieldState) ErrorMessage() string {
	if f.Error == nil {
		return ""
	}
	return *f.Error
}

func (f FieldState) clone() FieldState {
	out := FieldState{Touched: f.Touched}
	if f.Value != nil {
		v := *f.Value
		out.Value = &v
	}
	if f.Error != nil {
		e := *f.Error
		out.Error = &e
	}
	return out
}

// FormState is a point-in-time snapshot of a tracked form. Order lists the
// field names in definition order; Fields always holds exactly those keys.
type FormState struct {
	Fields       map[string]FieldState `json:"fields"`
	Order        []string              `json:"order"`
	IsSubmitting bool                  `json:"isSubmitting"`
	IsValid      bool                  `json:"isValid"`
}

// Field returns the state for name, or the zero FieldState when unknown.
func (s FormState) Field(name string) FieldState {
	return s.Fields[name]
}

// Errors collects the currently set error messages keyed by field.
func (s FormState) Errors() map[string]string {
	out := make(map[string]string)
	for name, field := range s.Fields {
		if field.Error != nil {
			out[name] = *field.Error
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
